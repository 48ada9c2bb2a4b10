package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// 卡号字符集：去除 0/O、1/I/L 等易混淆字符
const (
	codeAlphabet       = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	codePrefixAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ"
	codeGroupLength    = 4
	tokenByteLength    = 16
)

// GenerateGiftCardCode 生成可读卡号，格式 XX-XXXX-XXXX
func GenerateGiftCardCode() (string, error) {
	prefix, err := randomFromAlphabet(codePrefixAlphabet, 2)
	if err != nil {
		return "", err
	}
	groupOne, err := randomFromAlphabet(codeAlphabet, codeGroupLength)
	if err != nil {
		return "", err
	}
	groupTwo, err := randomFromAlphabet(codeAlphabet, codeGroupLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", prefix, groupOne, groupTwo), nil
}

// GenerateRedeemToken 生成 128 位随机兑换令牌，返回明文与摘要；明文仅交付一次，不落库
func GenerateRedeemToken() (token string, tokenHash string, err error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	return token, HashRedeemToken(token), nil
}

// HashRedeemToken 计算兑换令牌摘要（SHA-256 十六进制）
func HashRedeemToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// VerifyTokenHash 常量时间比较令牌摘要
func VerifyTokenHash(token string, tokenHash string) bool {
	computed := HashRedeemToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(tokenHash)) == 1
}

func randomFromAlphabet(alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var builder strings.Builder
	builder.Grow(length)
	for _, b := range buf {
		builder.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return builder.String(), nil
}
