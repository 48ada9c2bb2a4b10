package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims 会员会话令牌载荷
// 会话由外部身份系统签发，这里只负责校验与解析。
type IdentityClaims struct {
	IdentityID string `json:"identity_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// StaffClaims 员工会话令牌载荷
type StaffClaims struct {
	StaffID string `json:"staff_id"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

// SignIdentitySession 签发会员会话令牌，供本地联调与种子工具使用
func SignIdentitySession(secret string, identityID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		IdentityID: identityID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// SignStaffSession 签发员工会话令牌，供本地联调与种子工具使用
func SignStaffSession(secret string, staffID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := StaffClaims{
		StaffID: staffID,
		Name:    name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
