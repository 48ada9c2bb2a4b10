package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言环境
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

const defaultLocale = LocaleZhCN

// ResolveLocale 从请求解析语言环境：query 参数 lang 优先，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return defaultLocale
	}
	if lang := normalizeLocale(c.Query("lang")); lang != "" {
		return lang
	}
	acceptLanguage := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if lang := normalizeLocale(tag); lang != "" {
			return lang
		}
	}
	return defaultLocale
}

// T 返回指定语言环境下的文案，缺失时回退到默认语言再回退到 key 本身
func T(locale, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if message, ok := catalog[key]; ok {
			return message
		}
	}
	if message, ok := catalogs[defaultLocale][key]; ok {
		return message
	}
	return key
}

// Sprintf 返回带参数格式化后的文案
func Sprintf(locale, key string, args ...interface{}) string {
	message := T(locale, key)
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}

func normalizeLocale(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	lower := strings.ToLower(tag)
	switch {
	case strings.HasPrefix(lower, "zh"):
		return LocaleZhCN
	case strings.HasPrefix(lower, "en"):
		return LocaleEnUS
	}
	return ""
}
