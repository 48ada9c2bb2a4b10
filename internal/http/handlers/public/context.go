package public

import (
	"strings"

	handlershared "github.com/giftvault/internal/http/handlers/shared"
	"github.com/giftvault/internal/identity"

	"github.com/gin-gonic/gin"
)

// getIdentity 从上下文读取认证身份，缺失时返回错误响应
func getIdentity(c *gin.Context) (identity.Identity, bool) {
	id, ok := handlershared.GetContextStringWithKeys(c, "identity_id", "error.token_invalid")
	if !ok {
		return identity.Identity{}, false
	}
	email, _ := c.Get("identity_email")
	emailStr, _ := email.(string)
	return identity.Identity{ID: id, Email: strings.TrimSpace(emailStr)}, true
}

// getOptionalIdentity 读取可选的认证身份，未登录时返回 nil
func getOptionalIdentity(c *gin.Context) *identity.Identity {
	value, exists := c.Get("identity_id")
	if !exists {
		return nil
	}
	id, ok := value.(string)
	if !ok || strings.TrimSpace(id) == "" {
		return nil
	}
	email := ""
	if raw, ok := c.Get("identity_email"); ok {
		if str, ok := raw.(string); ok {
			email = strings.TrimSpace(str)
		}
	}
	return &identity.Identity{ID: id, Email: email}
}
