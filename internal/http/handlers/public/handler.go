package public

import "github.com/giftvault/internal/provider"

// Handler 公开接口处理器入口
// 说明：该处理器用于兑换流程与持卡人自助 API。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
