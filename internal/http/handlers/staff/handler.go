package staff

import "github.com/giftvault/internal/provider"

// Handler 员工端接口处理器入口
// 说明：该处理器用于门店与运营侧 API，调用方已由外部完成登录与授权。
type Handler struct {
	*provider.Container
}

// New 创建员工端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
