package admin

import "github.com/crewpay-next/internal/provider"

// Handler 结算后台接口处理器入口
// 说明：该处理器仅用于 /admin/payroll 下的运营接口。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
