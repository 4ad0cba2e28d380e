package admin

import (
	"strings"

	handlershared "github.com/crewpay-next/internal/http/handlers/shared"
	"github.com/crewpay-next/internal/http/response"
	"github.com/crewpay-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreatePayoutRequest 创建结算批次请求
type CreatePayoutRequest struct {
	CrewUserID  string           `json:"crew_user_id" binding:"required"`
	PeriodStart string           `json:"period_start" binding:"required"`
	PeriodEnd   string           `json:"period_end" binding:"required"`
	TotalAmount *decimal.Decimal `json:"total_amount" binding:"required"`
	Status      string           `json:"status"`
	EntryIDs    []uint           `json:"entry_ids"`
	Notes       string           `json:"notes"`
}

// GetPayouts 查询结算批次
func (h *Handler) GetPayouts(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	periodFrom, ok := h.parseTimeQuery(c, "start", false)
	if !ok {
		return
	}
	periodTo, ok := h.parseTimeQuery(c, "end", true)
	if !ok {
		return
	}

	payouts, total, err := h.PayoutService.ListPayouts(c.Request.Context(), service.PayoutListQuery{
		Page:       page,
		PageSize:   pageSize,
		CrewUserID: strings.TrimSpace(c.Query("crew_user_id")),
		Status:     c.Query("status"),
		PeriodFrom: periodFrom,
		PeriodTo:   periodTo,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, payouts, response.BuildPagination(page, pageSize, total))
}

// GetPayout 查询批次详情（含已认领条目）
func (h *Handler) GetPayout(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	payout, err := h.PayoutService.GetPayout(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, payout)
}

// CreatePayout 创建结算批次并认领条目
func (h *Handler) CreatePayout(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	periodStart, ok := h.parseTimeField(c, req.PeriodStart, false)
	if !ok {
		return
	}
	periodEnd, ok := h.parseTimeField(c, req.PeriodEnd, true)
	if !ok {
		return
	}

	payout, err := h.PayoutService.CreatePayout(c.Request.Context(), service.CreatePayoutInput{
		CrewUserID:  req.CrewUserID,
		PeriodStart: *periodStart,
		PeriodEnd:   *periodEnd,
		TotalAmount: req.TotalAmount,
		CreatedBy:   operatorID,
		Status:      req.Status,
		EntryIDs:    req.EntryIDs,
		Notes:       req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, payout)
}

// UpdatePayoutStatus 更新批次状态
func (h *Handler) UpdatePayoutStatus(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payout, err := h.PayoutService.UpdatePayoutStatus(c.Request.Context(), id, req.Status, operatorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, payout)
}

// GetPayoutAudit 查询批次状态变更审计
func (h *Handler) GetPayoutAudit(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	logs, total, err := h.PayoutAuditService.ListForPayout(c.Request.Context(), id, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}
