package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/crewpay-next/internal/http/handlers/shared"
	"github.com/crewpay-next/internal/http/response"
	"github.com/crewpay-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateEntryRequest 新建手工佣金条目请求
type CreateEntryRequest struct {
	CrewUserID string           `json:"crew_user_id" binding:"required"`
	EntryDate  string           `json:"entry_date" binding:"required"`
	Amount     *decimal.Decimal `json:"amount" binding:"required"`
	Notes      string           `json:"notes"`
	Status     string           `json:"status"`
}

// UpdateStatusRequest 状态变更请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// MaterializeEntriesRequest 物化订单佣金请求
type MaterializeEntriesRequest struct {
	CrewUserID string `json:"crew_user_id" binding:"required"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// GetCommissionEntries 查询佣金条目，按入账日期倒序
func (h *Handler) GetCommissionEntries(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	start, ok := h.parseTimeQuery(c, "start", false)
	if !ok {
		return
	}
	end, ok := h.parseTimeQuery(c, "end", true)
	if !ok {
		return
	}
	var payoutID uint
	if raw := strings.TrimSpace(c.Query("payout_id")); raw != "" {
		id, ok := handlershared.ParseUintParam(raw)
		if !ok {
			respondError(c, response.CodeBadRequest, "error.id_invalid", nil)
			return
		}
		payoutID = id
	}
	unbatched := false
	if raw := strings.TrimSpace(c.Query("unbatched")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		unbatched = parsed
	}

	entries, total, err := h.CommissionEntryService.ListEntries(c.Request.Context(), service.EntryListQuery{
		Page:       page,
		PageSize:   pageSize,
		CrewUserID: strings.TrimSpace(c.Query("crew_user_id")),
		Status:     c.Query("status"),
		Source:     c.Query("source"),
		PayoutID:   payoutID,
		Unbatched:  unbatched,
		DateFrom:   start,
		DateTo:     end,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, entries, response.BuildPagination(page, pageSize, total))
}

// CreateCommissionEntry 记录手工调整（可为负数）
func (h *Handler) CreateCommissionEntry(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	entryDate, ok := h.parseTimeField(c, req.EntryDate, false)
	if !ok {
		return
	}

	entry, err := h.CommissionEntryService.CreateEntry(c.Request.Context(), service.CreateEntryInput{
		CrewUserID: req.CrewUserID,
		EntryDate:  *entryDate,
		Amount:     req.Amount,
		Notes:      req.Notes,
		RecordedBy: operatorID,
		Status:     req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, entry)
}

// UpdateCommissionEntryStatus 更新条目状态
func (h *Handler) UpdateCommissionEntryStatus(c *gin.Context) {
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

	entry, err := h.CommissionEntryService.UpdateEntryStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_entry_status_updated",
		"operator_id", operatorID,
		"entry_id", id,
		"status", entry.Status,
	)
	response.Success(c, entry)
}

// MaterializeCommissionEntries 将订单佣金物化为台账条目
func (h *Handler) MaterializeCommissionEntries(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	var req MaterializeEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	start, ok := h.parseTimeField(c, req.Start, false)
	if !ok {
		return
	}
	end, ok := h.parseTimeField(c, req.End, true)
	if !ok {
		return
	}

	result, err := h.CommissionEntryService.MaterializeBookingEntries(c.Request.Context(), service.MaterializeInput{
		CrewUserID: req.CrewUserID,
		Start:      start,
		End:        end,
		RecordedBy: operatorID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
