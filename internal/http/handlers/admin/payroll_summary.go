package admin

import (
	"strconv"
	"strings"

	"github.com/crewpay-next/internal/http/response"
	"github.com/crewpay-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetPayrollWindow 查询参考时间所在结算周期，at 为空时取当前时间
func (h *Handler) GetPayrollWindow(c *gin.Context) {
	at, ok := h.parseTimeQuery(c, "at", false)
	if !ok {
		return
	}
	response.Success(c, h.CommissionSummaryService.CurrentWindow(at))
}

// GetCommissionSummary 查询周期佣金汇总
func (h *Handler) GetCommissionSummary(c *gin.Context) {
	start, ok := h.parseTimeQuery(c, "start", false)
	if !ok {
		return
	}
	end, ok := h.parseTimeQuery(c, "end", true)
	if !ok {
		return
	}
	forceRefresh := false
	if raw := strings.TrimSpace(c.Query("force_refresh")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		forceRefresh = parsed
	}

	summary, err := h.CommissionSummaryService.Summary(c.Request.Context(), service.SummaryQuery{
		Start:        start,
		End:          end,
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if summary.Degraded {
		requestLog(c).Warnw("admin_commission_summary_degraded", "failed_sources", summary.FailedSources)
	}
	response.Success(c, summary)
}

// GetCrewPayroll 查询单个员工的周期结算明细
func (h *Handler) GetCrewPayroll(c *gin.Context) {
	crewUserID := strings.TrimSpace(c.Query("crew_user_id"))
	start, ok := h.parseTimeQuery(c, "start", false)
	if !ok {
		return
	}
	end, ok := h.parseTimeQuery(c, "end", true)
	if !ok {
		return
	}

	payroll, err := h.CommissionSummaryService.CrewPayroll(c.Request.Context(), crewUserID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, payroll)
}
