package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/crewpay-next/internal/http/response"
	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpsertRateRequest 新增或覆盖佣金比例请求
type UpsertRateRequest struct {
	ServiceType string           `json:"service_type" binding:"required"`
	RatePercent *decimal.Decimal `json:"rate_percent" binding:"required"`
	Active      *bool            `json:"active"`
}

// RateListResponse 比例列表
type RateListResponse struct {
	Rates       []models.CommissionRate `json:"rates"`
	RefreshedAt *time.Time              `json:"refreshed_at,omitempty"`
}

// ResolvedRateResponse 比例解析结果
type ResolvedRateResponse struct {
	ServiceType string `json:"service_type"`
	Category    string `json:"category"`
	CrewUserID  string `json:"crew_user_id,omitempty"`
	RatePercent string `json:"rate_percent"`
}

// GetRates 查询佣金比例（默认仅生效项）
func (h *Handler) GetRates(c *gin.Context) {
	includeInactive := false
	if raw := strings.TrimSpace(c.Query("include_inactive")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		includeInactive = parsed
	}

	var (
		rates []models.CommissionRate
		err   error
	)
	if includeInactive {
		rates, err = h.CommissionRateService.ListRates(c.Request.Context(), true)
	} else {
		rates, err = h.CommissionRateService.ListActiveRates(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := RateListResponse{Rates: rates}
	if refreshedAt := h.RateResolver.RefreshedAt(); !refreshedAt.IsZero() {
		resp.RefreshedAt = &refreshedAt
	}
	response.Success(c, resp)
}

// UpsertRate 新增或覆盖服务类型比例
func (h *Handler) UpsertRate(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	var req UpsertRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rate, err := h.CommissionRateService.UpsertRate(c.Request.Context(), service.UpsertRateInput{
		ServiceType: req.ServiceType,
		RatePercent: *req.RatePercent,
		Active:      req.Active,
		Operator:    operatorID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_rate_upserted",
		"operator_id", operatorID,
		"service_type", rate.ServiceType,
		"rate_percent", rate.RatePercent.String(),
	)
	response.Success(c, rate)
}

// ResolveRate 预览某个服务类型/分类/员工组合最终使用的比例
func (h *Handler) ResolveRate(c *gin.Context) {
	serviceType := strings.TrimSpace(c.Query("service_type"))
	category := strings.TrimSpace(c.Query("category"))
	crewUserID := strings.TrimSpace(c.Query("crew_user_id"))

	var crew *models.CrewProfile
	if crewUserID != "" {
		profile, err := h.CrewRepo.GetByID(c.Request.Context(), crewUserID)
		if err != nil {
			respondServiceError(c, service.ErrUpstreamUnavailable)
			return
		}
		crew = profile
	}

	rate := h.RateResolver.Resolve(serviceType, category, crew)
	response.Success(c, ResolvedRateResponse{
		ServiceType: serviceType,
		Category:    category,
		CrewUserID:  crewUserID,
		RatePercent: rate.StringFixed(2),
	})
}
