package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crewpay-next/internal/authz"
	"github.com/crewpay-next/internal/cache"
	"github.com/crewpay-next/internal/config"
	adminhandlers "github.com/crewpay-next/internal/http/handlers/admin"
	"github.com/crewpay-next/internal/http/response"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/provider"

	"github.com/gin-gonic/gin"
)

const payrollRoutePrefix = "/api/v1/admin/payroll"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cp"
	}
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:payroll_write", redisPrefix),
		WindowSeconds: cfg.Security.WriteRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WriteRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
		WritesOnly:    true,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	api := r.Group("/api/v1")
	{
		payroll := api.Group("/admin/payroll")
		payroll.Use(OperatorJWTAuthMiddleware(c.OperatorTokenService))
		payroll.Use(PayrollRBACMiddleware(c.AuthzService))
		payroll.Use(RateLimitMiddleware(cache.Client(), writeRule, KeyByOperator))
		{
			// 佣金比例
			payroll.GET("/rates", adminHandler.GetRates)
			payroll.PUT("/rates", adminHandler.UpsertRate)
			payroll.GET("/rates/resolve", adminHandler.ResolveRate)

			// 结算周期与汇总
			payroll.GET("/window", adminHandler.GetPayrollWindow)
			payroll.GET("/payroll", adminHandler.GetCrewPayroll)
			payroll.GET("/commission-summary", adminHandler.GetCommissionSummary)

			// 佣金条目
			payroll.GET("/commission-entries", adminHandler.GetCommissionEntries)
			payroll.POST("/commission-entries", adminHandler.CreateCommissionEntry)
			payroll.PATCH("/commission-entries/:id/status", adminHandler.UpdateCommissionEntryStatus)
			payroll.POST("/commission-entries/materialize", adminHandler.MaterializeCommissionEntries)

			// 结算批次
			payroll.GET("/payouts", adminHandler.GetPayouts)
			payroll.POST("/payouts", adminHandler.CreatePayout)
			payroll.GET("/payouts/:id", adminHandler.GetPayout)
			payroll.GET("/payouts/:id/audit", adminHandler.GetPayoutAudit)
			payroll.PATCH("/payouts/:id/status", adminHandler.UpdatePayoutStatus)

			// 权限目录
			payroll.GET("/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildPayrollPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status := gin.H{"status": "ok", "redis": "disabled"}
		if cache.Enabled() {
			status["redis"] = "ok"
			if err := cache.Ping(ctx); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
			}
		}
		c.JSON(200, status)
	})

	return r
}

type payrollPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildPayrollPermissionCatalog(engine *gin.Engine) []payrollPermissionCatalogItem {
	if engine == nil {
		return []payrollPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]payrollPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, payrollRoutePrefix+"/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, payrollPermissionCatalogItem{
			Module:     derivePayrollPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

// derivePayrollPermissionModule /admin/payroll/payouts/:id -> payouts
func derivePayrollPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) < 3 || segments[0] != "admin" || segments[1] != "payroll" {
		return segments[0]
	}
	return segments[2]
}
