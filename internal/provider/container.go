package provider

import (
	"context"
	"errors"

	"github.com/crewpay-next/internal/authz"
	"github.com/crewpay-next/internal/cache"
	"github.com/crewpay-next/internal/config"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/queue"
	"github.com/crewpay-next/internal/repository"
	"github.com/crewpay-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Policy      service.PayrollPolicy

	// Repositories
	CommissionRateRepo  repository.CommissionRateRepository
	CrewRepo            repository.CrewRepository
	BookingRepo         repository.BookingRepository
	CommissionEntryRepo repository.CommissionEntryRepository
	PayoutRepo          repository.PayoutRepository
	PayoutAuditLogRepo  repository.PayoutAuditLogRepository

	// Services
	AuthzService             *authz.Service
	OperatorTokenService     *service.OperatorTokenService
	RateResolver             *service.RateResolver
	CommissionAggregator     *service.CommissionAggregator
	CommissionRateService    *service.CommissionRateService
	CommissionEntryService   *service.CommissionEntryService
	PayoutService            *service.PayoutService
	PayoutAuditService       *service.PayoutAuditService
	CommissionSummaryService *service.CommissionSummaryService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，未启用时退化为空操作客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Policy:      service.PayrollPolicyFromConfig(cfg.Payroll),
	}

	// 1. 初始化 Repositories
	c.initRepositories(models.DB)

	// 2. 初始化 Services
	c.initServices(models.DB)

	// 3. 预加载佣金比例，失败时由后台刷新重试
	if err := c.RateResolver.Refresh(context.Background()); err != nil {
		logger.Warnw("provider_rate_snapshot_load_failed", "error", err)
	}

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.CommissionRateRepo = repository.NewCommissionRateRepository(db)
	c.CrewRepo = repository.NewCrewRepository(db)
	c.BookingRepo = repository.NewBookingRepository(db)
	c.CommissionEntryRepo = repository.NewCommissionEntryRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.PayoutAuditLogRepo = repository.NewPayoutAuditLogRepository(db)
}

func (c *Container) initServices(db *gorm.DB) {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.OperatorTokenService = service.NewOperatorTokenService(c.Config.JWT)
	c.RateResolver = service.NewRateResolver(c.CommissionRateRepo)
	c.CommissionAggregator = service.NewCommissionAggregator(c.BookingRepo, c.CrewRepo, c.CommissionEntryRepo, c.RateResolver, c.Policy)
	c.CommissionRateService = service.NewCommissionRateService(c.CommissionRateRepo, c.RateResolver, c.Policy)
	c.CommissionEntryService = service.NewCommissionEntryService(c.CommissionEntryRepo, c.CommissionAggregator, c.Policy)
	c.PayoutService = service.NewPayoutService(c.PayoutRepo, c.CommissionEntryRepo, c.QueueClient, c.Policy)
	c.PayoutAuditService = service.NewPayoutAuditService(c.PayoutAuditLogRepo, c.Policy)
	c.CommissionSummaryService = service.NewCommissionSummaryService(c.CommissionAggregator, c.Policy)
}

// Close 释放队列客户端与缓存连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
