package worker

import (
	"context"
	"errors"
	"time"

	"github.com/crewpay-next/internal/config"
	"github.com/crewpay-next/internal/logger"
	"github.com/crewpay-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultRateRefreshInterval = 5 * time.Minute

// Service 异步队列服务
type Service struct {
	name            string
	server          *asynq.Server
	mux             *asynq.ServeMux
	consumer        *Consumer
	refreshInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:            "worker",
		server:          server,
		mux:             mux,
		consumer:        consumer,
		refreshInterval: rateRefreshInterval(consumer),
	}, nil
}

func rateRefreshInterval(consumer *Consumer) time.Duration {
	if consumer == nil || consumer.Container == nil || consumer.Config == nil {
		return defaultRateRefreshInterval
	}
	seconds := consumer.Config.Payroll.RateRefreshSeconds
	if seconds <= 0 {
		return defaultRateRefreshInterval
	}
	return time.Duration(seconds) * time.Second
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.RateResolver != nil {
		go s.runRateRefreshLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runRateRefreshLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	interval := s.refreshInterval
	if interval <= 0 {
		interval = defaultRateRefreshInterval
	}
	logger.Debugw("worker_rate_refresh_loop_started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.consumer.refreshRates(ctx)
		}
	}
}
