package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/repository"

	"github.com/shopspring/decimal"
)

// RateResolver 佣金比例解析器
// 持有生效比例的内存快照，按 服务类型 -> 服务分类 -> 员工个人比例 -> 0 的顺序回退。
type RateResolver struct {
	repo repository.CommissionRateRepository

	mu          sync.RWMutex
	rates       map[string]decimal.Decimal
	loaded      bool
	refreshedAt time.Time
}

// NewRateResolver 创建佣金比例解析器
func NewRateResolver(repo repository.CommissionRateRepository) *RateResolver {
	return &RateResolver{repo: repo, rates: map[string]decimal.Decimal{}}
}

// Refresh 从存储重新加载生效比例，失败时保留旧快照
func (r *RateResolver) Refresh(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return nil
	}
	rows, err := r.repo.ListActive(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		key := normalizeRateKey(row.ServiceType)
		if key == "" {
			continue
		}
		next[key] = row.RatePercent.Decimal
	}

	r.mu.Lock()
	r.rates = next
	r.loaded = true
	r.refreshedAt = time.Now()
	r.mu.Unlock()
	return nil
}

// EnsureLoaded 首次使用前加载快照
func (r *RateResolver) EnsureLoaded(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.Refresh(ctx)
}

// Loaded 是否已有可用快照
func (r *RateResolver) Loaded() bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// RefreshedAt 最近一次刷新时间
func (r *RateResolver) RefreshedAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshedAt
}

// Resolve 解析佣金比例（百分比），永不返回错误
func (r *RateResolver) Resolve(serviceType, category string, crew *models.CrewProfile) decimal.Decimal {
	if r != nil {
		r.mu.RLock()
		rates := r.rates
		r.mu.RUnlock()
		if rate, ok := rates[normalizeRateKey(serviceType)]; ok {
			return rate
		}
		if rate, ok := rates[normalizeRateKey(category)]; ok {
			return rate
		}
	}
	if crew != nil {
		return crew.IndividualCommissionRatePercent.Decimal
	}
	return decimal.Zero
}

// Snapshot 返回当前快照副本
func (r *RateResolver) Snapshot() map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	if r == nil {
		return out
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for key, rate := range r.rates {
		out[key] = rate
	}
	return out
}

func normalizeRateKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// CalculateCommission 计算佣金：收入 × 比例 / 100，保留 2 位小数
func CalculateCommission(revenue, ratePercent decimal.Decimal) decimal.Decimal {
	return revenue.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}
