package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/models"
	"github.com/crewpay-next/internal/queue"
	"github.com/crewpay-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var errStoreDown = errors.New("store down")

type payrollTestEnv struct {
	db         *gorm.DB
	policy     PayrollPolicy
	rateRepo   *repository.GormCommissionRateRepository
	crewRepo   *repository.GormCrewRepository
	bookRepo   *repository.GormBookingRepository
	entryRepo  *repository.GormCommissionEntryRepository
	payoutRepo *repository.GormPayoutRepository
	resolver   *RateResolver
	aggregator *CommissionAggregator
	rates      *CommissionRateService
	entries    *CommissionEntryService
	payouts    *PayoutService
	summary    *CommissionSummaryService
}

func openPayrollTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 内存库只保留一个连接，事务天然串行
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setupPayrollServiceTest(t *testing.T, name string) *payrollTestEnv {
	t.Helper()
	return setupPayrollServiceTestWithPolicy(t, name, DefaultPayrollPolicy())
}

func setupPayrollServiceTestWithPolicy(t *testing.T, name string, policy PayrollPolicy) *payrollTestEnv {
	t.Helper()
	db := openPayrollTestDB(t, name)
	env := &payrollTestEnv{
		db:         db,
		policy:     policy,
		rateRepo:   repository.NewCommissionRateRepository(db),
		crewRepo:   repository.NewCrewRepository(db),
		bookRepo:   repository.NewBookingRepository(db),
		entryRepo:  repository.NewCommissionEntryRepository(db),
		payoutRepo: repository.NewPayoutRepository(db),
	}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	env.resolver = NewRateResolver(env.rateRepo)
	env.aggregator = NewCommissionAggregator(env.bookRepo, env.crewRepo, env.entryRepo, env.resolver, policy)
	env.rates = NewCommissionRateService(env.rateRepo, env.resolver, policy)
	env.entries = NewCommissionEntryService(env.entryRepo, env.aggregator, policy)
	env.payouts = NewPayoutService(env.payoutRepo, env.entryRepo, queueClient, policy)
	env.summary = NewCommissionSummaryService(env.aggregator, policy)
	return env
}

func dec(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func decPtr(raw string) *decimal.Decimal {
	d := dec(raw)
	return &d
}

func createTestRate(t *testing.T, env *payrollTestEnv, serviceType, rate string) {
	t.Helper()
	if _, err := env.rates.UpsertRate(context.Background(), UpsertRateInput{
		ServiceType: serviceType,
		RatePercent: dec(rate),
		Operator:    "op-test",
	}); err != nil {
		t.Fatalf("upsert rate %s failed: %v", serviceType, err)
	}
}

func createTestCrew(t *testing.T, env *payrollTestEnv, crewID, name, individualRate string) {
	t.Helper()
	profile := &models.CrewProfile{
		CrewUserID:                      crewID,
		DisplayName:                     name,
		IndividualCommissionRatePercent: models.NewMoneyFromDecimal(dec(individualRate)),
	}
	if err := env.db.Create(profile).Error; err != nil {
		t.Fatalf("create crew failed: %v", err)
	}
}

func createTestBooking(t *testing.T, env *payrollTestEnv, serviceType, category, revenue string, completedAt time.Time, crewJSON string) *models.CompletedBooking {
	t.Helper()
	at := completedAt.UTC()
	booking := &models.CompletedBooking{
		ServiceType:     serviceType,
		Category:        category,
		TotalRevenue:    models.NewMoneyFromDecimal(dec(revenue)),
		Status:          constants.BookingStatusCompleted,
		CompletedAt:     &at,
		AssignedCrewIDs: datatypes.JSON(crewJSON),
	}
	if err := env.db.Create(booking).Error; err != nil {
		t.Fatalf("create booking failed: %v", err)
	}
	return booking
}

func createTestEntry(t *testing.T, env *payrollTestEnv, crewID, amount, status string, entryDate time.Time) *models.CommissionEntry {
	t.Helper()
	entry, err := env.entries.CreateEntry(context.Background(), CreateEntryInput{
		CrewUserID: crewID,
		EntryDate:  entryDate,
		Amount:     decPtr(amount),
		RecordedBy: "op-test",
		Status:     status,
	})
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}
	return entry
}

func mustGetEntry(t *testing.T, env *payrollTestEnv, id uint) *models.CommissionEntry {
	t.Helper()
	entry, err := env.entryRepo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get entry failed: %v", err)
	}
	if entry == nil {
		t.Fatalf("entry %d not found", id)
	}
	return entry
}

// 2026-10-11 是周日
var testWindowStart = time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)

func inTestWindow(offset time.Duration) time.Time {
	return testWindowStart.Add(offset)
}

type failingBookingRepo struct{}

func (failingBookingRepo) ListCompleted(context.Context, time.Time, time.Time) ([]models.CompletedBooking, error) {
	return nil, errStoreDown
}

type failingCrewRepo struct{}

func (failingCrewRepo) GetByID(context.Context, string) (*models.CrewProfile, error) {
	return nil, errStoreDown
}

func (failingCrewRepo) List(context.Context) ([]models.CrewProfile, error) {
	return nil, errStoreDown
}

type failingRateRepo struct {
	repository.CommissionRateRepository
}

func (failingRateRepo) ListActive(context.Context) ([]models.CommissionRate, error) {
	return nil, errStoreDown
}

type failingEntryRepo struct {
	repository.CommissionEntryRepository
}

func (failingEntryRepo) ListActiveManual(context.Context, time.Time, time.Time, string) ([]models.CommissionEntry, error) {
	return nil, errStoreDown
}

// blockingEntryRepo 写入时阻塞直到上下文结束
type blockingEntryRepo struct {
	repository.CommissionEntryRepository
}

func (blockingEntryRepo) Create(ctx context.Context, _ *models.CommissionEntry) error {
	<-ctx.Done()
	return ctx.Err()
}

// staleReadEntryRepo 加锁读取时总是返回未归属批次的快照，用于验证 CAS 更新
type staleReadEntryRepo struct {
	repository.CommissionEntryRepository
}

func (r staleReadEntryRepo) WithTx(tx *gorm.DB) repository.CommissionEntryRepository {
	return staleReadEntryRepo{CommissionEntryRepository: r.CommissionEntryRepository.WithTx(tx)}
}

func (r staleReadEntryRepo) ListByIDsForUpdate(ctx context.Context, ids []uint) ([]models.CommissionEntry, error) {
	rows, err := r.CommissionEntryRepository.ListByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].PayoutID = nil
	}
	return rows, nil
}
