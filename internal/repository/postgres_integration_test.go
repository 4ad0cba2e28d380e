//go:build integration

package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/crewpay-next/internal/constants"
	"github.com/crewpay-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// go test -tags integration ./internal/repository/ 需要 TEST_POSTGRES_DSN
func setupPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := models.OpenDB("postgres", dsn, "release", models.DBPoolConfig{MaxOpenConns: 4, MaxIdleConns: 2})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	tables := []string{"payout_audit_logs", "commission_entries", "payouts", "commission_rates", "crew_profiles", "bookings"}
	if err := db.Exec("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY").Error; err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresMaterializedEntriesSkipDuplicates(t *testing.T) {
	db := setupPostgresTestDB(t)
	repo := NewCommissionEntryRepository(db)
	ctx := context.Background()
	bookingID := uint(42)
	now := time.Now().UTC()

	build := func() []models.CommissionEntry {
		return []models.CommissionEntry{{
			CrewUserID: "crew-pg",
			EntryDate:  now,
			Amount:     money("12.50"),
			RecordedBy: "integration",
			Status:     constants.SettlementStatusPending,
			Source:     constants.CommissionEntrySourceBooking,
			BookingID:  &bookingID,
		}}
	}
	inserted, err := repo.CreateMaterialized(ctx, build())
	if err != nil || inserted != 1 {
		t.Fatalf("first materialize want 1 row, got %d err=%v", inserted, err)
	}
	inserted, err = repo.CreateMaterialized(ctx, build())
	if err != nil || inserted != 0 {
		t.Fatalf("second materialize want 0 rows, got %d err=%v", inserted, err)
	}
}

func TestPostgresDuplicateAuditKeyIsDetected(t *testing.T) {
	db := setupPostgresTestDB(t)
	repo := NewPayoutAuditLogRepository(db)
	ctx := context.Background()
	row := func() *models.PayoutAuditLog {
		return &models.PayoutAuditLog{
			EventKey:   "1:released:1",
			PayoutID:   1,
			ToStatus:   constants.SettlementStatusReleased,
			OccurredAt: time.Now().UTC(),
		}
	}

	created, err := repo.Create(ctx, row())
	if err != nil || !created {
		t.Fatalf("first audit create failed: created=%v err=%v", created, err)
	}
	created, err = repo.Create(ctx, row())
	if err != nil || created {
		t.Fatalf("duplicate audit should be skipped: created=%v err=%v", created, err)
	}

	err = db.WithContext(ctx).Create(row()).Error
	if !IsDuplicateError(err) {
		t.Fatalf("raw duplicate insert should be a duplicate error, got %v", err)
	}
}

func TestPostgresLockContentionIsConflict(t *testing.T) {
	db := setupPostgresTestDB(t)
	payouts := NewPayoutRepository(db)
	ctx := context.Background()

	payout := &models.Payout{
		CrewUserID:  "crew-pg",
		PeriodStart: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 10, 11, 23, 59, 59, 0, time.UTC),
		TotalAmount: money("99.00"),
		Status:      constants.SettlementStatusApproved,
		CreatedBy:   "integration",
	}
	if err := payouts.Create(ctx, payout); err != nil {
		t.Fatalf("create payout failed: %v", err)
	}

	holder := db.Begin()
	defer holder.Rollback()
	if _, err := payouts.WithTx(holder).GetByIDForUpdate(ctx, payout.ID); err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	contender := db.Begin()
	defer contender.Rollback()
	var locked models.Payout
	err := contender.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&locked, payout.ID).Error
	if !IsConflictError(err) {
		t.Fatalf("NOWAIT on a locked row should be a conflict, got %v", err)
	}
	if IsConflictError(fmt.Errorf("plain failure")) {
		t.Fatalf("plain errors are not conflicts")
	}
}
