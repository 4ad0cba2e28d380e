package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crewpay-next/internal/constants"
)

func TestCreateEntryDefaultsToPending(t *testing.T) {
	env := setupPayrollServiceTest(t, "entry_default_status")
	ctx := context.Background()

	for _, raw := range []string{"", "unknown"} {
		entry, err := env.entries.CreateEntry(ctx, CreateEntryInput{
			CrewUserID: "c1",
			EntryDate:  inTestWindow(time.Hour),
			Amount:     decPtr("-12.50"),
			Notes:      " damaged mirror ",
			RecordedBy: "op-1",
			Status:     raw,
		})
		if err != nil {
			t.Fatalf("create entry failed: %v", err)
		}
		if entry.Status != constants.SettlementStatusPending {
			t.Fatalf("status %q should fall back to pending, got %s", raw, entry.Status)
		}
		if entry.Source != constants.CommissionEntrySourceManual || entry.Notes != "damaged mirror" {
			t.Fatalf("unexpected entry: %+v", entry)
		}
		stored := mustGetEntry(t, env, entry.ID)
		if stored.Amount.String() != "-12.50" {
			t.Fatalf("negative amounts should be preserved, got %s", stored.Amount.String())
		}
	}

	entry, err := env.entries.CreateEntry(ctx, CreateEntryInput{
		CrewUserID: "c1",
		EntryDate:  inTestWindow(time.Hour),
		Amount:     decPtr("5"),
		RecordedBy: "op-1",
		Status:     "APPROVED",
	})
	if err != nil {
		t.Fatalf("create entry failed: %v", err)
	}
	if entry.Status != constants.SettlementStatusApproved {
		t.Fatalf("status should be case-insensitive, got %s", entry.Status)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	env := setupPayrollServiceTest(t, "entry_validation")
	ctx := context.Background()
	base := CreateEntryInput{CrewUserID: "c1", EntryDate: inTestWindow(time.Hour), Amount: decPtr("1"), RecordedBy: "op"}

	cases := []struct {
		name   string
		mutate func(in *CreateEntryInput)
		want   error
	}{
		{name: "crew", mutate: func(in *CreateEntryInput) { in.CrewUserID = " " }, want: ErrCrewUserIDRequired},
		{name: "amount", mutate: func(in *CreateEntryInput) { in.Amount = nil }, want: ErrAmountInvalid},
		{name: "date", mutate: func(in *CreateEntryInput) { in.EntryDate = time.Time{} }, want: ErrEntryDateRequired},
		{name: "operator", mutate: func(in *CreateEntryInput) { in.RecordedBy = "" }, want: ErrOperatorRequired},
	}
	for _, tc := range cases {
		input := base
		tc.mutate(&input)
		_, err := env.entries.CreateEntry(ctx, input)
		if err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if ErrorKind(err) != ErrorKindValidation {
			t.Fatalf("%s: expected validation kind, got %q", tc.name, ErrorKind(err))
		}
	}
}

func TestUpdateEntryStatusIdempotent(t *testing.T) {
	env := setupPayrollServiceTest(t, "entry_status_idempotent")
	ctx := context.Background()
	entry := createTestEntry(t, env, "c1", "10", constants.SettlementStatusPending, inTestWindow(time.Hour))

	first, err := env.entries.UpdateEntryStatus(ctx, entry.ID, "approved")
	if err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	firstStored := mustGetEntry(t, env, entry.ID)

	second, err := env.entries.UpdateEntryStatus(ctx, entry.ID, "Approved")
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	secondStored := mustGetEntry(t, env, entry.ID)

	if first.Status != constants.SettlementStatusApproved || second.Status != constants.SettlementStatusApproved {
		t.Fatalf("unexpected statuses: %s / %s", first.Status, second.Status)
	}
	if !firstStored.UpdatedAt.Equal(secondStored.UpdatedAt) {
		t.Fatalf("repeating the same status should not write, updated_at %s -> %s", firstStored.UpdatedAt, secondStored.UpdatedAt)
	}
}

func TestUpdateEntryStatusErrors(t *testing.T) {
	env := setupPayrollServiceTest(t, "entry_status_errors")
	ctx := context.Background()
	entry := createTestEntry(t, env, "c1", "10", constants.SettlementStatusPending, inTestWindow(time.Hour))

	if _, err := env.entries.UpdateEntryStatus(ctx, entry.ID, "paid"); err != ErrStatusInvalid {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, err := env.entries.UpdateEntryStatus(ctx, 9999, "approved"); err != ErrEntryNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if ErrorKind(ErrEntryNotFound) != ErrorKindNotFound {
		t.Fatalf("unexpected kind for not found")
	}
}

func TestUpdateEntryStatusUnreleaseForbidden(t *testing.T) {
	policy := DefaultPayrollPolicy()
	policy.AllowUnrelease = false
	env := setupPayrollServiceTestWithPolicy(t, "entry_unrelease", policy)
	ctx := context.Background()
	entry := createTestEntry(t, env, "c1", "10", constants.SettlementStatusReleased, inTestWindow(time.Hour))

	if _, err := env.entries.UpdateEntryStatus(ctx, entry.ID, "pending"); err != ErrStatusTransitionForbidden {
		t.Fatalf("expected transition error, got %v", err)
	}
	if _, err := env.entries.UpdateEntryStatus(ctx, entry.ID, "released"); err != nil {
		t.Fatalf("same status should stay idempotent, got %v", err)
	}
}

func TestListEntriesOrderAndFilters(t *testing.T) {
	env := setupPayrollServiceTest(t, "entry_list")
	ctx := context.Background()
	older := createTestEntry(t, env, "c1", "1", constants.SettlementStatusPending, inTestWindow(time.Hour))
	newer := createTestEntry(t, env, "c1", "2", constants.SettlementStatusApproved, inTestWindow(5*time.Hour))
	sameDay := createTestEntry(t, env, "c1", "3", constants.SettlementStatusApproved, inTestWindow(5*time.Hour))
	createTestEntry(t, env, "c2", "4", constants.SettlementStatusApproved, inTestWindow(6*time.Hour))

	rows, total, err := env.entries.ListEntries(ctx, EntryListQuery{CrewUserID: "c1"})
	if err != nil {
		t.Fatalf("list entries failed: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("expected 3 entries, got %d / %d", total, len(rows))
	}
	if rows[0].ID != sameDay.ID || rows[1].ID != newer.ID || rows[2].ID != older.ID {
		t.Fatalf("unexpected order: %d %d %d", rows[0].ID, rows[1].ID, rows[2].ID)
	}

	approved, total, err := env.entries.ListEntries(ctx, EntryListQuery{Status: "APPROVED"})
	if err != nil {
		t.Fatalf("list approved failed: %v", err)
	}
	if total != 3 || len(approved) != 3 {
		t.Fatalf("expected 3 approved entries, got %d", total)
	}

	if _, _, err := env.entries.ListEntries(ctx, EntryListQuery{Status: "bogus"}); err != ErrStatusInvalid {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestCreateEntryTimeout(t *testing.T) {
	env := setupPayrollServiceTest(t, "entry_timeout")
	policy := env.policy
	policy.QueryTimeout = 20 * time.Millisecond
	svc := NewCommissionEntryService(blockingEntryRepo{CommissionEntryRepository: env.entryRepo}, env.aggregator, policy)

	_, err := svc.CreateEntry(context.Background(), CreateEntryInput{
		CrewUserID: "c1",
		EntryDate:  inTestWindow(time.Hour),
		Amount:     decPtr("1"),
		RecordedBy: "op",
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if ErrorKind(err) != ErrorKindTimeout {
		t.Fatalf("unexpected kind %q", ErrorKind(err))
	}
}

func TestMaterializeBookingEntriesIsIdempotent(t *testing.T) {
	env := setupPayrollServiceTest(t, "entry_materialize")
	ctx := context.Background()
	createTestRate(t, env, "wash", "10")
	createTestBooking(t, env, "wash", "", "100", inTestWindow(time.Hour), `["c1","c2"]`)
	createTestBooking(t, env, "wash", "", "40", inTestWindow(2*time.Hour), `["c1"]`)
	createTestEntry(t, env, "c1", "7", constants.SettlementStatusApproved, inTestWindow(3*time.Hour))

	start := testWindowStart
	end := PayrollWindowFor(testWindowStart, time.UTC).End
	input := MaterializeInput{CrewUserID: "c1", Start: &start, End: &end, RecordedBy: "op"}

	first, err := env.entries.MaterializeBookingEntries(ctx, input)
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	if first.Candidates != 2 || first.Created != 2 {
		t.Fatalf("unexpected first result: %+v", first)
	}
	second, err := env.entries.MaterializeBookingEntries(ctx, input)
	if err != nil {
		t.Fatalf("second materialize failed: %v", err)
	}
	if second.Candidates != 2 || second.Created != 0 {
		t.Fatalf("second run should create nothing, got %+v", second)
	}

	rows, _, err := env.entries.ListEntries(ctx, EntryListQuery{CrewUserID: "c1", Source: constants.CommissionEntrySourceBooking})
	if err != nil {
		t.Fatalf("list materialized failed: %v", err)
	}
	if len(rows) != 2 || rows[0].Amount.String() != "4.00" || rows[1].Amount.String() != "10.00" {
		t.Fatalf("unexpected materialized rows: %+v", rows)
	}

	// 物化条目不重复计入汇总
	payroll, err := env.summary.CrewPayroll(ctx, "c1", &start, &end)
	if err != nil {
		t.Fatalf("crew payroll failed: %v", err)
	}
	if payroll.TotalCommission.String() != "21.00" {
		t.Fatalf("expected 10 + 4 + 7 = 21.00, got %s", payroll.TotalCommission.String())
	}
}
