package service

import (
	"context"
	"testing"
	"time"

	"github.com/crewpay-next/internal/constants"
)

func testWindowInput() AggregateInput {
	window := PayrollWindowFor(testWindowStart, time.UTC)
	return AggregateInput{Start: window.Start, End: window.End}
}

func TestAggregateDoubleAttribution(t *testing.T) {
	env := setupPayrollServiceTest(t, "aggregate_double")
	createTestRate(t, env, "full detail", "10")
	createTestCrew(t, env, "c1", "Alex", "0")
	createTestCrew(t, env, "c2", "Blair", "0")
	createTestBooking(t, env, "Full Detail", "", "300", inTestWindow(30*time.Hour), `["c1","c2"]`)

	result, err := env.aggregator.Aggregate(context.Background(), testWindowInput())
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if result.TotalBookings != 1 || result.TotalRevenue.String() != "300.00" {
		t.Fatalf("org totals should count the booking once, got %d / %s", result.TotalBookings, result.TotalRevenue.String())
	}
	if result.TotalCommission.String() != "60.00" {
		t.Fatalf("expected total commission 60.00, got %s", result.TotalCommission.String())
	}
	if len(result.Crew) != 2 {
		t.Fatalf("expected two crew buckets, got %d", len(result.Crew))
	}
	for _, bucket := range result.Crew {
		if bucket.TotalRevenue.String() != "300.00" || bucket.TotalCommission.String() != "30.00" || bucket.TotalBookings != 1 {
			t.Fatalf("each crew member should receive full attribution, got %+v", bucket)
		}
	}
	if result.Crew[0].CrewID != "c1" || result.Crew[0].CrewName != "Alex" {
		t.Fatalf("equal commissions should tie-break by crew id, got %+v", result.Crew)
	}
	if len(result.Services) != 1 || result.Services[0].ServiceType != "full detail" || result.Services[0].BookingCount != 1 {
		t.Fatalf("unexpected service buckets: %+v", result.Services)
	}
	if result.Services[0].TotalCommission.String() != "60.00" {
		t.Fatalf("service commission should sum per attribution, got %s", result.Services[0].TotalCommission.String())
	}
}

func TestAggregateManualEntriesAndDisputedExcluded(t *testing.T) {
	env := setupPayrollServiceTest(t, "aggregate_manual")
	createTestRate(t, env, "wash", "10")
	createTestBooking(t, env, "wash", "", "100", inTestWindow(2*time.Hour), `["c1"]`)
	createTestEntry(t, env, "c1", "15", constants.SettlementStatusApproved, inTestWindow(3*time.Hour))
	createTestEntry(t, env, "c1", "-5", constants.SettlementStatusPending, inTestWindow(4*time.Hour))
	createTestEntry(t, env, "c1", "99", constants.SettlementStatusDisputed, inTestWindow(5*time.Hour))
	createTestEntry(t, env, "c2", "40", constants.SettlementStatusApproved, inTestWindow(6*time.Hour))
	createTestEntry(t, env, "c1", "70", constants.SettlementStatusApproved, inTestWindow(-time.Hour))

	result, err := env.aggregator.Aggregate(context.Background(), testWindowInput())
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if result.TotalRevenue.String() != "100.00" {
		t.Fatalf("manual entries must not change revenue, got %s", result.TotalRevenue.String())
	}
	if result.TotalCommission.String() != "60.00" {
		t.Fatalf("expected 10 + 15 - 5 + 40 = 60.00, got %s", result.TotalCommission.String())
	}
	if len(result.Crew) != 2 || result.Crew[0].CrewID != "c2" {
		t.Fatalf("crew should be sorted by commission desc, got %+v", result.Crew)
	}
	c1 := result.Crew[1]
	if c1.BookingCommission.String() != "10.00" || c1.ManualCommission.String() != "10.00" || c1.ManualEntryCount != 2 {
		t.Fatalf("unexpected c1 bucket: %+v", c1)
	}
	if c2 := result.Crew[0]; c2.TotalBookings != 0 || c2.TotalRevenue.String() != "0.00" {
		t.Fatalf("manual-only crew should have no bookings, got %+v", c2)
	}
}

func TestAggregateUnattributedBookings(t *testing.T) {
	env := setupPayrollServiceTest(t, "aggregate_unattributed")
	createTestRate(t, env, "wash", "10")
	createTestBooking(t, env, "wash", "", "100", inTestWindow(time.Hour), `["c1"]`)
	createTestBooking(t, env, "wash", "", "80", inTestWindow(2*time.Hour), `[]`)
	createTestBooking(t, env, "wash", "", "50", inTestWindow(3*time.Hour), `not-json`)

	input := testWindowInput()
	attributed, err := env.aggregator.Aggregate(context.Background(), input)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if attributed.TotalBookings != 1 || attributed.TotalRevenue.String() != "100.00" {
		t.Fatalf("unexpected attributed totals: %d / %s", attributed.TotalBookings, attributed.TotalRevenue.String())
	}

	input.IncludeUnattributed = true
	all, err := env.aggregator.Aggregate(context.Background(), input)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if all.TotalBookings != 3 || all.TotalRevenue.String() != "230.00" {
		t.Fatalf("unexpected all-bookings totals: %d / %s", all.TotalBookings, all.TotalRevenue.String())
	}
	if all.TotalCommission.String() != "10.00" {
		t.Fatalf("unattributed bookings earn no commission, got %s", all.TotalCommission.String())
	}
}

func TestAggregateCrewFilterWithLines(t *testing.T) {
	env := setupPayrollServiceTest(t, "aggregate_filter")
	createTestRate(t, env, "wash", "10")
	createTestCrew(t, env, "c2", "Blair", "7")
	booking := createTestBooking(t, env, "wash", "", "200", inTestWindow(time.Hour), `["c1","c2"]`)
	createTestBooking(t, env, "polish", "", "50", inTestWindow(2*time.Hour), `["c2"]`)
	createTestBooking(t, env, "wash", "", "90", inTestWindow(3*time.Hour), `["c1"]`)

	input := testWindowInput()
	input.CrewUserID = "c2"
	input.WithLines = true
	result, err := env.aggregator.Aggregate(context.Background(), input)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if result.TotalBookings != 2 || result.TotalRevenue.String() != "250.00" {
		t.Fatalf("unexpected filtered totals: %d / %s", result.TotalBookings, result.TotalRevenue.String())
	}
	if len(result.Crew) != 1 || result.Crew[0].CrewID != "c2" {
		t.Fatalf("only the filtered crew should be present, got %+v", result.Crew)
	}
	// wash 20.00 + polish 按个人比例 7% = 3.50
	if result.Crew[0].TotalCommission.String() != "23.50" {
		t.Fatalf("expected 23.50, got %s", result.Crew[0].TotalCommission.String())
	}
	if len(result.Lines) != 2 || result.Lines[0].BookingID != booking.ID || result.Lines[0].CrewID != "c2" {
		t.Fatalf("unexpected lines: %+v", result.Lines)
	}
}

func TestAggregateRejectsInvertedPeriod(t *testing.T) {
	env := setupPayrollServiceTest(t, "aggregate_inverted")
	input := testWindowInput()
	input.Start, input.End = input.End, input.Start
	if _, err := env.aggregator.Aggregate(context.Background(), input); err != ErrPeriodInvalid {
		t.Fatalf("expected period error, got %v", err)
	}
}

func TestAggregateReportsFailedSources(t *testing.T) {
	env := setupPayrollServiceTest(t, "aggregate_failed")
	aggregator := NewCommissionAggregator(failingBookingRepo{}, env.crewRepo, failingEntryRepo{CommissionEntryRepository: env.entryRepo}, env.resolver, env.policy)

	_, err := aggregator.Aggregate(context.Background(), testWindowInput())
	sourceErr, ok := asAggregateSourceError(err)
	if !ok {
		t.Fatalf("expected aggregate source error, got %v", err)
	}
	if len(sourceErr.Failed) != 2 || sourceErr.Failed[0] != aggregateSourceBookings || sourceErr.Failed[1] != aggregateSourceEntries {
		t.Fatalf("unexpected failed sources: %+v", sourceErr.Failed)
	}
	if sourceErr.AllSourcesFailed() {
		t.Fatalf("partial failure must not be reported as total failure")
	}
	if ErrorKind(sourceErr.Err) != ErrorKindUpstreamUnavailable {
		t.Fatalf("expected upstream kind, got %q", ErrorKind(sourceErr.Err))
	}
}
