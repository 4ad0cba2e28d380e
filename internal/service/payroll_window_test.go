package service

import (
	"testing"
	"time"
)

func TestPayrollWindowForMidweek(t *testing.T) {
	wednesday := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)
	window := PayrollWindowFor(wednesday, time.UTC)

	wantStart := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 10, 16, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	wantPayout := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	if !window.Start.Equal(wantStart) || !window.End.Equal(wantEnd) || !window.PayoutDate.Equal(wantPayout) {
		t.Fatalf("unexpected window: %+v", window)
	}
	if !window.Contains(wednesday) {
		t.Fatalf("window should contain its reference")
	}
}

func TestPayrollWindowIsDeterministicAcrossTheWeek(t *testing.T) {
	base := PayrollWindowFor(time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), time.UTC)
	for day := 0; day <= 5; day++ {
		reference := base.Start.Add(time.Duration(day)*24*time.Hour + 13*time.Hour)
		got := PayrollWindowFor(reference, time.UTC)
		if got != base {
			t.Fatalf("day %d: expected %+v, got %+v", day, base, got)
		}
	}
	if got := PayrollWindowFor(base.End, time.UTC); got != base {
		t.Fatalf("window end should map to the same window, got %+v", got)
	}
}

func TestPayrollWindowSaturdayFallsOutsideWindow(t *testing.T) {
	saturday := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	window := PayrollWindowFor(saturday, time.UTC)
	if window.Start.Weekday() != time.Sunday || window.Start.Day() != 11 {
		t.Fatalf("saturday should resolve to the window started the previous sunday, got %+v", window)
	}
	if window.Contains(saturday) {
		t.Fatalf("saturday is payout day and must not be inside the window")
	}
}

func TestPayrollWindowCrossesMonthBoundary(t *testing.T) {
	thursday := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	window := PayrollWindowFor(thursday, time.UTC)
	if window.Start.Month() != time.September || window.Start.Day() != 27 {
		t.Fatalf("expected start 2026-09-27, got %s", window.Start)
	}
	if window.End.Day() != 2 || window.PayoutDate.Day() != 3 {
		t.Fatalf("unexpected end or payout date: %+v", window)
	}
}

func TestPayrollWindowUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	// 周六 20:00 UTC 在 UTC+8 已是周日 04:00
	reference := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	window := PayrollWindowFor(reference, loc)
	if window.Start.Location() != loc {
		t.Fatalf("window should be expressed in the configured location")
	}
	if window.Start.Day() != 18 || window.Start.Weekday() != time.Sunday {
		t.Fatalf("expected window starting 2026-10-18 local, got %s", window.Start)
	}
}

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	current := PayrollWindowFor(now, time.UTC)

	start, end, err := resolvePeriod(nil, nil, now, time.UTC)
	if err != nil || !start.Equal(current.Start) || !end.Equal(current.End) {
		t.Fatalf("expected current window, got %s %s %v", start, end, err)
	}

	only := time.Date(2026, 10, 12, 6, 0, 0, 0, time.UTC)
	start, end, err = resolvePeriod(&only, nil, now, time.UTC)
	if err != nil || !start.Equal(only) || !end.Equal(current.End) {
		t.Fatalf("expected open end to close at window end, got %s %s %v", start, end, err)
	}

	start, end, err = resolvePeriod(nil, &only, now, time.UTC)
	if err != nil || !start.Equal(current.Start) || !end.Equal(only) {
		t.Fatalf("expected open start to begin at window start, got %s %s %v", start, end, err)
	}

	saturday := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	next := PayrollWindowFor(saturday.AddDate(0, 0, 1), time.UTC)
	start, end, err = resolvePeriod(&saturday, nil, now, time.UTC)
	if err != nil || !start.Equal(saturday) || !end.Equal(next.End) {
		t.Fatalf("saturday start should close at the next window end, got %s %s %v", start, end, err)
	}
	if end.Weekday() != time.Friday || end.Day() != 23 {
		t.Fatalf("expected friday 2026-10-23, got %s", end)
	}

	later := only.Add(time.Hour)
	if _, _, err := resolvePeriod(&later, &only, now, time.UTC); err != ErrPeriodInvalid {
		t.Fatalf("expected period error, got %v", err)
	}
}
