package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: ErrStatusInvalid, want: ErrorKindValidation},
		{err: ErrPayoutNotFound, want: ErrorKindNotFound},
		{err: ErrEntryAlreadyBatched, want: ErrorKindConcurrentModification},
		{err: fmt.Errorf("wrapped: %w", ErrTimeout), want: ErrorKindTimeout},
		{err: ErrUpstreamUnavailable, want: ErrorKindUpstreamUnavailable},
		{err: errors.New("plain"), want: ""},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestClassifyStoreError(t *testing.T) {
	ctx := context.Background()
	if classifyStoreError(ctx, nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if got := classifyStoreError(ctx, ErrEntryNotFound); got != ErrEntryNotFound {
		t.Fatalf("classified errors should pass through, got %v", got)
	}
	if got := classifyStoreError(ctx, errors.New("database is locked")); ErrorKind(got) != ErrorKindConcurrentModification {
		t.Fatalf("lock errors should map to concurrent modification, got %v", got)
	}
	if got := classifyStoreError(ctx, errors.New("connection refused")); ErrorKind(got) != ErrorKindUpstreamUnavailable {
		t.Fatalf("store errors should map to upstream unavailable, got %v", got)
	}

	expired, cancel := context.WithTimeout(ctx, time.Nanosecond)
	defer cancel()
	<-expired.Done()
	if got := classifyStoreError(expired, errors.New("interrupted")); ErrorKind(got) != ErrorKindTimeout {
		t.Fatalf("expired context should map to timeout, got %v", got)
	}
}

func TestErrorDetailHidesStoreText(t *testing.T) {
	if got := ErrorDetail(ErrPayoutEntryCrewMismatch); got != "entry belongs to another crew member" {
		t.Fatalf("unexpected detail: %q", got)
	}
	stored := classifyStoreError(context.Background(), errors.New("pq: relation payouts does not exist"))
	if got := ErrorDetail(stored); got != "upstream unavailable" {
		t.Fatalf("store text should not leak, got %q", got)
	}
	if got := ErrorDetail(errors.New("plain")); got != "" {
		t.Fatalf("unclassified errors have no detail, got %q", got)
	}
}
