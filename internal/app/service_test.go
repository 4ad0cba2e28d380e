package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	stopErr  error
	block    bool

	mu      *sync.Mutex
	stopped *[]string
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(context.Context) error {
	s.mu.Lock()
	*s.stopped = append(*s.stopped, s.name)
	s.mu.Unlock()
	return s.stopErr
}

func TestRunnerStopsInReverseOrderOnFailure(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	boom := errors.New("listen failed")
	runner := NewRunner(
		&fakeService{name: "http", startErr: boom, mu: &mu, stopped: &stopped},
		&fakeService{name: "worker", block: true, mu: &mu, stopped: &stopped},
	)

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("run error want %v got %v", boom, err)
	}
	if len(stopped) != 2 || stopped[0] != "worker" || stopped[1] != "http" {
		t.Fatalf("stop order want [worker http] got %v", stopped)
	}
}

func TestRunnerCancelIsClean(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	runner := NewRunner(&fakeService{name: "worker", block: true, mu: &mu, stopped: &stopped})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
}

func TestRunnerReportsStopErrors(t *testing.T) {
	var mu sync.Mutex
	var stopped []string
	stopErr := errors.New("shutdown timeout")
	runner := NewRunner(&fakeService{name: "http", stopErr: stopErr, mu: &mu, stopped: &stopped})

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, stopErr) {
		t.Fatalf("stop error should surface, got %v", err)
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts := normalizeOptions(Options{Mode: " API "})
	if opts.Mode != ModeAPI {
		t.Fatalf("mode want api got %q", opts.Mode)
	}
	if opts.ShutdownTimeout != 10*time.Second {
		t.Fatalf("default shutdown timeout want 10s got %s", opts.ShutdownTimeout)
	}
	if opts.Logger == nil {
		t.Fatalf("logger should default")
	}
	if isKnownMode("cron") {
		t.Fatalf("cron is not a run mode")
	}
}

func TestRunnerCloseRunsInReverse(t *testing.T) {
	var order []string
	closeErr := errors.New("queue close failed")
	runner := NewRunner()
	runner.OnClose(func() error { order = append(order, "cache"); return nil })
	runner.OnClose(func() error { order = append(order, "queue"); return closeErr })
	runner.OnClose(nil)

	if err := runner.Close(); !errors.Is(err, closeErr) {
		t.Fatalf("close error should surface, got %v", err)
	}
	if len(order) != 2 || order[0] != "queue" || order[1] != "cache" {
		t.Fatalf("closers should run in reverse, got %v", order)
	}
	if err := runner.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}
