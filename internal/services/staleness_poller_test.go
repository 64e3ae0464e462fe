package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) RefreshIfNewer(context.Context) bool {
	c.calls.Add(1)
	return false
}

// blockingRefresher holds the first refresh until release is closed.
type blockingRefresher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingRefresher) RefreshIfNewer(context.Context) bool {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return false
}

func TestNewStalenessPollerDefaultInterval(t *testing.T) {
	p := NewStalenessPoller(&countingRefresher{}, 0)
	if p.interval != DefaultPollInterval {
		t.Errorf("expected interval %v, got %v", DefaultPollInterval, p.interval)
	}
	if p.IsRunning() {
		t.Error("poller should not be running initially")
	}
}

func TestStalenessPoller_StartTwice(t *testing.T) {
	p := NewStalenessPoller(&countingRefresher{}, time.Hour)
	ctx := context.Background()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("first start: %v", err)
	}
	defer p.Stop(ctx)

	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running poller")
	}
}

func TestStalenessPoller_StopNotRunning(t *testing.T) {
	p := NewStalenessPoller(&countingRefresher{}, time.Hour)
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("stop on idle poller: %v", err)
	}
}

func TestStalenessPoller_Polls(t *testing.T) {
	target := &countingRefresher{}
	p := NewStalenessPoller(target, 10*time.Millisecond)
	ctx := context.Background()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := target.calls.Load(); got < 2 {
		t.Errorf("expected at least 2 refreshes, got %d", got)
	}
	if p.IsRunning() {
		t.Error("poller should not be running after stop")
	}
}

func TestStalenessPoller_StopAfterTimeout(t *testing.T) {
	target := &blockingRefresher{entered: make(chan struct{}), release: make(chan struct{})}
	p := NewStalenessPoller(target, time.Millisecond)
	ctx := context.Background()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-target.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never ran")
	}

	expired, cancel := context.WithCancel(ctx)
	cancel()
	if err := p.Stop(expired); !errors.Is(err, context.Canceled) {
		t.Fatalf("first stop: expected context.Canceled, got %v", err)
	}
	if err := p.Stop(expired); !errors.Is(err, context.Canceled) {
		t.Fatalf("second stop: expected context.Canceled, got %v", err)
	}
	if !p.IsRunning() {
		t.Error("poller should still count as running while the loop is busy")
	}

	close(target.release)
	stopCtx, stopCancel := context.WithTimeout(ctx, 2*time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("final stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("poller should not be running after stop")
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop after restart: %v", err)
	}
}
