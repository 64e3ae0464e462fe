package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	applog "surveystock/internal/log"
)

const DefaultPollInterval = 5 * time.Second

// Refresher adopts newer stored state when there is any.
type Refresher interface {
	RefreshIfNewer(ctx context.Context) bool
}

// StalenessPoller periodically picks up state saved by another writer.
type StalenessPoller struct {
	target   Refresher
	interval time.Duration

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewStalenessPoller(target Refresher, interval time.Duration) *StalenessPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &StalenessPoller{
		target:   target,
		interval: interval,
	}
}

// Start begins polling. Returns an error if already running.
func (p *StalenessPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("staleness poller is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Staleness poller started",
		applog.FieldComponent, applog.ComponentPoller,
		"interval", p.interval)
	return nil
}

// Stop halts polling and waits for the loop to exit. After a timeout the
// poller still counts as running; calling Stop again resumes the wait.
func (p *StalenessPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.stopCh = nil
	p.mu.Unlock()

	// nil once an earlier Stop has signalled the loop.
	if stopCh != nil {
		close(stopCh)
	}

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Staleness poller stopped",
			applog.FieldComponent, applog.ComponentPoller)
	case <-ctx.Done():
		slog.WarnContext(ctx, "Staleness poller stop timed out",
			applog.FieldComponent, applog.ComponentPoller)
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *StalenessPoller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *StalenessPoller) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.target.RefreshIfNewer(ctx)
		}
	}
}
