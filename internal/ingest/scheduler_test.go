package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/danhajduk/synthia/internal/domain"
)

// blockingProvider parks the first list call until released, so tests can
// hold a cycle in flight.
type blockingProvider struct {
	started chan struct{}
	release chan struct{}
	blocked bool
}

func (b *blockingProvider) ListUnread(ctx context.Context, cutoff time.Time, pageToken string) ([]string, string, error) {
	if !b.blocked {
		b.blocked = true
		close(b.started)
		select {
		case <-b.release:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	return nil, "", nil
}

func (b *blockingProvider) GetHeaders(ctx context.Context, id string) (domain.Headers, error) {
	return domain.Headers{}, nil
}

func TestTriggerNow_RejectsConcurrentCycle(t *testing.T) {
	p := &blockingProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	e, _ := newTestEngine(t, p)
	s := NewScheduler(e, time.Hour, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := s.TriggerNow(context.Background())
		done <- err
	}()

	<-p.started

	// A second trigger while the first cycle is in flight is rejected, never
	// run in parallel.
	if _, err := s.TriggerNow(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent TriggerNow() error = %v, want ErrBusy", err)
	}
	if _, err := s.TriggerRefresh(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent TriggerRefresh() error = %v, want ErrBusy", err)
	}

	close(p.release)
	if err := <-done; err != nil {
		t.Fatalf("first TriggerNow() error: %v", err)
	}

	// Once the cycle has returned, triggers are accepted again.
	if _, err := s.TriggerNow(context.Background()); err != nil {
		t.Errorf("TriggerNow() after release error: %v", err)
	}
}

// notifyingProvider signals the first list call and serves an empty listing.
type notifyingProvider struct {
	once  chan struct{}
	fired bool
}

func (n *notifyingProvider) ListUnread(ctx context.Context, cutoff time.Time, pageToken string) ([]string, string, error) {
	if !n.fired {
		n.fired = true
		close(n.once)
	}
	return nil, "", nil
}

func (n *notifyingProvider) GetHeaders(ctx context.Context, id string) (domain.Headers, error) {
	return domain.Headers{}, nil
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	p := &notifyingProvider{once: make(chan struct{})}
	e, _ := newTestEngine(t, p)
	s := NewScheduler(e, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Run performs an immediate first cycle before ticking.
	select {
	case <-p.once:
	case <-time.After(2 * time.Second):
		t.Fatal("initial cycle never ran")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop on cancel")
	}
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	e, _ := newTestEngine(t, &fakeProvider{})
	s := NewScheduler(e, 0, zap.NewNop())
	if s.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", s.interval)
	}
}
