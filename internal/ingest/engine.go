package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danhajduk/synthia/internal/domain"
	"github.com/danhajduk/synthia/internal/provider"
	"github.com/danhajduk/synthia/internal/store"
)

// Fetch-status values written to metadata for the dashboard.
const (
	StatusFetching       = "fetching"
	StatusReady          = "ready"
	StatusAuthFailed     = "error: invalid credentials"
	StatusRateLimited    = "error: rate limit exceeded"
	StatusFetchFailed    = "error: fetch failed"
	StatusStoreUnhealthy = "error: store unavailable"
)

// CycleResult summarizes one completed fetch cycle.
type CycleResult struct {
	Observed int       `json:"observed"`
	Inserted int       `json:"inserted"`
	Pruned   int64     `json:"pruned"`
	Cutoff   time.Time `json:"cutoff"`
}

// Engine reconciles the remote unread result set against the local store.
// A cycle pages through the provider, upserts every observed message (counting
// each id at most once, ever), flags the records not observed this cycle as
// read, and prunes them. Cycles must not overlap; the Scheduler enforces that.
type Engine struct {
	store      store.Store
	provider   provider.MailProvider
	windowDays int
	logger     *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates an Engine fetching unread mail received within the last
// windowDays days.
func New(s store.Store, p provider.MailProvider, windowDays int, logger *zap.Logger) *Engine {
	if windowDays <= 0 {
		windowDays = 1
	}
	return &Engine{
		store:      s,
		provider:   p,
		windowDays: windowDays,
		logger:     logger,
		now:        time.Now,
	}
}

// RunCycle performs one full fetch-reconcile-prune pass. On a provider or
// store failure it aborts the remaining pages, records a short status cause,
// and returns the classified error; everything committed so far stays and is
// idempotent to repeat.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	if err := e.store.SetMetadata(ctx, store.KeyFetchStatus, StatusFetching); err != nil {
		return nil, fmt.Errorf("failed to set fetch status: %w", err)
	}

	now := e.now().UTC()
	cutoff := now.AddDate(0, 0, -e.windowDays)
	result := &CycleResult{Cutoff: cutoff}

	var (
		observed  []string
		pageToken string
		pages     int
	)
	for {
		ids, nextToken, err := e.provider.ListUnread(ctx, cutoff, pageToken)
		if err != nil {
			return result, e.fail(ctx, result, fmt.Errorf("failed to list unread page %d: %w", pages+1, err))
		}
		pages++

		for _, id := range ids {
			headers, err := e.provider.GetHeaders(ctx, id)
			if err != nil {
				return result, e.fail(ctx, result, fmt.Errorf("failed to fetch headers for %s: %w", id, err))
			}

			inserted, err := e.store.UpsertMessage(ctx, &domain.Message{
				ID:        id,
				Sender:    domain.SenderKey(headers.Sender),
				Recipient: headers.Recipient,
				Subject:   headers.Subject,
				Unread:    true,
				FirstSeen: now,
			})
			if err != nil {
				return result, e.failStore(ctx, result, err)
			}

			observed = append(observed, id)
			result.Observed++
			if inserted {
				result.Inserted++
			}
		}

		if nextToken == "" {
			break
		}
		pageToken = nextToken
	}

	// Requery-based unread lifecycle: only ids present in this cycle's unread
	// result set stay unread, then everything read is pruned. Sender counts
	// are a historical tally and survive the prune.
	if err := e.store.MarkAllRead(ctx); err != nil {
		return result, e.failStore(ctx, result, err)
	}
	if err := e.store.MarkUnread(ctx, observed); err != nil {
		return result, e.failStore(ctx, result, err)
	}
	pruned, err := e.store.PruneRead(ctx)
	if err != nil {
		return result, e.failStore(ctx, result, err)
	}
	result.Pruned = pruned

	if err := e.store.SetMetadata(ctx, store.KeyLastFetch, now.Format("2006-01-02 15:04:05")); err != nil {
		return result, e.failStore(ctx, result, err)
	}
	if err := e.store.SetMetadata(ctx, store.KeyCutoffDate, cutoff.Format("2006-01-02")); err != nil {
		return result, e.failStore(ctx, result, err)
	}
	if err := e.store.SetMetadata(ctx, store.KeyFetchStatus, StatusReady); err != nil {
		return result, e.failStore(ctx, result, err)
	}

	e.logger.Info("fetch cycle complete",
		zap.Int("pages", pages),
		zap.Int("observed", result.Observed),
		zap.Int("inserted", result.Inserted),
		zap.Int64("pruned", result.Pruned),
		zap.String("cutoff", cutoff.Format("2006-01-02")),
	)
	return result, nil
}

// ClearAndRefetch wipes message records and sender tallies, then runs one full
// cycle. It must be invoked through the Scheduler so it stays exclusive.
func (e *Engine) ClearAndRefetch(ctx context.Context) (*CycleResult, error) {
	if err := e.store.ClearMessages(ctx); err != nil {
		return nil, e.failStore(ctx, &CycleResult{}, err)
	}
	e.logger.Info("message records cleared, refetching")
	return e.RunCycle(ctx)
}

// fail records the failure status for a provider error and returns it. The
// status write is best-effort: the cycle error is what matters.
func (e *Engine) fail(ctx context.Context, result *CycleResult, err error) error {
	status := StatusFetchFailed
	switch {
	case errors.Is(err, provider.ErrAuth):
		status = StatusAuthFailed
	case errors.Is(err, provider.ErrRateLimited):
		status = StatusRateLimited
	}

	if serr := e.store.SetMetadata(ctx, store.KeyFetchStatus, status); serr != nil {
		e.logger.Warn("failed to record fetch status", zap.Error(serr))
	}
	e.logger.Error("fetch cycle aborted",
		zap.Int("observed", result.Observed),
		zap.String("status", status),
		zap.Error(err),
	)
	return err
}

// failStore records the store-unavailable status and returns the error.
func (e *Engine) failStore(ctx context.Context, result *CycleResult, err error) error {
	if serr := e.store.SetMetadata(ctx, store.KeyFetchStatus, StatusStoreUnhealthy); serr != nil {
		e.logger.Warn("failed to record fetch status", zap.Error(serr))
	}
	e.logger.Error("fetch cycle aborted on store error",
		zap.Int("observed", result.Observed),
		zap.Error(err),
	)
	return err
}
