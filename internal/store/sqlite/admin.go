package sqlite

import (
	"context"
	"fmt"

	"github.com/danhajduk/synthia/internal/store"
)

// ClearMessages wipes the message table and the sender tallies in one
// transaction. Metadata and the important-sender set survive; the caller is
// expected to follow up with a full fetch cycle.
func (s *DB) ClearMessages(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sender_counts`); err != nil {
		return fmt.Errorf("failed to clear sender counts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

// RecreateSchema drops every table and rebuilds the schema from scratch.
func (s *DB) RecreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, dropSchema); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	if err := s.migrate(); err != nil {
		return fmt.Errorf("failed to recreate schema: %w", err)
	}
	return nil
}

// Summary assembles the dashboard view: sender tallies plus the fetch
// metadata, with "N/A" standing in for values no cycle has written yet.
func (s *DB) Summary(ctx context.Context) (*store.Summary, error) {
	counts, err := s.SenderCounts(ctx)
	if err != nil {
		return nil, err
	}

	unread := 0
	for _, c := range counts {
		unread += c.Count
	}

	lastFetch, err := s.GetMetadata(ctx, store.KeyLastFetch)
	if err != nil {
		return nil, err
	}
	cutoff, err := s.GetMetadata(ctx, store.KeyCutoffDate)
	if err != nil {
		return nil, err
	}
	status, err := s.GetMetadata(ctx, store.KeyFetchStatus)
	if err != nil {
		return nil, err
	}

	if lastFetch == "" {
		lastFetch = "N/A"
	}
	if cutoff == "" {
		cutoff = "N/A"
	}
	if status == "" {
		status = "ready"
	}

	return &store.Summary{
		Senders:     counts,
		UnreadTotal: unread,
		LastFetch:   lastFetch,
		CutoffDate:  cutoff,
		FetchStatus: status,
	}, nil
}
