package sqlite

import (
	"context"
	"fmt"

	"github.com/danhajduk/synthia/internal/domain"
)

// SenderCounts returns the per-sender tallies ordered by count descending,
// then sender ascending.
func (s *DB) SenderCounts(ctx context.Context) ([]domain.SenderCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, count FROM sender_counts ORDER BY count DESC, sender ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sender counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.SenderCount
	for rows.Next() {
		var c domain.SenderCount
		if err := rows.Scan(&c.Sender, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sender count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sender counts: %w", err)
	}
	return counts, nil
}

// UnclassifiedSenders returns senders with an aggregate count that have not
// yet been flagged important. This feeds the classifier, so already-classified
// senders never trigger another request.
func (s *DB) UnclassifiedSenders(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sender FROM sender_counts
		WHERE sender NOT IN (SELECT sender FROM important_senders)
		ORDER BY sender ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unclassified senders: %w", err)
	}
	defer rows.Close()

	var senders []string
	for rows.Next() {
		var sender string
		if err := rows.Scan(&sender); err != nil {
			return nil, fmt.Errorf("failed to scan sender: %w", err)
		}
		senders = append(senders, sender)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate senders: %w", err)
	}
	return senders, nil
}

// AddImportantSender flags a sender as important. Inserting an already-present
// sender is a no-op.
func (s *DB) AddImportantSender(ctx context.Context, sender, category string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO important_senders (sender, category)
		VALUES (?, ?)
		ON CONFLICT(sender) DO NOTHING`,
		sender, nullable(category),
	)
	if err != nil {
		return fmt.Errorf("failed to add important sender %s: %w", sender, err)
	}
	return nil
}

// RemoveImportantSender removes a sender from the important set.
func (s *DB) RemoveImportantSender(ctx context.Context, sender string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM important_senders WHERE sender = ?`, sender)
	if err != nil {
		return fmt.Errorf("failed to remove important sender %s: %w", sender, err)
	}
	return nil
}

// ListImportantSenders returns all flagged senders.
func (s *DB) ListImportantSenders(ctx context.Context) ([]domain.ImportantSender, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, COALESCE(category, '') FROM important_senders ORDER BY sender ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query important senders: %w", err)
	}
	defer rows.Close()

	var senders []domain.ImportantSender
	for rows.Next() {
		var is domain.ImportantSender
		if err := rows.Scan(&is.Sender, &is.Category); err != nil {
			return nil, fmt.Errorf("failed to scan important sender: %w", err)
		}
		senders = append(senders, is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate important senders: %w", err)
	}
	return senders, nil
}
