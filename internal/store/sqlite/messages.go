package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danhajduk/synthia/internal/domain"
)

// UpsertMessage inserts a message record or, if the id already exists, updates
// its mutable fields. The sender count is incremented only on a genuine
// insert, and insert plus increment commit as a single transaction so a
// message can never be counted twice or half-counted.
func (s *DB) UpsertMessage(ctx context.Context, msg *domain.Message) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM messages WHERE id = ?`, msg.ID).Scan(&existing)
	inserted := errors.Is(err, sql.ErrNoRows)
	if err != nil && !inserted {
		return false, fmt.Errorf("failed to check message %s: %w", msg.ID, err)
	}

	firstSeen := msg.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, sender, recipient, subject, unread, first_seen, analyzed, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sender    = excluded.sender,
			recipient = excluded.recipient,
			subject   = excluded.subject,
			unread    = excluded.unread`,
		msg.ID, msg.Sender, msg.Recipient, msg.Subject, msg.Unread,
		firstSeen.Format(time.RFC3339), msg.Analyzed, nullable(msg.Category),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert message %s: %w", msg.ID, err)
	}

	if inserted {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sender_counts (sender, count)
			VALUES (?, 1)
			ON CONFLICT(sender) DO UPDATE SET count = count + 1`,
			msg.Sender,
		); err != nil {
			return false, fmt.Errorf("failed to increment count for %s: %w", msg.Sender, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit message upsert: %w", err)
	}
	return inserted, nil
}

// GetMessage retrieves a single message record by id.
func (s *DB) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	var firstSeen string
	var category sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, sender, recipient, subject, unread, first_seen, analyzed, category
		FROM messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.Sender, &m.Recipient, &m.Subject, &m.Unread, &firstSeen, &m.Analyzed, &category)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	parsed, err := time.Parse(time.RFC3339, firstSeen)
	if err != nil {
		return nil, fmt.Errorf("failed to parse first_seen for %s: %w", id, err)
	}
	m.FirstSeen = parsed
	m.Category = category.String
	return &m, nil
}

// MarkAllRead flags every message record as read. A fetch cycle calls this
// once paging completes, then re-flags the ids it observed, so only the
// current unread result set stays unread.
func (s *DB) MarkAllRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE messages SET unread = FALSE`); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// MarkUnread flags the given message ids as unread.
func (s *DB) MarkUnread(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE messages SET unread = TRUE WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark messages unread: %w", err)
	}
	return nil
}

// PruneRead deletes every message record no longer marked unread and returns
// the number of rows removed. Sender counts are a historical tally and are
// never decremented here.
func (s *DB) PruneRead(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE unread = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune read messages: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned messages: %w", err)
	}
	return n, nil
}

// CountMessages returns the number of message records currently stored.
func (s *DB) CountMessages(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
