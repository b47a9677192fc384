package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/danhajduk/synthia/internal/domain"
)

func unreadMessage(id, sender string) *domain.Message {
	return &domain.Message{
		ID:        id,
		Sender:    sender,
		Recipient: "me@example.com",
		Subject:   "Subject for " + id,
		Unread:    true,
		FirstSeen: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
}

func senderCount(t *testing.T, db *DB, sender string) int {
	t.Helper()
	counts, err := db.SenderCounts(context.Background())
	if err != nil {
		t.Fatalf("SenderCounts() error: %v", err)
	}
	for _, c := range counts {
		if c.Sender == sender {
			return c.Count
		}
	}
	return 0
}

func TestUpsertMessage_InsertIncrementsCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inserted, err := db.UpsertMessage(ctx, unreadMessage("a", "x@y"))
	if err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}
	if !inserted {
		t.Error("inserted = false, want true for new id")
	}

	inserted, err = db.UpsertMessage(ctx, unreadMessage("b", "x@y"))
	if err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}
	if !inserted {
		t.Error("inserted = false, want true for new id")
	}

	if got := senderCount(t, db, "x@y"); got != 2 {
		t.Errorf("count for x@y = %d, want 2", got)
	}
}

func TestUpsertMessage_RefetchDoesNotDoubleCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.UpsertMessage(ctx, unreadMessage("a", "x@y")); err != nil {
		t.Fatalf("UpsertMessage() first call error: %v", err)
	}

	msg := unreadMessage("a", "x@y")
	msg.Subject = "Updated subject"
	inserted, err := db.UpsertMessage(ctx, msg)
	if err != nil {
		t.Fatalf("UpsertMessage() second call error: %v", err)
	}
	if inserted {
		t.Error("inserted = true, want false for existing id")
	}

	if got := senderCount(t, db, "x@y"); got != 1 {
		t.Errorf("count for x@y = %d, want 1 after re-fetch", got)
	}

	got, err := db.GetMessage(ctx, "a")
	if err != nil {
		t.Fatalf("GetMessage() error: %v", err)
	}
	if got.Subject != "Updated subject" {
		t.Errorf("Subject = %q, want %q", got.Subject, "Updated subject")
	}
}

func TestUpsertMessage_NoDuplicateIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := db.UpsertMessage(ctx, unreadMessage("a", "x@y")); err != nil {
			t.Fatalf("UpsertMessage() error: %v", err)
		}
	}

	n, err := db.CountMessages(ctx)
	if err != nil {
		t.Fatalf("CountMessages() error: %v", err)
	}
	if n != 1 {
		t.Errorf("message count = %d, want 1", n)
	}
}

func TestPruneRead_KeepsCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.UpsertMessage(ctx, unreadMessage("a", "x@y")); err != nil {
		t.Fatalf("UpsertMessage(a) error: %v", err)
	}
	if _, err := db.UpsertMessage(ctx, unreadMessage("b", "x@y")); err != nil {
		t.Fatalf("UpsertMessage(b) error: %v", err)
	}

	// Message "a" no longer appears in the unread result set.
	if err := db.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead() error: %v", err)
	}
	if err := db.MarkUnread(ctx, []string{"b"}); err != nil {
		t.Fatalf("MarkUnread() error: %v", err)
	}

	pruned, err := db.PruneRead(ctx)
	if err != nil {
		t.Fatalf("PruneRead() error: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	if _, err := db.GetMessage(ctx, "a"); err == nil {
		t.Error("GetMessage(a) succeeded, want error after prune")
	}
	if _, err := db.GetMessage(ctx, "b"); err != nil {
		t.Errorf("GetMessage(b) error: %v", err)
	}

	// Prune never decrements the historical tally.
	if got := senderCount(t, db, "x@y"); got != 2 {
		t.Errorf("count for x@y = %d, want 2 after prune", got)
	}
}

func TestMarkUnread_EmptyInput(t *testing.T) {
	db := newTestDB(t)
	if err := db.MarkUnread(context.Background(), nil); err != nil {
		t.Fatalf("MarkUnread(nil) error: %v", err)
	}
}

func TestGetMessage_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	msg := unreadMessage("a", "alice@example.com")
	msg.Category = "Work"
	msg.Analyzed = true
	if _, err := db.UpsertMessage(ctx, msg); err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}

	got, err := db.GetMessage(ctx, "a")
	if err != nil {
		t.Fatalf("GetMessage() error: %v", err)
	}
	if got.Sender != "alice@example.com" {
		t.Errorf("Sender = %q, want %q", got.Sender, "alice@example.com")
	}
	if got.Recipient != "me@example.com" {
		t.Errorf("Recipient = %q, want %q", got.Recipient, "me@example.com")
	}
	if !got.Unread {
		t.Error("Unread = false, want true")
	}
	if !got.FirstSeen.Equal(msg.FirstSeen) {
		t.Errorf("FirstSeen = %v, want %v", got.FirstSeen, msg.FirstSeen)
	}
	if !got.Analyzed {
		t.Error("Analyzed = false, want true")
	}
	if got.Category != "Work" {
		t.Errorf("Category = %q, want %q", got.Category, "Work")
	}
}
