package store

import (
	"context"

	"github.com/danhajduk/synthia/internal/domain"
)

// Metadata keys written by the ingestion engine and read by the dashboard.
const (
	KeyFetchStatus = "fetch_status"
	KeyLastFetch   = "last_fetch"
	KeyCutoffDate  = "cutoff_date"
)

// Store defines the persistence interface for the application. The ingestion
// engine is the only writer for messages, sender counts, and metadata; a
// single cycle holds implicit exclusive write access because cycles never
// overlap.
type Store interface {
	// Messages
	UpsertMessage(ctx context.Context, msg *domain.Message) (inserted bool, err error)
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	MarkAllRead(ctx context.Context) error
	MarkUnread(ctx context.Context, ids []string) error
	PruneRead(ctx context.Context) (int64, error)
	CountMessages(ctx context.Context) (int, error)

	// Sender aggregates
	SenderCounts(ctx context.Context) ([]domain.SenderCount, error)
	UnclassifiedSenders(ctx context.Context) ([]string, error)

	// Important senders
	AddImportantSender(ctx context.Context, sender, category string) error
	RemoveImportantSender(ctx context.Context, sender string) error
	ListImportantSenders(ctx context.Context) ([]domain.ImportantSender, error)

	// Metadata
	GetMetadata(ctx context.Context, key string) (string, error)
	SetMetadata(ctx context.Context, key, value string) error

	// Destructive actions
	ClearMessages(ctx context.Context) error
	RecreateSchema(ctx context.Context) error

	// Dashboard read API
	Summary(ctx context.Context) (*Summary, error)

	// Lifecycle
	Close() error
}

// Summary is the read-only view served to the dashboard.
type Summary struct {
	Senders     []domain.SenderCount `json:"senders"`
	UnreadTotal int                  `json:"unread_count"`
	LastFetch   string               `json:"last_fetch"`
	CutoffDate  string               `json:"cutoff_date"`
	FetchStatus string               `json:"fetch_status"`
}
