package provider

import (
	"context"
	"errors"
	"time"

	"github.com/danhajduk/synthia/internal/domain"
)

// Failure classes surfaced by a MailProvider. The ingestion engine only needs
// enough resolution to pick a status message; the next scheduled cycle is the
// retry mechanism for all of them.
var (
	// ErrAuth means credentials are invalid or expired beyond refresh.
	ErrAuth = errors.New("mail provider authentication failed")
	// ErrRateLimited means the provider rejected the call for quota reasons.
	ErrRateLimited = errors.New("mail provider rate limit exceeded")
)

// MailProvider is the narrow surface the ingestion engine needs from a remote
// mailbox: a paginated unread listing and a per-message header fetch.
type MailProvider interface {
	// ListUnread returns one page of message ids that are unread and were
	// received after cutoff, plus the continuation token for the next page.
	// An empty token means the listing is exhausted.
	ListUnread(ctx context.Context, cutoff time.Time, pageToken string) (ids []string, nextToken string, err error)

	// GetHeaders fetches the sender/recipient/subject headers for one message.
	GetHeaders(ctx context.Context, id string) (domain.Headers, error)
}
