package gmail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/danhajduk/synthia/internal/domain"
	"github.com/danhajduk/synthia/internal/provider"
	"github.com/danhajduk/synthia/internal/rate"
	"github.com/danhajduk/synthia/internal/store"
)

const (
	userID   = "me"
	pageSize = 500
)

// Provider implements provider.MailProvider against the Gmail API.
type Provider struct {
	tokenStore *store.KeyringTokenStore
	limiter    rate.Limiter
	service    *gmailapi.Service
}

// New creates a Gmail provider. All outbound calls are gated by the limiter.
func New(tokenStore *store.KeyringTokenStore, limiter rate.Limiter) *Provider {
	return &Provider{
		tokenStore: tokenStore,
		limiter:    limiter,
	}
}

// Authenticate runs the OAuth2 flow, saves the token, and initializes the
// Gmail service.
func (p *Provider) Authenticate(ctx context.Context) error {
	token, err := authenticate(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate gmail: %w", err)
	}

	if err := p.tokenStore.SaveToken(token); err != nil {
		return fmt.Errorf("failed to save gmail token: %w", err)
	}

	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	p.service = srv
	return nil
}

// ensureService lazily initializes the Gmail service from the stored token.
func (p *Provider) ensureService(ctx context.Context) error {
	if p.service != nil {
		return nil
	}

	token, err := p.tokenStore.LoadToken()
	if err != nil {
		return fmt.Errorf("%w: no stored token: %v", provider.ErrAuth, err)
	}

	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	p.service = srv
	return nil
}

// ListUnread returns one page of inbox message ids that are unread and were
// received after cutoff.
func (p *Provider) ListUnread(ctx context.Context, cutoff time.Time, pageToken string) ([]string, string, error) {
	if err := p.ensureService(ctx); err != nil {
		return nil, "", err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	call := p.service.Users.Messages.List(userID).
		LabelIds("INBOX").
		Q(unreadQuery(cutoff)).
		MaxResults(pageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", classifyErr("list unread messages", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, resp.NextPageToken, nil
}

// GetHeaders fetches sender/recipient/subject for one message. The metadata
// format keeps the round trip small; bodies are never downloaded.
func (p *Provider) GetHeaders(ctx context.Context, id string) (domain.Headers, error) {
	if err := p.ensureService(ctx); err != nil {
		return domain.Headers{}, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return domain.Headers{}, err
	}

	msg, err := p.service.Users.Messages.Get(userID, id).
		Format("metadata").
		MetadataHeaders("From", "To", "Subject").
		Context(ctx).Do()
	if err != nil {
		return domain.Headers{}, classifyErr(fmt.Sprintf("get message %s", id), err)
	}

	return mapHeaders(msg), nil
}

// unreadQuery builds the Gmail search expression for unread mail received
// after the cutoff date. Gmail's "after:" operator takes YYYY/MM/DD.
func unreadQuery(cutoff time.Time) string {
	return "is:unread after:" + cutoff.Format("2006/01/02")
}

// classifyErr maps a Gmail API failure onto the provider error taxonomy.
// Anything not recognizably auth or quota related stays a transient error.
func classifyErr(op string, err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return fmt.Errorf("failed to %s: %w: %v", op, provider.ErrAuth, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401:
			return fmt.Errorf("failed to %s: %w: %v", op, provider.ErrAuth, err)
		case 429:
			return fmt.Errorf("failed to %s: %w: %v", op, provider.ErrRateLimited, err)
		case 403:
			if isQuotaReason(apiErr) {
				return fmt.Errorf("failed to %s: %w: %v", op, provider.ErrRateLimited, err)
			}
			return fmt.Errorf("failed to %s: %w: %v", op, provider.ErrAuth, err)
		}
	}

	if strings.Contains(strings.ToLower(err.Error()), "invalid_client") {
		return fmt.Errorf("failed to %s: %w: %v", op, provider.ErrAuth, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

func isQuotaReason(apiErr *googleapi.Error) bool {
	for _, e := range apiErr.Errors {
		switch e.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded", "dailyLimitExceeded":
			return true
		}
	}
	return false
}

// Compile-time interface compliance check.
var _ provider.MailProvider = (*Provider)(nil)
