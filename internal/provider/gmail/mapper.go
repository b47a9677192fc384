package gmail

import (
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/danhajduk/synthia/internal/domain"
)

// Fallbacks for messages missing the header entirely.
const (
	unknownSender    = "Unknown Sender"
	unknownRecipient = "Unknown Recipient"
	noSubject        = "No Subject"
)

// mapHeaders extracts the sender/recipient/subject headers from a Gmail
// message fetched in metadata format.
func mapHeaders(msg *gmailapi.Message) domain.Headers {
	var headers []*gmailapi.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}

	return domain.Headers{
		Sender:    headerOr(headers, "From", unknownSender),
		Recipient: headerOr(headers, "To", unknownRecipient),
		Subject:   headerOr(headers, "Subject", noSubject),
	}
}

// headerOr performs a case-insensitive header lookup with a fallback.
func headerOr(headers []*gmailapi.MessagePartHeader, name, fallback string) string {
	lower := strings.ToLower(name)
	for _, h := range headers {
		if strings.ToLower(h.Name) == lower && h.Value != "" {
			return h.Value
		}
	}
	return fallback
}
