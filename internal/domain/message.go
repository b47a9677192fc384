package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Message is one remote message as observed locally. Records only live while
// the message is still unread on the remote side; once a fetch cycle no longer
// sees the id in the unread result set the record is pruned.
type Message struct {
	ID        string
	Sender    string
	Recipient string
	Subject   string
	Unread    bool
	FirstSeen time.Time
	Analyzed  bool
	Category  string
}

// Headers holds the header values the ingestion engine extracts from a
// remote message.
type Headers struct {
	Sender    string
	Recipient string
	Subject   string
}

// SenderKey normalizes a From header into the key used for aggregation.
// "Alice <alice@example.com>" and "alice@example.com" collapse to the same key.
func SenderKey(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return "unknown"
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	return strings.ToLower(addr.Address)
}
