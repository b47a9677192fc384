package domain

// SenderCount is the running tally of distinct messages ever attributed to a
// sender. It is monotonically non-decreasing between explicit resets and is
// never recomputed from the message table.
type SenderCount struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

// ImportantSender is a sender flagged for prioritized display, either by the
// classifier or by manual action.
type ImportantSender struct {
	Sender   string `json:"sender"`
	Category string `json:"category,omitempty"`
}
