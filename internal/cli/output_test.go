package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danhajduk/synthia/internal/domain"
	"github.com/danhajduk/synthia/internal/store"
)

func TestFprintJSON(t *testing.T) {
	var buf bytes.Buffer
	err := fprintJSON(&buf, map[string]int{"count": 3})
	if err != nil {
		t.Fatalf("fprintJSON() error: %v", err)
	}
	want := "{\n  \"count\": 3\n}\n"
	if buf.String() != want {
		t.Errorf("fprintJSON() = %q, want %q", buf.String(), want)
	}
}

func TestFprintSummary(t *testing.T) {
	summary := &store.Summary{
		Senders: []domain.SenderCount{
			{Sender: "boss@work.com", Count: 2},
			{Sender: "news@letter.com", Count: 1},
		},
		UnreadTotal: 3,
		LastFetch:   "2026-08-30 12:00:00",
		CutoffDate:  "2026-08-29",
		FetchStatus: "ready",
	}
	var buf bytes.Buffer
	if err := fprintSummary(&buf, summary); err != nil {
		t.Fatalf("fprintSummary() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Unread: 3") {
		t.Errorf("output missing unread total: %q", out)
	}
	if !strings.Contains(out, "boss@work.com") || !strings.Contains(out, "news@letter.com") {
		t.Errorf("output missing sender rows: %q", out)
	}
}

func TestFprintSummary_NoSenders(t *testing.T) {
	summary := &store.Summary{LastFetch: "N/A", CutoffDate: "N/A", FetchStatus: "ready"}
	var buf bytes.Buffer
	if err := fprintSummary(&buf, summary); err != nil {
		t.Fatalf("fprintSummary() error: %v", err)
	}
	if strings.Contains(buf.String(), "SENDER") {
		t.Errorf("output should omit table header with no senders: %q", buf.String())
	}
}
