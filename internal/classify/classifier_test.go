package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/danhajduk/synthia/internal/domain"
	"github.com/danhajduk/synthia/internal/store/sqlite"
)

func newTestClassifier(t *testing.T, handler http.HandlerFunc) (*Classifier, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	c := New("test-key", db, "", zap.NewNop())
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		c.apiURL = srv.URL
	}
	return c, db
}

func seedSender(t *testing.T, db *sqlite.DB, id, sender string) {
	t.Helper()
	_, err := db.UpsertMessage(context.Background(), &domain.Message{
		ID:        id,
		Sender:    sender,
		Unread:    true,
		FirstSeen: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("UpsertMessage() error: %v", err)
	}
}

func chatReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestClassifyNew_MergesImportantSenders(t *testing.T) {
	c, db := newTestClassifier(t, chatReply(`{"important_senders": ["boss@work.com"]}`))
	ctx := context.Background()

	seedSender(t, db, "a", "boss@work.com")
	seedSender(t, db, "b", "spam@list.com")

	important, err := c.ClassifyNew(ctx)
	if err != nil {
		t.Fatalf("ClassifyNew() error: %v", err)
	}
	if len(important) != 1 || important[0] != "boss@work.com" {
		t.Errorf("ClassifyNew() = %v, want [boss@work.com]", important)
	}

	stored, err := db.ListImportantSenders(ctx)
	if err != nil {
		t.Fatalf("ListImportantSenders() error: %v", err)
	}
	if len(stored) != 1 || stored[0].Sender != "boss@work.com" || stored[0].Category != "Important" {
		t.Errorf("stored = %v", stored)
	}
}

func TestClassifyNew_EmptyInputIssuesNoRequest(t *testing.T) {
	called := false
	c, _ := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	important, err := c.ClassifyNew(context.Background())
	if err != nil {
		t.Fatalf("ClassifyNew() error: %v", err)
	}
	if important != nil {
		t.Errorf("ClassifyNew() = %v, want nil", important)
	}
	if called {
		t.Error("request issued for empty sender set")
	}
}

func TestClassifyNew_SkipsAlreadyClassified(t *testing.T) {
	var gotBody string
	c, db := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) == 2 {
			gotBody = req.Messages[1].Content
		}
		chatReply(`{"important_senders": []}`)(w, r)
	})
	ctx := context.Background()

	seedSender(t, db, "a", "boss@work.com")
	seedSender(t, db, "b", "new@sender.com")
	if err := db.AddImportantSender(ctx, "boss@work.com", "Important"); err != nil {
		t.Fatalf("AddImportantSender() error: %v", err)
	}

	if _, err := c.ClassifyNew(ctx); err != nil {
		t.Fatalf("ClassifyNew() error: %v", err)
	}

	if gotBody == "" {
		t.Fatal("no request captured")
	}
	var prompt struct {
		Senders []string `json:"senders"`
	}
	start := strings.Index(gotBody, "{")
	if start < 0 {
		t.Fatalf("no JSON payload in prompt: %q", gotBody)
	}
	if err := json.Unmarshal([]byte(gotBody[start:]), &prompt); err != nil {
		t.Fatalf("failed to parse prompt payload: %v", err)
	}
	if len(prompt.Senders) != 1 || prompt.Senders[0] != "new@sender.com" {
		t.Errorf("prompt senders = %v, want [new@sender.com]", prompt.Senders)
	}

	// Re-running with everything classified issues no request and creates no
	// duplicates.
	if err := db.AddImportantSender(ctx, "new@sender.com", "Important"); err != nil {
		t.Fatalf("AddImportantSender() error: %v", err)
	}
	gotBody = ""
	if _, err := c.ClassifyNew(ctx); err != nil {
		t.Fatalf("ClassifyNew() second run error: %v", err)
	}
	if gotBody != "" {
		t.Error("request issued although every sender was classified")
	}
	stored, _ := db.ListImportantSenders(ctx)
	if len(stored) != 2 {
		t.Errorf("len(stored) = %d, want 2", len(stored))
	}
}

func TestClassifyNew_CodeFencedOutput(t *testing.T) {
	content := "```json\n{\"important_senders\": [\"boss@work.com\"]}\n```"
	c, db := newTestClassifier(t, chatReply(content))
	seedSender(t, db, "a", "boss@work.com")

	important, err := c.ClassifyNew(context.Background())
	if err != nil {
		t.Fatalf("ClassifyNew() error: %v", err)
	}
	if len(important) != 1 || important[0] != "boss@work.com" {
		t.Errorf("ClassifyNew() = %v, want [boss@work.com]", important)
	}
}

func TestClassifyNew_MalformedOutputIsEmpty(t *testing.T) {
	c, db := newTestClassifier(t, chatReply("Sure! The important senders are boss@work.com."))
	seedSender(t, db, "a", "boss@work.com")

	important, err := c.ClassifyNew(context.Background())
	if err != nil {
		t.Fatalf("ClassifyNew() error: %v, want parse failure recovered", err)
	}
	if len(important) != 0 {
		t.Errorf("ClassifyNew() = %v, want empty", important)
	}
}

func TestClassifyNew_IgnoresHallucinatedSenders(t *testing.T) {
	c, db := newTestClassifier(t, chatReply(`{"important_senders": ["boss@work.com", "invented@nowhere.com"]}`))
	seedSender(t, db, "a", "boss@work.com")

	important, err := c.ClassifyNew(context.Background())
	if err != nil {
		t.Fatalf("ClassifyNew() error: %v", err)
	}
	if len(important) != 1 || important[0] != "boss@work.com" {
		t.Errorf("ClassifyNew() = %v, want [boss@work.com]", important)
	}
}

func TestClassifyNew_HTTPErrorPropagates(t *testing.T) {
	c, db := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusServiceUnavailable)
	})
	seedSender(t, db, "a", "boss@work.com")

	if _, err := c.ClassifyNew(context.Background()); err == nil {
		t.Error("ClassifyNew() returned nil, want HTTP error")
	}
}
