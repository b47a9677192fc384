package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestChecker(t *testing.T, current string, handler http.HandlerFunc) *Checker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewChecker(current)
	c.apiURL = srv.URL
	return c
}

func TestLatestVersion_StripsTagPrefix(t *testing.T) {
	c := newTestChecker(t, "1.0.0", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/danhajduk/synthia-repo/releases/latest" {
			t.Errorf("path = %q, want releases/latest", r.URL.Path)
		}
		w.Write([]byte(`{"tag_name":"v1.2.3"}`))
	})
	got, err := c.LatestVersion(context.Background())
	if err != nil {
		t.Fatalf("LatestVersion() error: %v", err)
	}
	if got != "1.2.3" {
		t.Errorf("LatestVersion() = %q, want %q", got, "1.2.3")
	}
}

func TestCheck_ReportsOutdated(t *testing.T) {
	c := newTestChecker(t, "1.0.0", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name":"v1.1.0"}`))
	})
	c.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	info, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if info.UpToDate {
		t.Error("UpToDate = true, want false for newer release")
	}
	if info.Latest != "1.1.0" || info.Current != "1.0.0" {
		t.Errorf("Check() = %+v, want current 1.0.0, latest 1.1.0", info)
	}
	if info.CheckedAt != "2026-08-30T12:00:00Z" {
		t.Errorf("CheckedAt = %q, want fixed timestamp", info.CheckedAt)
	}
}

func TestCheck_UpToDate(t *testing.T) {
	c := newTestChecker(t, "1.1.0", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name":"v1.1.0"}`))
	})
	info, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if !info.UpToDate {
		t.Error("UpToDate = false, want true for matching release")
	}
}

func TestLatestVersion_HTTPError(t *testing.T) {
	c := newTestChecker(t, "1.0.0", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	})
	if _, err := c.LatestVersion(context.Background()); err == nil {
		t.Error("LatestVersion() returned nil, want error for non-200 status")
	}
}
