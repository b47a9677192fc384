// Package web serves the dashboard JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/danhajduk/synthia/internal/domain"
	"github.com/danhajduk/synthia/internal/ingest"
	"github.com/danhajduk/synthia/internal/store"
	"github.com/danhajduk/synthia/internal/update"
)

// Fetcher triggers mailbox fetch cycles on demand.
type Fetcher interface {
	TriggerNow(ctx context.Context) (*ingest.CycleResult, error)
	TriggerRefresh(ctx context.Context) (*ingest.CycleResult, error)
}

// Classifier runs sender classification on demand.
type Classifier interface {
	ClassifyNew(ctx context.Context) ([]string, error)
}

// VersionChecker reports the running version against the latest release.
type VersionChecker interface {
	Check(ctx context.Context) (update.Info, error)
}

type Server struct {
	store      store.Store
	fetcher    Fetcher
	classifier Classifier
	checker    VersionChecker
	logger     *zap.Logger
	mux        *http.ServeMux
}

func NewServer(s store.Store, fetcher Fetcher, classifier Classifier, checker VersionChecker, logger *zap.Logger) *Server {
	server := &Server{
		store:      s,
		fetcher:    fetcher,
		classifier: classifier,
		checker:    checker,
		logger:     logger,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summary", server.handleSummary)
	mux.HandleFunc("/api/fetch_status", server.handleFetchStatus)
	mux.HandleFunc("/api/refresh", server.handleRefresh)
	mux.HandleFunc("/api/classify", server.handleClassify)
	mux.HandleFunc("/api/recreate", server.handleRecreate)
	mux.HandleFunc("/api/important_senders", server.handleImportantSenders)
	mux.HandleFunc("/api/important_senders/", server.handleImportantSender)
	mux.HandleFunc("/api/version", server.handleVersion)
	mux.HandleFunc("/health", server.handleHealth)
	server.mux = mux
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		s.logger.Error("failed to load summary", zap.Error(err))
		http.Error(w, "unable to load summary", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleFetchStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status, err := s.store.GetMetadata(r.Context(), store.KeyFetchStatus)
	if err != nil {
		http.Error(w, "unable to load status", http.StatusInternalServerError)
		return
	}
	if status == "" {
		status = ingest.StatusReady
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// handleRefresh starts a fetch cycle on the caller's request. With ?clear=1
// the message and sender tables are wiped first. A 409 reports a cycle
// already in flight.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	run := s.fetcher.TriggerNow
	if r.URL.Query().Get("clear") == "1" {
		run = s.fetcher.TriggerRefresh
	}
	result, err := run(r.Context())
	if err != nil {
		if errors.Is(err, ingest.ErrBusy) {
			http.Error(w, "fetch already in progress", http.StatusConflict)
			return
		}
		s.logger.Error("fetch cycle failed", zap.Error(err))
		http.Error(w, "fetch failed", http.StatusBadGateway)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identified, err := s.classifier.ClassifyNew(r.Context())
	if err != nil {
		s.logger.Error("classification failed", zap.Error(err))
		http.Error(w, "classification failed", http.StatusBadGateway)
		return
	}
	if identified == nil {
		identified = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":           "important senders identified",
		"important_senders": identified,
	})
}

func (s *Server) handleRecreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.store.RecreateSchema(r.Context()); err != nil {
		s.logger.Error("failed to recreate schema", zap.Error(err))
		http.Error(w, "unable to recreate schema", http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "schema recreated"})
}

func (s *Server) handleImportantSenders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		senders, err := s.store.ListImportantSenders(r.Context())
		if err != nil {
			http.Error(w, "unable to list important senders", http.StatusInternalServerError)
			return
		}
		if senders == nil {
			senders = []domain.ImportantSender{}
		}
		s.respondJSON(w, http.StatusOK, map[string][]domain.ImportantSender{"important_senders": senders})
	case http.MethodPost:
		var payload domain.ImportantSender
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		sender := domain.SenderKey(payload.Sender)
		if sender == "" || sender == "unknown" {
			http.Error(w, "sender required", http.StatusBadRequest)
			return
		}
		if err := s.store.AddImportantSender(r.Context(), sender, payload.Category); err != nil {
			http.Error(w, "unable to save sender", http.StatusInternalServerError)
			return
		}
		s.respondJSON(w, http.StatusCreated, domain.ImportantSender{Sender: sender, Category: payload.Category})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleImportantSender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sender := strings.TrimPrefix(r.URL.Path, "/api/important_senders/")
	if sender == "" || strings.Contains(sender, "/") {
		http.NotFound(w, r)
		return
	}
	if err := s.store.RemoveImportantSender(r.Context(), sender); err != nil {
		http.Error(w, "unable to remove sender", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	info, err := s.checker.Check(r.Context())
	if err != nil {
		s.logger.Error("version check failed", zap.Error(err))
		http.Error(w, "unable to check version", http.StatusBadGateway)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
