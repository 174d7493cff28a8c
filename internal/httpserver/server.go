// Package httpserver serves the dashboard read API over the entry store.
// It is a consumer-facing convenience; the ingestion pipeline never depends
// on it.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blackmichael/reddit-monitor/internal/domain"
)

const (
	defaultHourlyWindow = 24 * time.Hour
	maxHourlyWindow     = 31 * 24 * time.Hour
)

// Server exposes the stored entries as JSON: a newest-first table with an
// optional free-text filter, and an hourly count series for the chart.
type Server struct {
	store      domain.EntryStore
	loc        *time.Location
	fetchLimit int
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates the dashboard server. fetchLimit caps (and defaults) the
// limit query parameter; loc is the local zone timestamps are rendered in
// alongside UTC.
func NewServer(addr string, store domain.EntryStore, loc *time.Location, fetchLimit int, logger *slog.Logger) *Server {
	s := &Server{
		store:      store,
		loc:        loc,
		fetchLimit: fetchLimit,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Get("/health", s.handleHealth)
	r.Get("/api/entries", s.handleEntries)
	r.Get("/api/entries/hourly", s.handleHourly)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. It blocks until the server is shut down or an
// error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// entryResponse is one rendered entry. Timestamps are exposed as epoch
// seconds plus UTC and local-zone RFC3339 strings.
type entryResponse struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Text         string   `json:"text"`
	Subreddit    string   `json:"subreddit"`
	Author       string   `json:"author"`
	CreatedUTC   int64    `json:"created_utc"`
	CreatedAt    string   `json:"created_at"`
	CreatedLocal string   `json:"created_local"`
	Score        int64    `json:"score"`
	MatchedTerms []string `json:"matched_terms"`
	URL          string   `json:"url"`
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	limit := s.fetchLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > s.fetchLimit {
			writeError(w, http.StatusBadRequest, "InvalidRequest",
				fmt.Sprintf("limit must be between 1 and %d", s.fetchLimit))
			return
		}
		limit = parsed
	}

	query := r.URL.Query().Get("q")

	entries, err := s.store.Fetch(r.Context(), limit, query)
	if err != nil {
		s.logger.Error("fetch entries failed", "limit", limit, "q", query, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to fetch entries")
		return
	}

	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		created := time.Unix(e.CreatedUTC, 0)
		terms := e.MatchedTerms
		if terms == nil {
			terms = []string{}
		}
		resp[i] = entryResponse{
			ID:           e.ID,
			Kind:         string(e.Kind),
			Text:         e.Text,
			Subreddit:    e.Subreddit,
			Author:       e.Author,
			CreatedUTC:   e.CreatedUTC,
			CreatedAt:    created.UTC().Format(time.RFC3339),
			CreatedLocal: created.In(s.loc).Format(time.RFC3339),
			Score:        e.Score,
			MatchedTerms: terms,
			URL:          e.URL,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": resp})
}

func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	window := defaultHourlyWindow
	if h := r.URL.Query().Get("hours"); h != "" {
		parsed, err := strconv.Atoi(h)
		if err != nil || parsed < 1 || time.Duration(parsed)*time.Hour > maxHourlyWindow {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "hours out of range")
			return
		}
		window = time.Duration(parsed) * time.Hour
	}

	since := time.Now().UTC().Add(-window).Truncate(time.Hour)

	counts, err := s.store.HourlyCounts(r.Context(), since)
	if err != nil {
		s.logger.Error("hourly counts failed", "since", since, "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to compute counts")
		return
	}
	if counts == nil {
		counts = []domain.HourlyCount{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"hourly": counts})
}
