package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blackmichael/reddit-monitor/internal/domain"
)

type fakeStore struct {
	entries   []domain.Entry
	counts    []domain.HourlyCount
	lastLimit int
	lastQuery string
}

func (f *fakeStore) Insert(context.Context, *domain.Entry) (bool, error) { return false, nil }

func (f *fakeStore) Fetch(_ context.Context, limit int, query string) ([]domain.Entry, error) {
	f.lastLimit = limit
	f.lastQuery = query
	return f.entries, nil
}

func (f *fakeStore) HourlyCounts(context.Context, time.Time) ([]domain.HourlyCount, error) {
	return f.counts, nil
}

func newTestServer(t *testing.T, store domain.EntryStore) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loc := time.FixedZone("CET", 3600)
	return NewServer(":0", store, loc, 1000, logger)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleEntries(t *testing.T) {
	store := &fakeStore{entries: []domain.Entry{{
		ID:         "a",
		Kind:       domain.KindPost,
		Text:       "hello",
		Subreddit:  "sub",
		Author:     "alice",
		CreatedUTC: 1700000000,
		Score:      7,
		URL:        "https://example.com/a",
	}}}
	s := newTestServer(t, store)

	rec := get(t, s, "/api/entries?limit=5&q=hello")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.lastLimit != 5 || store.lastQuery != "hello" {
		t.Fatalf("store called with limit=%d q=%q", store.lastLimit, store.lastQuery)
	}

	var resp struct {
		Entries []struct {
			ID           string   `json:"id"`
			CreatedUTC   int64    `json:"created_utc"`
			CreatedAt    string   `json:"created_at"`
			CreatedLocal string   `json:"created_local"`
			MatchedTerms []string `json:"matched_terms"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("got %d entries", len(resp.Entries))
	}
	e := resp.Entries[0]
	if e.CreatedUTC != 1700000000 {
		t.Fatalf("created_utc = %d", e.CreatedUTC)
	}
	if e.CreatedAt != "2023-11-14T22:13:20Z" {
		t.Fatalf("created_at = %q", e.CreatedAt)
	}
	if e.CreatedLocal != "2023-11-14T23:13:20+01:00" {
		t.Fatalf("created_local = %q", e.CreatedLocal)
	}
	if e.MatchedTerms == nil {
		t.Fatal("matched_terms must render as [], not null")
	}
}

func TestHandleEntriesDefaultsAndValidation(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, store)

	rec := get(t, s, "/api/entries")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.lastLimit != 1000 {
		t.Fatalf("default limit = %d, want 1000", store.lastLimit)
	}

	for _, target := range []string{
		"/api/entries?limit=0",
		"/api/entries?limit=1001",
		"/api/entries?limit=abc",
	} {
		if rec := get(t, s, target); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestHandleHourly(t *testing.T) {
	store := &fakeStore{counts: []domain.HourlyCount{
		{Hour: "2024-05-01T13:00:00Z", Count: 2},
	}}
	s := newTestServer(t, store)

	rec := get(t, s, "/api/entries/hourly?hours=48")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Hourly []domain.HourlyCount `json:"hourly"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Hourly) != 1 || resp.Hourly[0].Count != 2 {
		t.Fatalf("hourly = %v", resp.Hourly)
	}

	if rec := get(t, s, "/api/entries/hourly?hours=0"); rec.Code != http.StatusBadRequest {
		t.Fatalf("hours=0 status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeStore{})
	if rec := get(t, s, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}
