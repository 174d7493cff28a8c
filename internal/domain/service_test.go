package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

// memStore is an in-memory EntryStore for service tests.
type memStore struct {
	entries map[string]*Entry
	order   []string
	err     error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*Entry)}
}

func (m *memStore) Insert(_ context.Context, entry *Entry) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.entries[entry.ID]; ok {
		return false, nil
	}
	m.entries[entry.ID] = entry
	m.order = append(m.order, entry.ID)
	return true, nil
}

func (m *memStore) Fetch(context.Context, int, string) ([]Entry, error) {
	return nil, nil
}

func (m *memStore) HourlyCounts(context.Context, time.Time) ([]HourlyCount, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessItemSubredditGate(t *testing.T) {
	store := newMemStore()
	svc := NewWatchService([]string{"Watched"}, []string{"term"}, store, testLogger())

	// Watched subreddit, no matched terms: stored with empty matchedTerms.
	stored, err := svc.ProcessItem(context.Background(), &Item{
		ID: "a", Kind: KindPost, Title: "unrelated", Subreddit: "watched",
	})
	if err != nil || !stored {
		t.Fatalf("ProcessItem = (%v, %v), want stored", stored, err)
	}
	if got := store.entries["a"].MatchedTerms; len(got) != 0 {
		t.Fatalf("matched terms = %v, want empty", got)
	}
}

func TestProcessItemTermGate(t *testing.T) {
	store := newMemStore()
	svc := NewWatchService([]string{"watched"}, []string{"term"}, store, testLogger())

	// Term match outside the watchlist: stored with terms populated.
	stored, err := svc.ProcessItem(context.Background(), &Item{
		ID: "b", Kind: KindReply, Body: "contains the Term here", Subreddit: "elsewhere",
	})
	if err != nil || !stored {
		t.Fatalf("ProcessItem = (%v, %v), want stored", stored, err)
	}
	if got := store.entries["b"].MatchedTerms; !reflect.DeepEqual(got, []string{"term"}) {
		t.Fatalf("matched terms = %v, want [term]", got)
	}
}

func TestProcessItemNeitherArmDiscards(t *testing.T) {
	store := newMemStore()
	svc := NewWatchService([]string{"watched"}, []string{"term"}, store, testLogger())

	stored, err := svc.ProcessItem(context.Background(), &Item{
		ID: "c", Kind: KindPost, Title: "nothing", Subreddit: "elsewhere",
	})
	if err != nil || stored {
		t.Fatalf("ProcessItem = (%v, %v), want discarded without error", stored, err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("store should be empty, has %d", len(store.entries))
	}
}

func TestProcessItemBuildsEntry(t *testing.T) {
	store := newMemStore()
	svc := NewWatchService(nil, []string{"needle"}, store, testLogger())

	long := strings.Repeat("x", 300)
	stored, err := svc.ProcessItem(context.Background(), &Item{
		ID:         "d",
		Kind:       KindPost,
		Title:      "needle",
		Body:       long,
		Subreddit:  "SomeSub",
		Author:     "[deleted]",
		CreatedUTC: 1700000000,
		Score:      -3,
		Permalink:  "/r/SomeSub/comments/d/slug/",
	})
	if err != nil || !stored {
		t.Fatalf("ProcessItem = (%v, %v), want stored", stored, err)
	}

	e := store.entries["d"]
	if len([]rune(e.Text)) != MaxTextLen {
		t.Fatalf("text length = %d, want %d", len([]rune(e.Text)), MaxTextLen)
	}
	if !strings.HasPrefix(e.Text, "needle\n") {
		t.Fatalf("post text must start with title + separator, got %q", e.Text[:20])
	}
	if e.URL != "https://www.reddit.com/r/SomeSub/comments/d/slug/" {
		t.Fatalf("url = %q", e.URL)
	}
	if e.Subreddit != "SomeSub" {
		t.Fatalf("subreddit case must be preserved, got %q", e.Subreddit)
	}
	if e.Author != "[deleted]" || e.Score != -3 || e.CreatedUTC != 1700000000 {
		t.Fatalf("entry fields not carried over: %+v", e)
	}
}

func TestProcessItemReplyTextIsBodyOnly(t *testing.T) {
	store := newMemStore()
	svc := NewWatchService([]string{"watched"}, nil, store, testLogger())

	if _, err := svc.ProcessItem(context.Background(), &Item{
		ID: "e", Kind: KindReply, Title: "should be ignored", Body: "the body", Subreddit: "watched",
	}); err != nil {
		t.Fatalf("ProcessItem error: %v", err)
	}
	if got := store.entries["e"].Text; got != "the body" {
		t.Fatalf("reply text = %q, want body only", got)
	}
}

func TestProcessItemDuplicateIsNotAnError(t *testing.T) {
	store := newMemStore()
	svc := NewWatchService([]string{"watched"}, nil, store, testLogger())

	item := &Item{ID: "f", Kind: KindPost, Title: "t", Subreddit: "watched"}
	if stored, err := svc.ProcessItem(context.Background(), item); err != nil || !stored {
		t.Fatalf("first insert = (%v, %v)", stored, err)
	}
	if stored, err := svc.ProcessItem(context.Background(), item); err != nil || stored {
		t.Fatalf("redelivery = (%v, %v), want silent no-op", stored, err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("store has %d entries, want 1", len(store.entries))
	}
}

func TestProcessItemStoreFailure(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("disk gone")
	svc := NewWatchService([]string{"watched"}, nil, store, testLogger())

	if _, err := svc.ProcessItem(context.Background(), &Item{
		ID: "g", Kind: KindPost, Title: "t", Subreddit: "watched",
	}); err == nil {
		t.Fatal("expected store failure to propagate")
	}
}
