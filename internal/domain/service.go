package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// WatchService is the core domain service. It owns the interest policy: an
// item is kept when its subreddit is on the watchlist or when at least one
// configured term appears in its text.
type WatchService struct {
	subreddits map[string]struct{} // lowercased watchlist
	terms      []string
	store      EntryStore
	logger     *slog.Logger
}

// NewWatchService creates a WatchService for the given watchlist. Subreddit
// names are compared case-insensitively; terms keep their configured order.
func NewWatchService(subreddits, terms []string, store EntryStore, logger *slog.Logger) *WatchService {
	subs := make(map[string]struct{}, len(subreddits))
	for _, s := range subreddits {
		subs[strings.ToLower(s)] = struct{}{}
	}

	return &WatchService{
		subreddits: subs,
		terms:      terms,
		store:      store,
		logger:     logger,
	}
}

// ProcessItem evaluates one upstream item against the interest policy and,
// on qualification, writes it through the store. Returns true if a new entry
// was stored; a redelivered id is absorbed by the store and reported as
// stored=false without error. Non-qualifying items are discarded without
// trace.
func (s *WatchService) ProcessItem(ctx context.Context, item *Item) (bool, error) {
	text := item.Text()
	matched := MatchTerms(text, s.terms)

	if !s.watches(item.Subreddit) && len(matched) == 0 {
		return false, nil
	}

	entry := &Entry{
		ID:           item.ID,
		Kind:         item.Kind,
		Text:         Truncate(text, MaxTextLen),
		Subreddit:    item.Subreddit,
		Author:       item.Author,
		CreatedUTC:   item.CreatedUTC,
		Score:        item.Score,
		MatchedTerms: matched,
		URL:          permalinkURL(item.Permalink),
	}

	inserted, err := s.store.Insert(ctx, entry)
	if err != nil {
		return false, fmt.Errorf("insert entry: %w", err)
	}
	if !inserted {
		// Redelivery after a reconnect; already stored.
		return false, nil
	}

	s.logger.Info("stored entry",
		"id", entry.ID,
		"kind", entry.Kind,
		"subreddit", entry.Subreddit,
		"matched_terms", entry.MatchedTerms,
	)
	return true, nil
}

func (s *WatchService) watches(subreddit string) bool {
	_, ok := s.subreddits[strings.ToLower(subreddit)]
	return ok
}

// permalinkURL turns an upstream permalink suffix into an absolute URL.
// Already-absolute permalinks pass through unchanged.
func permalinkURL(permalink string) string {
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	return "https://www.reddit.com" + permalink
}
