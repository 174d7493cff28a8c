package domain

import (
	"context"
	"time"
)

// EntryStore defines the deduplicating persistence operations shared by both
// stream consumers and the read side.
type EntryStore interface {
	// Insert writes a new entry. It returns false when an entry with the
	// same ID already exists; a duplicate is not an error. Safe for
	// concurrent use.
	Insert(ctx context.Context, entry *Entry) (bool, error)

	// Fetch returns up to limit entries ordered by CreatedUTC descending.
	// A non-empty query restricts results to entries whose text contains it,
	// case-insensitively.
	Fetch(ctx context.Context, limit int, query string) ([]Entry, error)

	// HourlyCounts returns per-UTC-hour entry counts for entries created at
	// or after since, oldest bucket first.
	HourlyCounts(ctx context.Context, since time.Time) ([]HourlyCount, error)
}

// ItemStream is one unbounded sequence of upstream items. Next blocks until
// an item is available, the stream fails, or ctx is cancelled. A stream that
// returns an error is dead; callers must resubscribe.
type ItemStream interface {
	Next(ctx context.Context) (*Item, error)
}

// StreamSource subscribes to the two upstream item classes. Subscriptions
// deliver new items only; there is no backfill on (re)connect. An empty
// subreddit list subscribes to the site-wide feed of all communities.
type StreamSource interface {
	StreamPosts(ctx context.Context, subreddits []string) (ItemStream, error)
	StreamComments(ctx context.Context, subreddits []string) (ItemStream, error)
}
