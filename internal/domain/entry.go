package domain

// Kind distinguishes the two upstream item classes this pipeline ingests.
type Kind string

const (
	KindPost  Kind = "post"
	KindReply Kind = "reply"
)

// MaxTextLen is the number of runes of an item's text kept on storage.
const MaxTextLen = 280

// Entry is one persisted, matched content item. Entries are immutable once
// stored; there is no update or delete path.
type Entry struct {
	// ID is the upstream item id (e.g. "1kz3ab"), the primary key.
	ID string

	// Kind is post or reply.
	Kind Kind

	// Text is the match text, truncated to MaxTextLen runes.
	Text string

	// Subreddit is the case-preserved community name.
	Subreddit string

	// Author is the upstream author name. Deleted accounts arrive as the
	// upstream sentinel "[deleted]" and are stored as-is.
	Author string

	// CreatedUTC is the upstream creation time in seconds since epoch (UTC).
	// It is not locally generated and may arrive out of local-clock order.
	CreatedUTC int64

	// Score is a point-in-time snapshot, never updated after insert.
	Score int64

	// MatchedTerms is the ordered subset of configured terms found in Text.
	// Empty when the entry qualified solely by subreddit membership.
	MatchedTerms []string

	// URL is the fully-qualified permalink.
	URL string
}

// Item is a raw upstream item before filtering. It carries the fields of
// both kinds; Title is empty for replies.
type Item struct {
	ID         string
	Kind       Kind
	Title      string
	Body       string
	Subreddit  string
	Author     string
	CreatedUTC int64
	Score      int64
	Permalink  string
}

// Text builds the match text for the item: posts concatenate title and body,
// replies are body only.
func (it *Item) Text() string {
	if it.Kind == KindPost {
		if it.Body == "" {
			return it.Title
		}
		return it.Title + "\n" + it.Body
	}
	return it.Body
}

// Truncate returns at most n runes of s. Counting runes rather than bytes
// keeps multi-byte text from being cut mid-character.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// HourlyCount is the number of entries created within one UTC hour bucket.
type HourlyCount struct {
	// Hour is the bucket start in RFC3339 (e.g. "2024-05-01T13:00:00Z").
	Hour string `json:"hour"`

	Count int64 `json:"count"`
}
