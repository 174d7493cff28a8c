package reddit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/blackmichael/reddit-monitor/internal/domain"
)

const (
	pageLimit = 100

	// anchorResetAfter clears the `before` anchor after this many
	// consecutive empty polls. If the anchor item is deleted upstream,
	// before-anchored listings stay empty forever; resetting re-primes on
	// the live head of the feed.
	anchorResetAfter = 10
)

// StreamPosts subscribes to new posts in the given subreddits (all of reddit
// when empty). The subscription is primed on the current head of the feed:
// only items arriving after the call are delivered, oldest first.
func (c *Client) StreamPosts(ctx context.Context, subreddits []string) (domain.ItemStream, error) {
	return c.newStream(ctx, domain.KindPost, fmt.Sprintf("/r/%s/new", scope(subreddits)))
}

// StreamComments subscribes to new comments in the given subreddits, with
// the same delivery contract as StreamPosts.
func (c *Client) StreamComments(ctx context.Context, subreddits []string) (domain.ItemStream, error) {
	return c.newStream(ctx, domain.KindReply, fmt.Sprintf("/r/%s/comments", scope(subreddits)))
}

func (c *Client) newStream(ctx context.Context, kind domain.Kind, path string) (domain.ItemStream, error) {
	s := &stream{
		client:   c,
		kind:     kind,
		path:     path,
		interval: c.cfg.PollInterval,
	}
	if err := s.prime(ctx); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", path, err)
	}
	return s, nil
}

// stream polls one listing endpoint and hands out items one at a time,
// oldest first within each poll.
type stream struct {
	client   *Client
	kind     domain.Kind
	path     string
	interval time.Duration

	before     string
	emptyPolls int
	buf        []domain.Item
}

// prime records the newest fullname so the stream skips everything that
// existed before the subscription. No items are delivered from this call.
func (s *stream) prime(ctx context.Context) error {
	query := url.Values{"limit": {"1"}}
	data, err := s.client.getListing(ctx, s.path, query)
	if err != nil {
		return err
	}
	if len(data.Children) > 0 {
		s.before = data.Children[0].Data.Name
	}
	return nil
}

// Next blocks until the next item is available or the stream fails. Any
// error ends the stream; the supervisor resubscribes.
func (s *stream) Next(ctx context.Context) (*domain.Item, error) {
	for {
		if len(s.buf) > 0 {
			item := s.buf[0]
			s.buf = s.buf[1:]
			return &item, nil
		}

		if err := s.poll(ctx); err != nil {
			return nil, err
		}
		if len(s.buf) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.interval):
		}
	}
}

func (s *stream) poll(ctx context.Context) error {
	query := url.Values{"limit": {fmt.Sprint(pageLimit)}, "raw_json": {"1"}}
	if s.before != "" {
		query.Set("before", s.before)
	}

	data, err := s.client.getListing(ctx, s.path, query)
	if err != nil {
		return err
	}

	if len(data.Children) == 0 {
		s.emptyPolls++
		if s.emptyPolls >= anchorResetAfter && s.before != "" {
			s.client.logger.Warn("listing anchor stalled, re-priming on live head", "path", s.path)
			s.before = ""
			s.emptyPolls = 0
			return s.prime(ctx)
		}
		return nil
	}

	s.emptyPolls = 0
	// Listings come newest-first; the head is the next poll's anchor.
	s.before = data.Children[0].Data.Name

	// Deliver in upstream creation order.
	for i := len(data.Children) - 1; i >= 0; i-- {
		s.buf = append(s.buf, toItem(s.kind, &data.Children[i].Data))
	}
	return nil
}

func toItem(kind domain.Kind, d *thingData) domain.Item {
	return domain.Item{
		ID:         d.ID,
		Kind:       kind,
		Title:      d.Title,
		Body:       itemBody(kind, d),
		Subreddit:  d.Subreddit,
		Author:     d.Author,
		CreatedUTC: int64(d.CreatedUTC),
		Score:      d.Score,
		Permalink:  d.Permalink,
	}
}

func itemBody(kind domain.Kind, d *thingData) string {
	if kind == domain.KindPost {
		return d.SelfText
	}
	return d.Body
}
