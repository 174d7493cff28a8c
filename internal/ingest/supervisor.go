// Package ingest runs the two stream consumers, each wrapped in an
// independent reconnect/backoff loop. This is the process's steady state;
// under normal operation the loops never terminate.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/blackmichael/reddit-monitor/internal/domain"
	"github.com/blackmichael/reddit-monitor/internal/metrics"
)

// DefaultBackoff is the fixed delay between a connection failure and the
// next reconnect attempt.
const DefaultBackoff = 10 * time.Second

// Supervisor owns the post and reply consumers. Each runs the same loop:
// subscribe, stream until any error, log it, back off, resubscribe. There is
// no retry cutoff; the supervisor trades fast-fail for availability and is
// meant to run unattended indefinitely.
type Supervisor struct {
	source     domain.StreamSource
	service    *domain.WatchService
	subreddits []string
	backoff    time.Duration
	logger     *slog.Logger
}

// NewSupervisor creates a Supervisor. A non-positive backoff falls back to
// DefaultBackoff.
func NewSupervisor(
	source domain.StreamSource,
	service *domain.WatchService,
	subreddits []string,
	backoff time.Duration,
	logger *slog.Logger,
) *Supervisor {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Supervisor{
		source:     source,
		service:    service,
		subreddits: subreddits,
		backoff:    backoff,
		logger:     logger,
	}
}

// Run starts both consumers and blocks until ctx is cancelled. A failure or
// backoff cycle in one consumer never blocks the other; they share nothing
// but the store.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		s.runConsumer(ctx, domain.KindPost, s.source.StreamPosts)
	}()
	go func() {
		defer wg.Done()
		s.runConsumer(ctx, domain.KindReply, s.source.StreamComments)
	}()

	wg.Wait()
}

type subscribeFunc func(ctx context.Context, subreddits []string) (domain.ItemStream, error)

func (s *Supervisor) runConsumer(ctx context.Context, kind domain.Kind, subscribe subscribeFunc) {
	logger := s.logger.With("kind", kind)

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := subscribe(ctx, s.subreddits)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.StreamErrors.WithLabelValues(string(kind)).Inc()
			logger.Error("subscribe failed, backing off", "error", err)
			if !s.sleepBackoff(ctx) {
				return
			}
			continue
		}

		logger.Info("stream connected")

		err = s.consume(ctx, kind, stream)
		if ctx.Err() != nil {
			return
		}
		metrics.StreamErrors.WithLabelValues(string(kind)).Inc()
		logger.Error("stream failed, backing off", "error", err)
		if !s.sleepBackoff(ctx) {
			return
		}
	}
}

// consume dispatches items until the stream errors. Per-item failures are
// logged with enough detail for manual recovery from the backup artifact and
// never unwind the loop; only connection-level errors are returned.
func (s *Supervisor) consume(ctx context.Context, kind domain.Kind, stream domain.ItemStream) error {
	for {
		item, err := stream.Next(ctx)
		if err != nil {
			return err
		}

		metrics.ItemsReceived.WithLabelValues(string(kind)).Inc()

		stored, err := s.service.ProcessItem(ctx, item)
		if err != nil {
			metrics.InsertFailures.WithLabelValues(string(kind)).Inc()
			s.logger.Error("failed to store item",
				"id", item.ID,
				"kind", kind,
				"error", err,
			)
			continue
		}
		if stored {
			metrics.EntriesStored.WithLabelValues(string(kind)).Inc()
		}
	}
}

// sleepBackoff waits the fixed backoff delay, returning false when ctx was
// cancelled during the wait.
func (s *Supervisor) sleepBackoff(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.backoff):
		return true
	}
}
