package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ItemsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_items_received_total",
		Help: "Upstream items delivered to a consumer, matched or not",
	}, []string{"kind"})

	EntriesStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_entries_stored_total",
		Help: "Entries that passed the interest policy and were newly stored",
	}, []string{"kind"})

	DuplicatesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_duplicates_skipped_total",
		Help: "Inserts absorbed by id dedup, typically redeliveries after a reconnect",
	})

	StreamErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_stream_errors_total",
		Help: "Upstream stream failures that triggered a backoff-and-reconnect cycle",
	}, []string{"kind"})

	InsertFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "monitor_insert_failures_total",
		Help: "Primary store write failures; the item is dropped from that insert path",
	}, []string{"kind"})

	BackupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_backup_failures_total",
		Help: "Backup partition writes that failed after a successful primary insert",
	})
)

// MustRegister registers all pipeline metrics with the given registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ItemsReceived,
		EntriesStored,
		DuplicatesSkipped,
		StreamErrors,
		InsertFailures,
		BackupFailures,
	)
}
