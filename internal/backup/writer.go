// Package backup mirrors stored entries into append-only, day-partitioned
// CSV files, independent of the primary indexed store.
package backup

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/blackmichael/reddit-monitor/internal/domain"
)

// header is written once per partition, on first write to a new file. Column
// order matches the primary store's field order.
var header = []string{
	"id",
	"kind",
	"text",
	"subreddit",
	"author",
	"created_utc",
	"score",
	"matched_terms",
	"url",
}

// Writer appends entries to one CSV file per UTC calendar day, selected by
// the entry's creation time. Callers serialize Append; the repository holds
// its insert lock across the mirror write.
type Writer struct {
	dir string
}

// NewWriter creates the backup directory if needed and returns a Writer.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Append writes one entry row to the partition for its UTC calendar day,
// prefixed by the header row when the partition is new.
func (w *Writer) Append(entry *domain.Entry) error {
	path := w.partitionPath(entry.CreatedUTC)

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open backup partition: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("write backup header: %w", err)
		}
	}

	record := []string{
		entry.ID,
		string(entry.Kind),
		entry.Text,
		entry.Subreddit,
		entry.Author,
		strconv.FormatInt(entry.CreatedUTC, 10),
		strconv.FormatInt(entry.Score, 10),
		strings.Join(entry.MatchedTerms, ","),
		entry.URL,
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write backup row: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush backup row: %w", err)
	}
	return f.Sync()
}

func (w *Writer) partitionPath(createdUTC int64) string {
	day := time.Unix(createdUTC, 0).UTC().Format("2006-01-02")
	return filepath.Join(w.dir, day+"_monitoring.csv")
}
