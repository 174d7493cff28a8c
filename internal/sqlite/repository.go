package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/blackmichael/reddit-monitor/internal/domain"
	"github.com/blackmichael/reddit-monitor/internal/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// BackupWriter mirrors a stored entry into the day-partitioned backup. The
// primary write has already succeeded when Append is called.
type BackupWriter interface {
	Append(entry *domain.Entry) error
}

// Repository implements domain.EntryStore on SQLite, mirroring every
// successful insert to an optional backup writer.
type Repository struct {
	db     *sql.DB
	backup BackupWriter
	logger *slog.Logger

	// mu serializes insert + backup append so duplicate detection and the
	// partition write cannot interleave between the two consumers.
	mu sync.Mutex
}

// NewRepository opens (creating if needed) the SQLite database at path, runs
// migrations, and returns a Repository. backup may be nil for read-only use
// (the dashboard). The caller should Close the repository when done.
func NewRepository(path string, backup BackupWriter, logger *slog.Logger) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{
		db:     db,
		backup: backup,
		logger: logger,
	}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Insert writes a new entry, returning false when the id already exists.
// Successful inserts are appended to the backup partition for the entry's
// UTC calendar day; a backup failure is logged and does not fail the insert.
//
// matched_terms is stored comma-joined, so configured terms must not
// themselves contain commas.
func (r *Repository) Insert(ctx context.Context, entry *domain.Entry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO entries
			(id, kind, text, subreddit, author, created_utc, score, matched_terms, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.Kind),
		entry.Text,
		entry.Subreddit,
		entry.Author,
		entry.CreatedUTC,
		entry.Score,
		strings.Join(entry.MatchedTerms, ","),
		entry.URL,
	)
	if err != nil {
		return false, fmt.Errorf("insert entry: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		metrics.DuplicatesSkipped.Inc()
		return false, nil
	}

	if r.backup != nil {
		if err := r.backup.Append(entry); err != nil {
			// Degraded durability only; the primary write already succeeded.
			metrics.BackupFailures.Inc()
			r.logger.Error("backup append failed",
				"id", entry.ID,
				"kind", entry.Kind,
				"error", err,
			)
		}
	}

	return true, nil
}

// Fetch returns up to limit entries newest-first by created_utc. A non-empty
// query restricts results to entries whose text contains it, ignoring case.
func (r *Repository) Fetch(ctx context.Context, limit int, query string) ([]domain.Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if query != "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, kind, text, subreddit, author, created_utc, score, matched_terms, url
			FROM entries
			WHERE instr(lower(text), lower(?)) > 0
			ORDER BY created_utc DESC
			LIMIT ?`,
			query, limit,
		)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, kind, text, subreddit, author, created_utc, score, matched_terms, url
			FROM entries
			ORDER BY created_utc DESC
			LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var (
			e     domain.Entry
			kind  string
			terms string
		)
		err := rows.Scan(
			&e.ID,
			&kind,
			&e.Text,
			&e.Subreddit,
			&e.Author,
			&e.CreatedUTC,
			&e.Score,
			&terms,
			&e.URL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = domain.Kind(kind)
		if terms != "" {
			e.MatchedTerms = strings.Split(terms, ",")
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// HourlyCounts buckets entries per UTC hour, oldest bucket first.
func (r *Repository) HourlyCounts(ctx context.Context, since time.Time) ([]domain.HourlyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%dT%H:00:00Z', created_utc, 'unixepoch') AS hour, COUNT(*)
		FROM entries
		WHERE created_utc >= ?
		GROUP BY hour
		ORDER BY hour ASC`,
		since.UTC().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query hourly counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.HourlyCount
	for rows.Next() {
		var c domain.HourlyCount
		if err := rows.Scan(&c.Hour, &c.Count); err != nil {
			return nil, fmt.Errorf("scan hourly count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hourly counts: %w", err)
	}

	return counts, nil
}
