package tracking

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
)

const createRunMetrics = `CREATE TABLE IF NOT EXISTS run_metrics (
	run_id    TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     REAL NOT NULL,
	logged_at TEXT NOT NULL
)`

// Metric is one stored row of run_metrics.
type Metric struct {
	RunID    string
	Key      string
	Value    float64
	LoggedAt time.Time
}

// HistoryTracker appends run metrics to a libsql database.
type HistoryTracker struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

// OpenHistory opens url with the libsql driver and creates the run_metrics
// table if needed. A local file is given as "file:path.db".
func OpenHistory(ctx context.Context, url, runID string) (*HistoryTracker, error) {
	if path, ok := localPath(url); ok {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
		}
	}
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping history database")
	}
	if _, err := db.ExecContext(ctx, createRunMetrics); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create run_metrics")
	}
	return &HistoryTracker{db: db, runID: runID, now: time.Now}, nil
}

// Log implements Tracker.
func (h *HistoryTracker) Log(ctx context.Context, key string, value float64) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO run_metrics (run_id, key, value, logged_at) VALUES (?, ?, ?, ?)`,
		h.runID, key, value, h.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert run metric")
	}
	return nil
}

// Metrics returns the metrics logged for runID in insertion order.
func (h *HistoryTracker) Metrics(ctx context.Context, runID string) ([]Metric, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT run_id, key, value, logged_at FROM run_metrics WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query run metrics")
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var m Metric
		var loggedAt string
		if err := rows.Scan(&m.RunID, &m.Key, &m.Value, &loggedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan run metric")
		}
		if m.LoggedAt, err = time.Parse(time.RFC3339Nano, loggedAt); err != nil {
			return nil, errors.Wrapf(err, "bad logged_at %q", loggedAt)
		}
		out = append(out, m)
	}
	return out, errors.WithStack(rows.Err())
}

// localPath extracts the file path from a "file:" url. In-memory databases
// have none.
func localPath(url string) (string, bool) {
	path, ok := strings.CutPrefix(url, "file:")
	if !ok {
		return "", false
	}
	path, _, _ = strings.Cut(path, "?")
	if path == "" || strings.Contains(path, ":memory:") {
		return "", false
	}
	return path, true
}

// Close implements Tracker.
func (h *HistoryTracker) Close(context.Context) error {
	return h.db.Close()
}
