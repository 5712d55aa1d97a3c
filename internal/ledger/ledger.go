// Package ledger persists LLM request events and run records to a local
// SQLite database so past generations stay inspectable.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abhisek/examforge/internal/llm"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Ledger wraps the SQLite database holding request events and runs.
// It implements llm.Recorder.
type Ledger struct {
	db *sql.DB
}

var _ llm.Recorder = (*Ledger)(nil)

// Open connects to the SQLite database at dsn, applying recommended
// pragmas and creating the schema when missing.
func Open(dsn string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Ledger{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (l *Ledger) DB() *sql.DB {
	return l.db
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS llm_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at    TEXT    NOT NULL,
	provider      TEXT    NOT NULL,
	model         TEXT    NOT NULL,
	purpose       TEXT    NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	latency_ms    INTEGER NOT NULL,
	success       INTEGER NOT NULL,
	error_message TEXT    NOT NULL DEFAULT '',
	request_body  TEXT    NOT NULL DEFAULT '',
	response_body TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_llm_events_purpose ON llm_events(purpose);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	topic       TEXT    NOT NULL,
	requested   INTEGER NOT NULL,
	completed   INTEGER NOT NULL,
	accepted    INTEGER NOT NULL,
	rejected    INTEGER NOT NULL,
	fallback    INTEGER NOT NULL,
	min_score   REAL    NOT NULL,
	started_at  TEXT    NOT NULL,
	duration_ms INTEGER NOT NULL,
	output_path TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	error       TEXT    NOT NULL DEFAULT ''
);
`
	_, err := db.Exec(schema)
	return err
}

// AppendRequest records one provider call.
func (l *Ledger) AppendRequest(ctx context.Context, ev llm.RequestEvent) error {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO llm_events
	(created_at, provider, model, purpose, input_tokens, output_tokens,
	 latency_ms, success, error_message, request_body, response_body)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		ev.Provider, ev.Model, ev.Purpose,
		ev.InputTokens, ev.OutputTokens, ev.LatencyMs,
		boolToInt(ev.Success), ev.ErrorMessage, ev.RequestBody, ev.ResponseBody)
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// Event is one recorded provider call.
type Event struct {
	ID           int64
	CreatedAt    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// QueryEvents returns the most recent events, newest first.
// purpose filters when non-empty.
func (l *Ledger) QueryEvents(ctx context.Context, purpose string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT id, created_at, provider, model, purpose, input_tokens, output_tokens,
       latency_ms, success, error_message
FROM llm_events`
	args := []any{}
	if purpose != "" {
		query += " WHERE purpose = ?"
		args = append(args, purpose)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var createdAt string
		var success int
		if err := rows.Scan(&ev.ID, &createdAt, &ev.Provider, &ev.Model, &ev.Purpose,
			&ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs, &success, &ev.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		ev.Success = success != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetEvent loads one event with its full request and response bodies.
func (l *Ledger) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row := l.db.QueryRowContext(ctx, `
SELECT id, created_at, provider, model, purpose, input_tokens, output_tokens,
       latency_ms, success, error_message, request_body, response_body
FROM llm_events WHERE id = ?`, id)

	var ev Event
	var createdAt string
	var success int
	err := row.Scan(&ev.ID, &createdAt, &ev.Provider, &ev.Model, &ev.Purpose,
		&ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs, &success,
		&ev.ErrorMessage, &ev.RequestBody, &ev.ResponseBody)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("event %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	ev.Success = success != 0
	return &ev, nil
}

// UsageRow aggregates token usage for one group.
type UsageRow struct {
	Key          string
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// UsageByPurpose aggregates request counts and token usage per purpose.
func (l *Ledger) UsageByPurpose(ctx context.Context) ([]UsageRow, error) {
	return l.usageBy(ctx, "purpose")
}

// UsageByModel aggregates request counts and token usage per model.
func (l *Ledger) UsageByModel(ctx context.Context) ([]UsageRow, error) {
	return l.usageBy(ctx, "model")
}

func (l *Ledger) usageBy(ctx context.Context, column string) ([]UsageRow, error) {
	// column is one of two fixed identifiers, never user input.
	query := fmt.Sprintf(`
SELECT %s,
       COUNT(*),
       SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END),
       SUM(input_tokens),
       SUM(output_tokens),
       AVG(latency_ms)
FROM llm_events
GROUP BY %s
ORDER BY COUNT(*) DESC`, column, column)

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("aggregate usage: %w", err)
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var r UsageRow
		if err := rows.Scan(&r.Key, &r.Requests, &r.Failures,
			&r.InputTokens, &r.OutputTokens, &r.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Run is one persisted generation run record.
type Run struct {
	ID         string
	Topic      string
	Requested  int
	Completed  int
	Accepted   int
	Rejected   int
	Fallback   int
	MinScore   float64
	StartedAt  time.Time
	DurationMs int64
	OutputPath string
	Status     string
	Error      string
}

// AppendRun records a finished (or aborted) generation run.
func (l *Ledger) AppendRun(ctx context.Context, r Run) error {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO runs
	(id, topic, requested, completed, accepted, rejected, fallback,
	 min_score, started_at, duration_ms, output_path, status, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Topic, r.Requested, r.Completed, r.Accepted, r.Rejected,
		r.Fallback, r.MinScore, r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.DurationMs, r.OutputPath, r.Status, r.Error)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// QueryRuns returns the most recent runs, newest first.
func (l *Ledger) QueryRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
SELECT id, topic, requested, completed, accepted, rejected, fallback,
       min_score, started_at, duration_ms, output_path, status, error
FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		if err := rows.Scan(&r.ID, &r.Topic, &r.Requested, &r.Completed,
			&r.Accepted, &r.Rejected, &r.Fallback, &r.MinScore,
			&startedAt, &r.DurationMs, &r.OutputPath, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// DefaultDBPath resolves the database file path in priority order:
// 1. EXAMFORGE_DB environment variable
// 2. $XDG_DATA_HOME/examforge/examforge.db
// 3. ~/.local/share/examforge/examforge.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("EXAMFORGE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "examforge", "examforge.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
