package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/offerradar/internal/model"
)

// tsLayout is fixed width so stored timestamps sort lexically.
const tsLayout = "2006-01-02 15:04:05.000"

// RunRecord summarizes one pipeline run.
type RunRecord struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string // "ok", "degraded" or "failed"
	Fetched    int
	New        int
	Matched    int
	Rejected   int
	Deferred   int
	Malformed  int
	Error      string
}

// DeferredOffer is an offer whose batch failed and that is still awaiting a verdict.
type DeferredOffer struct {
	OfferID    string
	RunID      string
	Reason     string
	DeferredAt time.Time
}

// SQLiteLedger records run summaries and outstanding deferred offers in SQLite.
// It is diagnostics only; the JSON match store stays the source of truth.
type SQLiteLedger struct {
	db *sql.DB
}

// NewSQLiteLedger opens (or creates) a SQLite database at dbPath and ensures the
// runs and deferred_offers tables exist.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			status      TEXT NOT NULL,
			fetched     INTEGER NOT NULL,
			new_offers  INTEGER NOT NULL,
			matched     INTEGER NOT NULL,
			rejected    INTEGER NOT NULL,
			deferred    INTEGER NOT NULL,
			malformed   INTEGER NOT NULL,
			error       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS deferred_offers (
			offer_id    TEXT PRIMARY KEY,
			run_id      TEXT NOT NULL,
			reason      TEXT NOT NULL,
			deferred_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating ledger schema: %w", err)
		}
	}

	return &SQLiteLedger{db: db}, nil
}

// RecordRun stores a run summary. Recording the same run twice replaces it.
func (l *SQLiteLedger) RecordRun(r RunRecord) error {
	_, err := l.db.Exec(`INSERT OR REPLACE INTO runs
		(run_id, started_at, finished_at, status, fetched, new_offers, matched, rejected, deferred, malformed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, formatTS(r.StartedAt), formatTS(r.FinishedAt), r.Status,
		r.Fetched, r.New, r.Matched, r.Rejected, r.Deferred, r.Malformed, r.Error,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.RunID, err)
	}
	return nil
}

// RecordDeferred marks offers as awaiting a verdict. An offer deferred again
// keeps a single row pointing at the latest run.
func (l *SQLiteLedger) RecordDeferred(runID string, deferred []model.Outcome, at time.Time) error {
	if len(deferred) == 0 {
		return nil
	}
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("recording deferred offers: %w", err)
	}
	defer tx.Rollback()

	for _, o := range deferred {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO deferred_offers (offer_id, run_id, reason, deferred_at) VALUES (?, ?, ?, ?)",
			o.OfferID, runID, o.Reason, formatTS(at),
		); err != nil {
			return fmt.Errorf("recording deferred offer %s: %w", o.OfferID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recording deferred offers: %w", err)
	}
	return nil
}

// ResolveDeferred removes offers that have since received a verdict.
func (l *SQLiteLedger) ResolveDeferred(offerIDs []string) error {
	if len(offerIDs) == 0 {
		return nil
	}
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("resolving deferred offers: %w", err)
	}
	defer tx.Rollback()

	for _, id := range offerIDs {
		if _, err := tx.Exec("DELETE FROM deferred_offers WHERE offer_id = ?", id); err != nil {
			return fmt.Errorf("resolving deferred offer %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("resolving deferred offers: %w", err)
	}
	return nil
}

// PendingDeferred lists offers still awaiting a verdict, oldest first.
func (l *SQLiteLedger) PendingDeferred() ([]DeferredOffer, error) {
	rows, err := l.db.Query("SELECT offer_id, run_id, reason, deferred_at FROM deferred_offers ORDER BY deferred_at, offer_id")
	if err != nil {
		return nil, fmt.Errorf("listing deferred offers: %w", err)
	}
	defer rows.Close()

	var out []DeferredOffer
	for rows.Next() {
		var d DeferredOffer
		var at string
		if err := rows.Scan(&d.OfferID, &d.RunID, &d.Reason, &at); err != nil {
			return nil, fmt.Errorf("scanning deferred offer: %w", err)
		}
		d.DeferredAt = parseTS(at)
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecentRuns returns up to limit runs, newest first.
func (l *SQLiteLedger) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := l.db.Query(`SELECT run_id, started_at, finished_at, status, fetched, new_offers,
		matched, rejected, deferred, malformed, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(&r.RunID, &started, &finished, &r.Status, &r.Fetched, &r.New,
			&r.Matched, &r.Rejected, &r.Deferred, &r.Malformed, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTS(started)
		r.FinishedAt = parseTS(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Cleanup deletes run summaries older than the given duration.
func (l *SQLiteLedger) Cleanup(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	_, err := l.db.Exec("DELETE FROM runs WHERE started_at < ?", formatTS(cutoff))
	if err != nil {
		return fmt.Errorf("cleaning up runs older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
