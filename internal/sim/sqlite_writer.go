package sim

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"offtank-sim/internal/trace"
)

// HistoryStore keeps batch summaries in a local SQLite database so past
// batches can be compared.
type HistoryStore struct {
	db *sql.DB
}

// OpenHistory opens or creates the SQLite history database at path.
func OpenHistory(path string) (*HistoryStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		`CREATE TABLE IF NOT EXISTS batches (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL DEFAULT '',
			trials INTEGER NOT NULL,
			survived INTEGER NOT NULL,
			percent REAL NOT NULL,
			mean_death_time REAL NOT NULL,
			deaths_by_tank TEXT NOT NULL DEFAULT '[]',
			seed INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_ms INTEGER NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init history: %w", err)
		}
	}
	return &HistoryStore{db: db}, nil
}

// WriteSummary stores a finished batch. Writing the same run id twice
// replaces the earlier row.
func (h *HistoryStore) WriteSummary(s trace.SummaryRow) error {
	deaths, err := json.Marshal(s.DeathsByTank)
	if err != nil {
		return err
	}
	if s.DeathsByTank == nil {
		deaths = []byte("[]")
	}
	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err = h.db.Exec(`INSERT OR REPLACE INTO batches
		(run_id, scenario, trials, survived, percent, mean_death_time, deaths_by_tank, seed, workers, elapsed_ms, created_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.Scenario, s.Trials, s.Survived, s.Percent, s.MeanDeathTime,
		string(deaths), s.Seed, s.Workers, s.Elapsed.Milliseconds(), ts.UnixMilli())
	if err != nil {
		return fmt.Errorf("store batch %s: %w", s.RunID, err)
	}
	return nil
}

// History returns up to limit batches, newest first. limit <= 0 returns all.
func (h *HistoryStore) History(limit int) ([]trace.SummaryRow, error) {
	q := `SELECT run_id, scenario, trials, survived, percent, mean_death_time, deaths_by_tank,
		seed, workers, elapsed_ms, created_ms FROM batches ORDER BY created_ms DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := h.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []trace.SummaryRow
	for rows.Next() {
		var (
			s         trace.SummaryRow
			deaths    string
			elapsedMS int64
			created   int64
		)
		if err := rows.Scan(&s.RunID, &s.Scenario, &s.Trials, &s.Survived, &s.Percent, &s.MeanDeathTime,
			&deaths, &s.Seed, &s.Workers, &elapsedMS, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(deaths), &s.DeathsByTank); err != nil {
			return nil, fmt.Errorf("decode deaths for %s: %w", s.RunID, err)
		}
		s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		s.Timestamp = time.UnixMilli(created).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}
