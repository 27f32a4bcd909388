package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	winner INTEGER NOT NULL,
	winning_line TEXT NOT NULL,
	moves INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS results_ended_at_idx ON results (ended_at DESC);
`

// SQLiteStore keeps the archive in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, result Result) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	if err := validate(result); err != nil {
		return err
	}
	line, err := encodeLine(result.WinningLine)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO results (session_id, winner, winning_line, moves, started_at, ended_at)
VALUES (?,?,?,?,?,?)`,
		result.SessionID, int(result.Winner), line, result.Moves, toMillis(result.StartedAt), toMillis(result.EndedAt))
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentResults(ctx context.Context, limit int) ([]Result, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, winner, winning_line, moves, started_at, ended_at
FROM results
ORDER BY ended_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Result
	for rows.Next() {
		var (
			r              Result
			winner         int
			line           string
			started, ended int64
		)
		if err := rows.Scan(&r.SessionID, &winner, &line, &r.Moves, &started, &ended); err != nil {
			return nil, err
		}
		r.Winner = playerFromInt(winner)
		r.StartedAt = fromMillis(started)
		r.EndedAt = fromMillis(ended)
		if r.WinningLine, err = decodeLine(line); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) WinTotals(ctx context.Context) (WinTotals, error) {
	var totals WinTotals
	if s == nil || s.db == nil {
		return totals, ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, `SELECT winner, COUNT(*) FROM results GROUP BY winner`)
	if err != nil {
		return totals, err
	}
	defer rows.Close()
	for rows.Next() {
		var winner, wins int
		if err := rows.Scan(&winner, &wins); err != nil {
			return totals, err
		}
		totals.add(playerFromInt(winner), wins)
	}
	return totals, rows.Err()
}
