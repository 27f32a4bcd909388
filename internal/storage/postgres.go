package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type PostgresStore struct {
	conn *pgx.Conn
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{conn: conn}, nil
}

func (p *PostgresStore) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Close(context.Background())
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	_, err := p.conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS results (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	winner SMALLINT NOT NULL,
	winning_line JSONB NOT NULL,
	moves INTEGER NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	ended_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS results_ended_at_idx ON results (ended_at DESC);
`)
	return err
}

func (p *PostgresStore) SaveResult(ctx context.Context, result Result) error {
	if p == nil || p.conn == nil {
		return ErrNotConfigured
	}
	if err := validate(result); err != nil {
		return err
	}
	line, err := encodeLine(result.WinningLine)
	if err != nil {
		return err
	}
	_, err = p.conn.Exec(ctx, `INSERT INTO results (session_id, winner, winning_line, moves, started_at, ended_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		result.SessionID, int(result.Winner), line, result.Moves, result.StartedAt.UTC(), result.EndedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (p *PostgresStore) RecentResults(ctx context.Context, limit int) ([]Result, error) {
	if p == nil || p.conn == nil {
		return nil, ErrNotConfigured
	}
	rows, err := p.conn.Query(ctx, `
SELECT session_id, winner, winning_line::text, moves, started_at, ended_at
FROM results
ORDER BY ended_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Result
	for rows.Next() {
		var (
			r      Result
			winner int
			line   string
		)
		if err := rows.Scan(&r.SessionID, &winner, &line, &r.Moves, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, err
		}
		r.Winner = playerFromInt(winner)
		if r.WinningLine, err = decodeLine(line); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (p *PostgresStore) WinTotals(ctx context.Context) (WinTotals, error) {
	var totals WinTotals
	if p == nil || p.conn == nil {
		return totals, ErrNotConfigured
	}
	rows, err := p.conn.Query(ctx, `SELECT winner, COUNT(*) FROM results GROUP BY winner`)
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
