package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a Sink backed by a Postgres connection pool.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a connection pool and verifies it with a ping.
func NewPGStore(ctx context.Context, dbURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGStore{pool: pool}, nil
}

// Close closes the database connection pool
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// Pool returns the underlying connection pool for custom queries
func (s *PGStore) Pool() *pgxpool.Pool {
	return s.pool
}

// EnsureSchema creates the tables if they don't exist
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	for _, query := range pgSchema {
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// MatchExists checks if a match already exists in the database
func (s *PGStore) MatchExists(ctx context.Context, matchID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM matches WHERE match_id = $1)
	`, matchID).Scan(&exists)
	return exists, err
}

// SaveMatch inserts the match and roster, then copies the interval rows in
// bulk. Nothing is visible until commit.
func (s *PGStore) SaveMatch(ctx context.Context, m MatchRecord, players []PlayerRecord, reduce ReduceFunc) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertMatch := fmt.Sprintf(`INSERT INTO matches (%s) VALUES (%s)`,
		strings.Join(matchColumns, ", "), placeholders(len(matchColumns), true))
	if _, err := tx.Exec(ctx, insertMatch, matchArgs(m, func(t time.Time) any { return t.UTC() })...); err != nil {
		return 0, fmt.Errorf("failed to insert match %s: %w", m.MatchID, err)
	}

	rowIDs := make(map[int]int64, len(players))
	for _, p := range players {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO players (match_id, participant_id, summoner_name, team_id, champion, role, individual_position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, p.MatchID, p.ParticipantID, p.SummonerName, p.TeamID, p.Champion, p.Role, p.IndividualPosition).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert player %d: %w", p.ParticipantID, err)
		}
		rowIDs[p.ParticipantID] = id
	}

	snaps, err := reduce(rowIDs)
	if err != nil {
		return 0, err
	}

	rows := make([][]any, len(snaps))
	for i, snap := range snaps {
		rows[i] = intervalRow(m.MatchID, snap)
	}
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{TableIntervals}, intervalColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy intervals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit match %s: %w", m.MatchID, err)
	}
	return int(copied), nil
}

// Count returns the number of rows in a table
func (s *PGStore) Count(ctx context.Context, table string) (int64, error) {
	if _, err := Columns(table); err != nil {
		return 0, err
	}
	var count int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count)
	return count, err
}

// ScanBatches pages through a table in key order, batchSize rows at a time.
func (s *PGStore) ScanBatches(ctx context.Context, table string, batchSize int, fn func(rows [][]any) error) error {
	cols, err := Columns(table)
	if err != nil {
		return err
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	key := tableKey[table]
	keyIdx := keyIndex(table, cols)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s > $1 ORDER BY %s LIMIT $2`,
		strings.Join(cols, ", "), table, key, key)

	last := firstKey(table)
	for {
		rows, err := s.pool.Query(ctx, query, last, batchSize)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		var batch [][]any
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				rows.Close()
				return err
			}
			batch = append(batch, values)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		last = batch[len(batch)-1][keyIdx]
	}
}
