package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Driver names registered by the imported database/sql drivers.
const (
	DriverSQLite = "sqlite"
	DriverLibSQL = "libsql"
)

// SQLStore is a Sink over database/sql, serving both local SQLite files and
// remote Turso (libsql) databases.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLiteStore opens a local SQLite database file.
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// One writer; keeps PRAGMAs on a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return &SQLStore{db: db, driver: DriverSQLite}, nil
}

// NewLibSQLStore connects to a Turso database.
func NewLibSQLStore(ctx context.Context, url, authToken string) (*SQLStore, error) {
	connStr := url
	if authToken != "" {
		connStr = fmt.Sprintf("%s?authToken=%s", url, authToken)
	}

	db, err := sql.Open(DriverLibSQL, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Turso: %w", err)
	}

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping Turso: %w", err)
	}

	return &SQLStore{db: db, driver: DriverLibSQL}, nil
}

// Driver returns the database/sql driver in use.
func (s *SQLStore) Driver() string {
	return s.driver
}

// Close closes the connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables if they don't exist
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, query := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// MatchExists checks if a match already exists in the database
func (s *SQLStore) MatchExists(ctx context.Context, matchID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM matches WHERE match_id = ?)`, matchID).Scan(&exists)
	return exists == 1, err
}

// SaveMatch inserts the match, roster and intervals inside one transaction
// using prepared statements.
func (s *SQLStore) SaveMatch(ctx context.Context, m MatchRecord, players []PlayerRecord, reduce ReduceFunc) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertMatch := fmt.Sprintf(`INSERT INTO matches (%s) VALUES (%s)`,
		strings.Join(matchColumns, ", "), placeholders(len(matchColumns), false))
	args := matchArgs(m, func(t time.Time) any { return t.UTC().Format(sqliteTime) })
	if _, err := tx.ExecContext(ctx, insertMatch, args...); err != nil {
		return 0, fmt.Errorf("failed to insert match %s: %w", m.MatchID, err)
	}

	playerStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO players (match_id, participant_id, summoner_name, team_id, champion, role, individual_position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)
	if err != nil {
		return 0, err
	}
	defer playerStmt.Close()

	rowIDs := make(map[int]int64, len(players))
	for _, p := range players {
		var id int64
		err := playerStmt.QueryRowContext(ctx,
			p.MatchID, p.ParticipantID, p.SummonerName, p.TeamID, p.Champion, p.Role, p.IndividualPosition).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to insert player %d: %w", p.ParticipantID, err)
		}
		rowIDs[p.ParticipantID] = id
	}

	snaps, err := reduce(rowIDs)
	if err != nil {
		return 0, err
	}

	intervalStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO intervals (%s) VALUES (%s)`,
		strings.Join(intervalColumns, ", "), placeholders(len(intervalColumns), false)))
	if err != nil {
		return 0, err
	}
	defer intervalStmt.Close()

	for _, snap := range snaps {
		if _, err := intervalStmt.ExecContext(ctx, intervalRow(m.MatchID, snap)...); err != nil {
			return 0, fmt.Errorf("failed to insert interval for player %d: %w", snap.ParticipantID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit match %s: %w", m.MatchID, err)
	}
	return len(snaps), nil
}

// Count returns the number of rows in a table
func (s *SQLStore) Count(ctx context.Context, table string) (int64, error) {
	if _, err := Columns(table); err != nil {
		return 0, err
	}
	var count int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count)
	return count, err
}

// ScanBatches pages through a table in key order, batchSize rows at a time.
func (s *SQLStore) ScanBatches(ctx context.Context, table string, batchSize int, fn func(rows [][]any) error) error {
	cols, err := Columns(table)
	if err != nil {
		return err
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	key := tableKey[table]
	keyIdx := keyIndex(table, cols)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s > ? ORDER BY %s LIMIT ?`,
		strings.Join(cols, ", "), table, key, key)

	last := firstKey(table)
	for {
		batch, err := s.scanBatch(ctx, query, len(cols), last, batchSize)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
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

func (s *SQLStore) scanBatch(ctx context.Context, query string, width int, after any, limit int) ([][]any, error) {
	rows, err := s.db.QueryContext(ctx, query, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch [][]any
	for rows.Next() {
		values := make([]any, width)
		ptrs := make([]any, width)
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			// Drivers may reuse byte buffers between rows
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		batch = append(batch, values)
	}
	return batch, rows.Err()
}
