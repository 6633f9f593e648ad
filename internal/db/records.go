package db

import (
	"context"
	"time"

	"interval-collector/internal/timeline"
)

// MatchRecord is one row of the matches table.
type MatchRecord struct {
	MatchID      string
	GameDuration int    // seconds
	Patch        string // major version segment, "14" of "14.3.555.1234"
	GameVersion  string
	WinningTeam  int
	GameDate     time.Time
	GameMode     string
	QueueID      int
	Region       string
	AverageRank  string
	BlueBans     string // comma-joined champion ids
	RedBans      string
}

// PlayerRecord is one row of the players table.
type PlayerRecord struct {
	MatchID            string
	ParticipantID      int
	SummonerName       string
	TeamID             int
	Champion           string
	Role               string
	IndividualPosition string
}

// ReduceFunc produces a match's snapshots once roster row ids are known,
// keyed by participant id.
type ReduceFunc func(rowIDs map[int]int64) ([]timeline.Snapshot, error)

// Scanner pages through a table in key order for bulk export.
type Scanner interface {
	ScanBatches(ctx context.Context, table string, batchSize int, fn func(rows [][]any) error) error
}

// Sink is the persistence surface shared by every backend.
type Sink interface {
	Scanner
	EnsureSchema(ctx context.Context) error
	MatchExists(ctx context.Context, matchID string) (bool, error)
	// SaveMatch writes the match, its roster and the reduced snapshots in
	// one transaction and returns the number of interval rows written.
	SaveMatch(ctx context.Context, m MatchRecord, players []PlayerRecord, reduce ReduceFunc) (int, error)
	Count(ctx context.Context, table string) (int64, error)
	Close() error
}
