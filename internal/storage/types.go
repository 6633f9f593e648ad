package storage

import (
	"time"

	"interval-collector/internal/riot"
)

// ArchiveRecord is one JSONL line: the raw payloads a match was reduced from.
type ArchiveRecord struct {
	RunID      string                 `json:"runId"`
	MatchID    string                 `json:"matchId"`
	ArchivedAt time.Time              `json:"archivedAt"`
	Match      *riot.MatchResponse    `json:"match"`
	Timeline   *riot.TimelineResponse `json:"timeline"`
}
