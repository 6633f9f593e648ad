package collector

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	matchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collector_matches_total",
		Help: "Matches processed by outcome",
	}, []string{"outcome"})

	identitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collector_identities_total",
		Help: "Identities processed by outcome",
	}, []string{"outcome"})

	snapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_snapshots_total",
		Help: "Interval rows committed",
	})
)

// Stats summarises a run
type Stats struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Cancelled bool

	Identities          int
	IdentitiesFailed    int
	IdentitiesDuplicate int

	MatchesSeen      int
	MatchesSaved     int
	MatchesExisting  int
	MatchesAborted   int
	MatchesMalformed int
	MatchesFailed    int

	Snapshots int
}

// Skipped counts matches intentionally not stored.
func (s Stats) Skipped() int {
	return s.MatchesExisting + s.MatchesAborted + s.MatchesMalformed
}

// Log writes the run summary
func (s Stats) Log() {
	title := "Run Complete"
	if s.Cancelled {
		title = "Run Interrupted"
	}
	logger := log.WithField("run", s.RunID)
	logger.Printf("=== %s ===", title)
	logger.Printf("Total time: %s", formatDuration(s.Duration))
	logger.Printf("Identities: %d (%d failed, %d duplicate)", s.Identities, s.IdentitiesFailed, s.IdentitiesDuplicate)
	logger.Printf("Matches saved: %d, skipped: %d (%d stored, %d aborted, %d malformed), failed: %d",
		s.MatchesSaved, s.Skipped(), s.MatchesExisting, s.MatchesAborted, s.MatchesMalformed, s.MatchesFailed)
	logger.Printf("Intervals written: %d", s.Snapshots)

	if s.MatchesSaved > 0 && s.Duration > 0 {
		logger.Printf("Avg time per match: %s", formatDuration(s.Duration/time.Duration(s.MatchesSaved)))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%02dm%02ds", hours, mins, secs)
}
