package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"interval-collector/internal/db"
	"interval-collector/internal/riot"
	"interval-collector/internal/storage"
	"interval-collector/internal/timeline"
)

const (
	DefaultMatchesPerPlayer = 10
	DefaultIdentityCooldown = 15 * time.Second
)

var (
	// ErrAborted marks a match the server reports as aborted. Skipped, not a failure.
	ErrAborted = errors.New("match aborted")
	// ErrMalformed marks a match missing a team, its roster or its timeline.
	ErrMalformed = errors.New("malformed match data")

	errAlreadyStored = errors.New("match already stored")
)

// Fetcher is the part of the Riot client the collector uses.
type Fetcher interface {
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error)
	GetMatchHistory(ctx context.Context, puuid string, queueID, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.MatchResponse, error)
	GetTimeline(ctx context.Context, matchID string) (*riot.TimelineResponse, error)
	GetRankedEntriesByPUUID(ctx context.Context, puuid string) ([]riot.LeagueEntryResponse, error)
}

// Store persists matches. SaveMatch must be all-or-nothing.
type Store interface {
	MatchExists(ctx context.Context, matchID string) (bool, error)
	SaveMatch(ctx context.Context, m db.MatchRecord, players []db.PlayerRecord, reduce db.ReduceFunc) (int, error)
}

// Archiver keeps the raw payloads of saved matches.
type Archiver interface {
	Append(record *storage.ArchiveRecord) error
}

// Config holds collector configuration
type Config struct {
	MatchesPerPlayer int
	QueueID          int
	Region           string // stored on every match row
	SampleInterval   int
	IdentityCooldown time.Duration

	// Sleep waits out the cooldown; defaults to a context-aware timer.
	Sleep riot.SleepFunc
}

// Collector walks a list of identities and stores the interval snapshots of
// their recent matches, one match per transaction.
type Collector struct {
	fetcher Fetcher
	store   Store
	archive Archiver
	cfg     Config
	runID   string

	// Deduplication within a run
	visitedPUUIDs  *bloom.BloomFilter
	visitedMatches *bloom.BloomFilter

	stats Stats
}

// Option configures a Collector
type Option func(*Collector)

// WithArchive stores the raw match and timeline of every saved match.
func WithArchive(a Archiver) Option {
	return func(c *Collector) {
		c.archive = a
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(c *Collector) {
		c.runID = id
	}
}

// New creates a collector
func New(fetcher Fetcher, store Store, cfg Config, opts ...Option) *Collector {
	if cfg.MatchesPerPlayer <= 0 {
		cfg.MatchesPerPlayer = DefaultMatchesPerPlayer
	}
	if cfg.QueueID == 0 {
		cfg.QueueID = 420
	}
	if cfg.Region == "" {
		cfg.Region = riot.DefaultRegion
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = timeline.DefaultInterval
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}

	c := &Collector{
		fetcher:        fetcher,
		store:          store,
		cfg:            cfg,
		runID:          uuid.NewString(),
		visitedPUUIDs:  bloom.NewWithEstimates(10000, 0.001),
		visitedMatches: bloom.NewWithEstimates(100000, 0.001),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunID identifies this collector's run in logs and archive records.
func (c *Collector) RunID() string {
	return c.runID
}

// Run processes identities in order. Cancellation is honoured between
// matches; matches already committed stay committed. The returned error is
// the context's when the run was interrupted, nil otherwise.
func (c *Collector) Run(ctx context.Context, identities []Identity) (Stats, error) {
	c.stats = Stats{RunID: c.runID, StartedAt: time.Now()}
	logger := log.WithField("run", c.runID)
	logger.Printf("[Collector] Starting run over %d identities", len(identities))

	var runErr error
	for i, id := range identities {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if err := c.processIdentity(ctx, id); err != nil {
			runErr = err
			break
		}

		if i < len(identities)-1 && c.cfg.IdentityCooldown > 0 {
			log.Debugf("[Collector] Cooling down for %s", c.cfg.IdentityCooldown)
			if err := c.cfg.Sleep(ctx, c.cfg.IdentityCooldown); err != nil {
				runErr = err
				break
			}
		}
	}

	c.stats.Duration = time.Since(c.stats.StartedAt)
	c.stats.Cancelled = runErr != nil
	c.stats.Log()
	return c.stats, runErr
}

// processIdentity returns an error only when the run must stop.
func (c *Collector) processIdentity(ctx context.Context, id Identity) error {
	c.stats.Identities++
	logger := log.WithField("identity", id.String())
	logger.Printf("[Collector] Looking up %s", id)

	account, err := c.fetcher.GetAccountByRiotID(ctx, id.GameName, id.TagLine)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.stats.IdentitiesFailed++
		identitiesTotal.WithLabelValues("failed").Inc()
		logger.Warnf("[Collector] Account lookup failed: %v (skipping)", err)
		return nil
	}

	if c.visitedPUUIDs.TestString(account.PUUID) {
		c.stats.IdentitiesDuplicate++
		identitiesTotal.WithLabelValues("duplicate").Inc()
		logger.Infof("[Collector] %s already processed this run (skipping)", shortID(account.PUUID))
		return nil
	}
	c.visitedPUUIDs.AddString(account.PUUID)

	matchIDs, err := c.fetcher.GetMatchHistory(ctx, account.PUUID, c.cfg.QueueID, c.cfg.MatchesPerPlayer)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.stats.IdentitiesFailed++
		identitiesTotal.WithLabelValues("failed").Inc()
		logger.Warnf("[Collector] Failed to fetch match history: %v (skipping)", err)
		return nil
	}
	identitiesTotal.WithLabelValues("ok").Inc()
	logger.Printf("[Collector] %d matches to check", len(matchIDs))

	for _, matchID := range matchIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.stats.MatchesSeen++

		n, err := c.processMatch(ctx, matchID)
		if err != nil && ctx.Err() != nil {
			// Interrupted mid-match; nothing was committed
			c.stats.MatchesSeen--
			return ctx.Err()
		}
		c.record(matchID, n, err)
	}
	return nil
}

// record classifies a match outcome into stats, metrics and the log.
func (c *Collector) record(matchID string, n int, err error) {
	logger := log.WithField("match", matchID)
	switch {
	case err == nil:
		c.stats.MatchesSaved++
		c.stats.Snapshots += n
		matchesTotal.WithLabelValues("saved").Inc()
		snapshotsTotal.Add(float64(n))
		logger.Printf("[Collector] Match saved (%d intervals)", n)
	case errors.Is(err, errAlreadyStored):
		c.stats.MatchesExisting++
		matchesTotal.WithLabelValues("existing").Inc()
		logger.Debugf("[Collector] Already stored (skipping)")
	case errors.Is(err, ErrAborted):
		c.stats.MatchesAborted++
		matchesTotal.WithLabelValues("aborted").Inc()
		logger.Infof("[Collector] Skipping aborted match")
	case errors.Is(err, ErrMalformed):
		c.stats.MatchesMalformed++
		matchesTotal.WithLabelValues("malformed").Inc()
		logger.Warnf("[Collector] Skipping: %v", err)
	default:
		c.stats.MatchesFailed++
		matchesTotal.WithLabelValues("failed").Inc()
		logger.Warnf("[Collector] Failed: %v", err)
	}
}

// processMatch runs one unit of work. The existence check precedes any fetch.
func (c *Collector) processMatch(ctx context.Context, matchID string) (int, error) {
	if c.visitedMatches.TestString(matchID) {
		return 0, errAlreadyStored
	}

	exists, err := c.store.MatchExists(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		c.visitedMatches.AddString(matchID)
		return 0, errAlreadyStored
	}

	match, err := c.fetcher.GetMatch(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("fetch match: %w", err)
	}
	tl, err := c.fetcher.GetTimeline(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("fetch timeline: %w", err)
	}

	if err := validate(match, tl); err != nil {
		// Neither outcome changes on refetch
		c.visitedMatches.AddString(matchID)
		return 0, err
	}

	rank := c.averageRank(ctx, match.Info.Participants[0].PUUID)
	record := buildMatchRecord(matchID, &match.Info, rank, c.cfg.Region)
	players := buildPlayerRecords(matchID, &match.Info)
	roster := buildRoster(&match.Info)

	n, err := c.store.SaveMatch(ctx, record, players, func(rowIDs map[int]int64) ([]timeline.Snapshot, error) {
		for pid, p := range roster {
			id, ok := rowIDs[pid]
			if !ok {
				return nil, fmt.Errorf("no row id for participant %d", pid)
			}
			p.RowID = id
			roster[pid] = p
		}
		return timeline.Reduce(tl.Info.Frames, roster, timeline.WithInterval(c.cfg.SampleInterval)), nil
	})
	if err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	c.visitedMatches.AddString(matchID)

	if c.archive != nil {
		err := c.archive.Append(&storage.ArchiveRecord{
			RunID:      c.runID,
			MatchID:    matchID,
			ArchivedAt: time.Now().UTC(),
			Match:      match,
			Timeline:   tl,
		})
		if err != nil {
			log.WithField("match", matchID).Warnf("[Collector] Archive write failed: %v", err)
		}
	}
	return n, nil
}

// validate rejects aborted and structurally incomplete matches.
func validate(match *riot.MatchResponse, tl *riot.TimelineResponse) error {
	info := &match.Info
	if strings.HasPrefix(info.EndOfGameResult, "Abort") {
		return ErrAborted
	}
	if info.Team(int(timeline.TeamBlue)) == nil || info.Team(int(timeline.TeamRed)) == nil {
		return fmt.Errorf("%w: incomplete team data", ErrMalformed)
	}
	if len(info.Participants) == 0 {
		return fmt.Errorf("%w: no participants", ErrMalformed)
	}
	if tl == nil || len(tl.Info.Frames) == 0 {
		return fmt.Errorf("%w: empty timeline", ErrMalformed)
	}
	return nil
}

// averageRank labels the match with the first participant's solo queue tier.
// Lookup failures degrade to Unranked.
func (c *Collector) averageRank(ctx context.Context, puuid string) string {
	entries, err := c.fetcher.GetRankedEntriesByPUUID(ctx, puuid)
	if err != nil {
		log.Warnf("[Collector] Rank lookup for %s failed: %v (using %s)", shortID(puuid), err, riot.Unranked)
		return riot.Unranked
	}
	for _, e := range entries {
		if e.QueueType == riot.QueueRankedSolo && e.Tier != "" {
			return e.Tier
		}
	}
	return riot.Unranked
}

func buildMatchRecord(matchID string, info *riot.MatchInfo, rank, region string) db.MatchRecord {
	blue := info.Team(int(timeline.TeamBlue))
	red := info.Team(int(timeline.TeamRed))

	winner := int(timeline.TeamRed)
	if blue.Win {
		winner = int(timeline.TeamBlue)
	}

	return db.MatchRecord{
		MatchID:      matchID,
		GameDuration: info.GameDuration,
		Patch:        strings.SplitN(info.GameVersion, ".", 2)[0],
		GameVersion:  info.GameVersion,
		WinningTeam:  winner,
		GameDate:     time.UnixMilli(info.GameCreation).UTC(),
		GameMode:     info.GameMode,
		QueueID:      info.QueueID,
		Region:       region,
		AverageRank:  rank,
		BlueBans:     joinBans(blue.Bans),
		RedBans:      joinBans(red.Bans),
	}
}

func joinBans(bans []riot.MatchBan) string {
	ids := make([]string, len(bans))
	for i, b := range bans {
		ids[i] = strconv.Itoa(b.ChampionID)
	}
	return strings.Join(ids, ",")
}

func buildPlayerRecords(matchID string, info *riot.MatchInfo) []db.PlayerRecord {
	records := make([]db.PlayerRecord, 0, len(info.Participants))
	for _, p := range info.Participants {
		name := p.RiotIdGameName
		if name == "" {
			name = "Unknown"
		}
		records = append(records, db.PlayerRecord{
			MatchID:            matchID,
			ParticipantID:      p.ParticipantID,
			SummonerName:       name,
			TeamID:             p.TeamID,
			Champion:           p.ChampionName,
			Role:               p.TeamPosition,
			IndividualPosition: p.IndividualPosition,
		})
	}
	return records
}

// buildRoster tracks every participant on one of the two teams.
func buildRoster(info *riot.MatchInfo) map[int]timeline.Player {
	roster := make(map[int]timeline.Player, len(info.Participants))
	for _, p := range info.Participants {
		team := timeline.Team(p.TeamID)
		if !team.Valid() {
			continue
		}
		roster[p.ParticipantID] = timeline.Player{
			ParticipantID: p.ParticipantID,
			PUUID:         p.PUUID,
			Team:          team,
			Role:          p.TeamPosition,
		}
	}
	return roster
}

func shortID(puuid string) string {
	if len(puuid) > 16 {
		return puuid[:16]
	}
	return puuid
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
