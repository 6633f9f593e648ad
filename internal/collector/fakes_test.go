package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"interval-collector/internal/db"
	"interval-collector/internal/riot"
	"interval-collector/internal/storage"
	"interval-collector/internal/timeline"
)

// fakeFetcher serves canned responses and counts calls per endpoint
type fakeFetcher struct {
	accounts  map[string]string // "name#tag" -> puuid
	histories map[string][]string
	matches   map[string]*riot.MatchResponse
	timelines map[string]*riot.TimelineResponse
	ranks     map[string][]riot.LeagueEntryResponse

	matchErr map[string]error
	rankErr  error

	onTimeline func(matchID string)

	mu    sync.Mutex
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		accounts:  map[string]string{},
		histories: map[string][]string{},
		matches:   map[string]*riot.MatchResponse{},
		timelines: map[string]*riot.TimelineResponse{},
		ranks:     map[string][]riot.LeagueEntryResponse{},
		matchErr:  map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *fakeFetcher) count(endpoint string) {
	f.mu.Lock()
	f.calls[endpoint]++
	f.mu.Unlock()
}

func (f *fakeFetcher) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func notFound(url string) error {
	return &riot.APIError{StatusCode: 404, URL: url}
}

func (f *fakeFetcher) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error) {
	f.count("account")
	puuid, ok := f.accounts[gameName+"#"+tagLine]
	if !ok {
		return nil, notFound("account/" + gameName)
	}
	return &riot.AccountResponse{PUUID: puuid, GameName: gameName, TagLine: tagLine}, nil
}

func (f *fakeFetcher) GetMatchHistory(ctx context.Context, puuid string, queueID, count int) ([]string, error) {
	f.count("history")
	ids, ok := f.histories[puuid]
	if !ok {
		return nil, notFound("history/" + puuid)
	}
	if len(ids) > count {
		ids = ids[:count]
	}
	return ids, nil
}

func (f *fakeFetcher) GetMatch(ctx context.Context, matchID string) (*riot.MatchResponse, error) {
	f.count("match")
	if err := f.matchErr[matchID]; err != nil {
		return nil, err
	}
	m, ok := f.matches[matchID]
	if !ok {
		return nil, notFound("match/" + matchID)
	}
	return m, nil
}

func (f *fakeFetcher) GetTimeline(ctx context.Context, matchID string) (*riot.TimelineResponse, error) {
	f.count("timeline")
	if f.onTimeline != nil {
		f.onTimeline(matchID)
	}
	tl, ok := f.timelines[matchID]
	if !ok {
		return nil, notFound("timeline/" + matchID)
	}
	return tl, nil
}

func (f *fakeFetcher) GetRankedEntriesByPUUID(ctx context.Context, puuid string) ([]riot.LeagueEntryResponse, error) {
	f.count("rank")
	if f.rankErr != nil {
		return nil, f.rankErr
	}
	return f.ranks[puuid], nil
}

// addPlayer registers an identity with the given match history
func (f *fakeFetcher) addPlayer(riotID, puuid string, matchIDs ...string) {
	f.accounts[riotID] = puuid
	f.histories[puuid] = matchIDs
}

// addMatch registers a complete 10-player match with an 11-frame timeline
func (f *fakeFetcher) addMatch(matchID string) *riot.MatchResponse {
	m := newMatch(matchID)
	f.matches[matchID] = m
	f.timelines[matchID] = newTimeline(11)
	return m
}

func newMatch(matchID string) *riot.MatchResponse {
	roles := []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}
	info := riot.MatchInfo{
		GameCreation:    time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC).UnixMilli(),
		GameDuration:    1820,
		GameVersion:     "14.4.562.1234",
		GameMode:        "CLASSIC",
		QueueID:         420,
		PlatformID:      "EUW1",
		EndOfGameResult: "GameComplete",
		Teams: []riot.MatchTeam{
			{TeamID: 100, Win: false, Bans: []riot.MatchBan{{ChampionID: 157}, {ChampionID: 238}}},
			{TeamID: 200, Win: true, Bans: []riot.MatchBan{{ChampionID: 64}, {ChampionID: -1}}},
		},
	}
	for i := 0; i < 10; i++ {
		team := 100
		if i >= 5 {
			team = 200
		}
		info.Participants = append(info.Participants, riot.MatchParticipant{
			ParticipantID:      i + 1,
			PUUID:              fmt.Sprintf("%s-p%d", matchID, i+1),
			RiotIdGameName:     fmt.Sprintf("player%d", i+1),
			ChampionName:       "Ahri",
			TeamID:             team,
			TeamPosition:       roles[i%5],
			IndividualPosition: roles[i%5],
		})
	}
	return &riot.MatchResponse{Metadata: riot.MatchMetadata{MatchID: matchID}, Info: info}
}

func newTimeline(frames int) *riot.TimelineResponse {
	tl := &riot.TimelineResponse{Info: riot.TimelineInfo{FrameInterval: 60000}}
	for i := 0; i < frames; i++ {
		pfs := map[string]riot.ParticipantFrame{}
		for pid := 1; pid <= 10; pid++ {
			pfs[strconv.Itoa(pid)] = riot.ParticipantFrame{ParticipantID: pid, TotalGold: 500 * i, XP: 100 * i, Level: 1 + i/3}
		}
		frame := riot.TimelineFrame{Timestamp: i * 60000, ParticipantFrames: pfs}
		if i == 1 {
			frame.Events = []riot.TimelineEvent{{Type: timeline.EventItemPurchased, ParticipantID: 1, ItemID: 1055}}
		}
		tl.Info.Frames = append(tl.Info.Frames, frame)
	}
	return tl
}

// memStore is an all-or-nothing in-memory Store
type memStore struct {
	mu        sync.Mutex
	matches   map[string]db.MatchRecord
	players   map[string][]db.PlayerRecord
	snapshots map[string][]timeline.Snapshot
	nextID    int64

	saveCalls   int
	existsCalls int
	saveErr     error
	existsErr   error
}

func newMemStore() *memStore {
	return &memStore{
		matches:   map[string]db.MatchRecord{},
		players:   map[string][]db.PlayerRecord{},
		snapshots: map[string][]timeline.Snapshot{},
		nextID:    1000,
	}
}

func (s *memStore) MatchExists(ctx context.Context, matchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existsCalls++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.matches[matchID]
	return ok, nil
}

func (s *memStore) SaveMatch(ctx context.Context, m db.MatchRecord, players []db.PlayerRecord, reduce db.ReduceFunc) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	if _, ok := s.matches[m.MatchID]; ok {
		return 0, errors.New("duplicate match")
	}

	rowIDs := map[int]int64{}
	for _, p := range players {
		s.nextID++
		rowIDs[p.ParticipantID] = s.nextID
	}
	snaps, err := reduce(rowIDs)
	if err != nil {
		return 0, err
	}

	s.matches[m.MatchID] = m
	s.players[m.MatchID] = players
	s.snapshots[m.MatchID] = snaps
	return len(snaps), nil
}

// memArchive collects archive records
type memArchive struct {
	records []*storage.ArchiveRecord
	err     error
}

func (a *memArchive) Append(r *storage.ArchiveRecord) error {
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, r)
	return nil
}
