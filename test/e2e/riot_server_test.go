//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"interval-collector/internal/riot"
	"interval-collector/internal/timeline"
)

// riotServer is an in-process stand-in for the regional and platform hosts.
type riotServer struct {
	*httptest.Server

	mu        sync.Mutex
	accounts  map[string]string // "name/tag" -> puuid
	histories map[string][]string
	matches   map[string]*riot.MatchResponse
	timelines map[string]*riot.TimelineResponse

	// throttle answers this many requests with 429 before serving
	throttle atomic.Int32
	// revoked rejects every request with 403
	revoked  atomic.Bool
	requests atomic.Int64

	onTimeline func(matchID string)
}

func newRiotServer(t *testing.T) *riotServer {
	s := &riotServer{
		accounts:  map[string]string{},
		histories: map[string][]string{},
		matches:   map[string]*riot.MatchResponse{},
		timelines: map[string]*riot.TimelineResponse{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /riot/account/v1/accounts/by-riot-id/{name}/{tag}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		puuid, ok := s.accounts[r.PathValue("name")+"/"+r.PathValue("tag")]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, riot.AccountResponse{PUUID: puuid, GameName: r.PathValue("name"), TagLine: r.PathValue("tag")})
	})
	mux.HandleFunc("GET /lol/match/v5/matches/by-puuid/{puuid}/ids", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		ids, ok := s.histories[r.PathValue("puuid")]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		if n, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && n < len(ids) {
			ids = ids[:n]
		}
		writeJSON(w, ids)
	})
	mux.HandleFunc("GET /lol/match/v5/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		m, ok := s.matches[r.PathValue("id")]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, m)
	})
	mux.HandleFunc("GET /lol/match/v5/matches/{id}/timeline", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if s.onTimeline != nil {
			s.onTimeline(id)
		}
		if s.revoked.Load() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		s.mu.Lock()
		tl, ok := s.timelines[id]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, tl)
	})
	mux.HandleFunc("GET /lol/status/v4/platform-data", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"id": "EUW1", "name": "EU West"})
	})
	mux.HandleFunc("GET /lol/league/v4/entries/by-puuid/{puuid}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []riot.LeagueEntryResponse{{QueueType: riot.QueueRankedSolo, Tier: "DIAMOND", Rank: "IV"}})
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		if r.Header.Get("X-Riot-Token") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if s.revoked.Load() {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if s.throttle.Load() > 0 {
			s.throttle.Add(-1)
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// client returns a Riot client pointed at the server whose throttling
// sleeps are skipped.
func (s *riotServer) client(t *testing.T) *riot.Client {
	c, err := riot.NewClient("RGAPI-e2e-test-key-0000",
		riot.WithRegionalURL(s.URL),
		riot.WithPlatformURL(s.URL),
		riot.WithLimiter(riot.NewWindow(1000, time.Second)),
		riot.WithSleep(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
	)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func (s *riotServer) addPlayer(name, tag, puuid string, matchIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[name+"/"+tag] = puuid
	s.histories[puuid] = matchIDs
}

// addMatch registers a 10-player match with a timeline of the given length.
// Blue takes the first tower and a fire dragon in minute 3.
func (s *riotServer) addMatch(matchID string, frames int, result string) {
	roles := []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}
	info := riot.MatchInfo{
		GameCreation:    time.Date(2024, 5, 4, 19, 30, 0, 0, time.UTC).UnixMilli(),
		GameDuration:    frames * 60,
		GameVersion:     "14.9.580.2108",
		GameMode:        "CLASSIC",
		QueueID:         420,
		PlatformID:      "EUW1",
		EndOfGameResult: result,
		Teams: []riot.MatchTeam{
			{TeamID: 100, Win: true, Bans: []riot.MatchBan{{ChampionID: 157}}},
			{TeamID: 200, Win: false, Bans: []riot.MatchBan{{ChampionID: 238}}},
		},
	}
	for i := 1; i <= 10; i++ {
		team := 100
		if i > 5 {
			team = 200
		}
		info.Participants = append(info.Participants, riot.MatchParticipant{
			ParticipantID:  i,
			PUUID:          fmt.Sprintf("%s-%d", matchID, i),
			RiotIdGameName: fmt.Sprintf("p%d", i),
			ChampionName:   "Garen",
			TeamID:         team,
			TeamPosition:   roles[(i-1)%5],
		})
	}

	tl := &riot.TimelineResponse{Info: riot.TimelineInfo{FrameInterval: 60000}}
	for f := 0; f < frames; f++ {
		pfs := map[string]riot.ParticipantFrame{}
		for pid := 1; pid <= 10; pid++ {
			gold := 500 + f*400
			if pid <= 5 {
				gold += f * 20
			}
			pfs[strconv.Itoa(pid)] = riot.ParticipantFrame{ParticipantID: pid, TotalGold: gold, CurrentGold: 300, XP: f * 250, Level: 1 + f/2}
		}
		frame := riot.TimelineFrame{Timestamp: f * 60000, ParticipantFrames: pfs}
		if f == 3 {
			frame.Events = []riot.TimelineEvent{
				{Type: timeline.EventChampionKill, KillerID: 2, VictimID: 7, AssistingParticipantIDs: []int{3}},
				{Type: timeline.EventBuildingKill, TeamID: 100, BuildingType: timeline.BuildingTower},
				{Type: timeline.EventEliteMonsterKill, KillerTeamID: 100, MonsterType: timeline.MonsterDragon, MonsterSubType: "FIRE_DRAGON"},
			}
		}
		tl.Info.Frames = append(tl.Info.Frames, frame)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[matchID] = &riot.MatchResponse{Metadata: riot.MatchMetadata{MatchID: matchID}, Info: info}
	s.timelines[matchID] = tl
}
