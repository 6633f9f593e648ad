package riot

// AccountResponse represents the response from /riot/account/v1/accounts/by-riot-id
type AccountResponse struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// MatchResponse represents the response from /lol/match/v5/matches/{matchId}
type MatchResponse struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

type MatchInfo struct {
	GameCreation    int64              `json:"gameCreation"` // epoch millis
	GameDuration    int                `json:"gameDuration"` // seconds
	GameVersion     string             `json:"gameVersion"`
	GameMode        string             `json:"gameMode"`
	QueueID         int                `json:"queueId"`
	PlatformID      string             `json:"platformId"`
	EndOfGameResult string             `json:"endOfGameResult"` // GameComplete, Abort_Unexpected, ...
	Participants    []MatchParticipant `json:"participants"`
	Teams           []MatchTeam        `json:"teams"`
}

type MatchParticipant struct {
	ParticipantID      int    `json:"participantId"`
	PUUID              string `json:"puuid"`
	RiotIdGameName     string `json:"riotIdGameName"`
	RiotIdTagline      string `json:"riotIdTagline"`
	ChampionID         int    `json:"championId"`
	ChampionName       string `json:"championName"`
	TeamID             int    `json:"teamId"`
	TeamPosition       string `json:"teamPosition"` // TOP, JUNGLE, MIDDLE, BOTTOM, UTILITY
	IndividualPosition string `json:"individualPosition"`
	Win                bool   `json:"win"`
}

type MatchTeam struct {
	TeamID int        `json:"teamId"` // 100 blue, 200 red
	Win    bool       `json:"win"`
	Bans   []MatchBan `json:"bans"`
}

type MatchBan struct {
	ChampionID int `json:"championId"`
	PickTurn   int `json:"pickTurn"`
}

// Team returns the team entry with the given id, or nil.
func (i *MatchInfo) Team(teamID int) *MatchTeam {
	for idx := range i.Teams {
		if i.Teams[idx].TeamID == teamID {
			return &i.Teams[idx]
		}
	}
	return nil
}

// TimelineResponse represents the response from /lol/match/v5/matches/{matchId}/timeline
type TimelineResponse struct {
	Metadata TimelineMetadata `json:"metadata"`
	Info     TimelineInfo     `json:"info"`
}

type TimelineMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"` // PUUIDs
}

type TimelineInfo struct {
	FrameInterval int             `json:"frameInterval"` // millis, 60000 on ranked games
	Frames        []TimelineFrame `json:"frames"`
}

type TimelineFrame struct {
	Timestamp         int                         `json:"timestamp"`
	Events            []TimelineEvent             `json:"events"`
	ParticipantFrames map[string]ParticipantFrame `json:"participantFrames"` // keyed by participant id ("1".."10")
}

// ParticipantFrame is a participant's resource snapshot at the end of a frame.
type ParticipantFrame struct {
	ParticipantID       int `json:"participantId"`
	CurrentGold         int `json:"currentGold"`
	TotalGold           int `json:"totalGold"`
	MinionsKilled       int `json:"minionsKilled"`
	JungleMinionsKilled int `json:"jungleMinionsKilled"`
	XP                  int `json:"xp"`
	Level               int `json:"level"`
}

// TimelineEvent carries the union of fields used by the event types we reduce.
type TimelineEvent struct {
	Type      string `json:"type"`
	Timestamp int    `json:"timestamp"`

	// Item events
	ParticipantID int `json:"participantId,omitempty"`
	ItemID        int `json:"itemId,omitempty"`

	// CHAMPION_KILL
	KillerID                int   `json:"killerId,omitempty"`
	VictimID                int   `json:"victimId,omitempty"`
	AssistingParticipantIDs []int `json:"assistingParticipantIds,omitempty"`

	// BUILDING_KILL
	TeamID       int    `json:"teamId,omitempty"`
	BuildingType string `json:"buildingType,omitempty"` // TOWER_BUILDING, INHIBITOR_BUILDING

	// ELITE_MONSTER_KILL
	KillerTeamID   int    `json:"killerTeamId,omitempty"`
	MonsterType    string `json:"monsterType,omitempty"`    // DRAGON, BARON_NASHOR, HORDE, RIFTHERALD
	MonsterSubType string `json:"monsterSubType,omitempty"` // FIRE_DRAGON, ELDER_DRAGON, ...
}

// LeagueEntryResponse represents a ranked league entry from /lol/league/v4/entries/by-puuid
type LeagueEntryResponse struct {
	LeagueID     string `json:"leagueId"`
	QueueType    string `json:"queueType"` // RANKED_SOLO_5x5, RANKED_FLEX_SR
	Tier         string `json:"tier"`      // IRON ... CHALLENGER
	Rank         string `json:"rank"`      // I, II, III, IV
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

const (
	QueueRankedSolo = "RANKED_SOLO_5x5"
	QueueRankedFlex = "RANKED_FLEX_SR"

	// Unranked is the tier label used when a player has no solo queue entry.
	Unranked = "UNRANKED"
)
