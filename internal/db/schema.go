package db

import (
	"fmt"
	"strings"
	"time"

	"interval-collector/internal/timeline"
)

// Table names, in export order.
const (
	TableMatches   = "matches"
	TablePlayers   = "players"
	TableIntervals = "intervals"
)

// Tables lists every table a sink holds.
var Tables = []string{TableMatches, TablePlayers, TableIntervals}

// sqliteTime is the layout game_date is stored with in SQLite.
const sqliteTime = "2006-01-02 15:04:05"

var matchColumns = []string{
	"match_id", "game_duration", "patch_version", "winning_team", "game_date",
	"game_version", "game_mode", "queue_id", "region", "average_rank",
	"blue_bans", "red_bans",
}

var playerColumns = []string{
	"id", "match_id", "participant_id", "summoner_name", "team_id",
	"champion", "role", "individual_position",
}

// intervalColumns are the insert columns of an interval row; id is assigned by the database.
var intervalColumns = []string{
	"match_id", "player_id", "minute",
	"current_gold", "total_gold", "cs", "jungle_cs", "xp", "level",
	"kills", "deaths", "assists",
	"team_kills", "team_towers", "team_inhibitors",
	"team_dragons", "team_barons", "team_void_grubs", "team_heralds",
	"team_dragons_fire", "team_dragons_water", "team_dragons_earth",
	"team_dragons_air", "team_dragons_chemtech", "team_dragons_hextech",
	"item_0", "item_1", "item_2", "item_3", "item_4", "item_5", "item_6",
	"gold_diff", "xp_diff", "team_gold_diff",
}

// tableKey is the column each table is paged by during scans.
var tableKey = map[string]string{
	TableMatches:   "match_id",
	TablePlayers:   "id",
	TableIntervals: "id",
}

// Columns returns the column names of a table in select order.
func Columns(table string) ([]string, error) {
	switch table {
	case TableMatches:
		return append([]string(nil), matchColumns...), nil
	case TablePlayers:
		return append([]string(nil), playerColumns...), nil
	case TableIntervals:
		return append([]string{"id"}, intervalColumns...), nil
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}
}

// firstKey is the value every key of the table sorts after.
func firstKey(table string) any {
	if table == TableMatches {
		return ""
	}
	return int64(0)
}

func keyIndex(table string, cols []string) int {
	for i, c := range cols {
		if c == tableKey[table] {
			return i
		}
	}
	return 0
}

// intervalDDL renders the intervals table; every metric column is an integer.
func intervalDDL(idColumn, matchType, playerType string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS intervals (\n")
	fmt.Fprintf(&b, "\tid %s,\n", idColumn)
	fmt.Fprintf(&b, "\tmatch_id %s NOT NULL REFERENCES matches(match_id) ON DELETE CASCADE,\n", matchType)
	fmt.Fprintf(&b, "\tplayer_id %s NOT NULL REFERENCES players(id) ON DELETE CASCADE", playerType)
	for _, col := range intervalColumns[2:] {
		fmt.Fprintf(&b, ",\n\t%s INTEGER NOT NULL DEFAULT 0", col)
	}
	b.WriteString("\n)")
	return b.String()
}

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS matches (
		match_id VARCHAR(32) PRIMARY KEY,
		game_duration INTEGER NOT NULL,
		patch_version VARCHAR(16) NOT NULL,
		winning_team INTEGER NOT NULL,
		game_date TIMESTAMP NOT NULL,
		game_version VARCHAR(32),
		game_mode VARCHAR(32),
		queue_id INTEGER,
		region VARCHAR(8),
		average_rank VARCHAR(16),
		blue_bans TEXT,
		red_bans TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id BIGSERIAL PRIMARY KEY,
		match_id VARCHAR(32) NOT NULL REFERENCES matches(match_id) ON DELETE CASCADE,
		participant_id INTEGER NOT NULL,
		summoner_name TEXT,
		team_id INTEGER NOT NULL,
		champion TEXT,
		role TEXT,
		individual_position TEXT,
		UNIQUE (match_id, participant_id)
	)`,
	intervalDDL("BIGSERIAL PRIMARY KEY", "VARCHAR(32)", "BIGINT"),
	`CREATE INDEX IF NOT EXISTS idx_intervals_match ON intervals(match_id)`,
	`CREATE INDEX IF NOT EXISTS idx_intervals_player ON intervals(player_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS matches (
		match_id TEXT PRIMARY KEY,
		game_duration INTEGER NOT NULL,
		patch_version TEXT NOT NULL,
		winning_team INTEGER NOT NULL,
		game_date TEXT NOT NULL,
		game_version TEXT,
		game_mode TEXT,
		queue_id INTEGER,
		region TEXT,
		average_rank TEXT,
		blue_bans TEXT,
		red_bans TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL REFERENCES matches(match_id) ON DELETE CASCADE,
		participant_id INTEGER NOT NULL,
		summoner_name TEXT,
		team_id INTEGER NOT NULL,
		champion TEXT,
		role TEXT,
		individual_position TEXT,
		UNIQUE (match_id, participant_id)
	)`,
	intervalDDL("INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT", "INTEGER"),
	`CREATE INDEX IF NOT EXISTS idx_intervals_match ON intervals(match_id)`,
	`CREATE INDEX IF NOT EXISTS idx_intervals_player ON intervals(player_id)`,
}

// intervalRow flattens a snapshot into intervalColumns order.
func intervalRow(matchID string, s timeline.Snapshot) []any {
	row := []any{
		matchID, s.RowID, s.Frame,
		s.CurrentGold, s.TotalGold, s.MinionsKilled, s.JungleMinionsKilled, s.XP, s.Level,
		s.Combat.Kills, s.Combat.Deaths, s.Combat.Assists,
		s.Objectives.Kills, s.Objectives.Towers, s.Objectives.Inhibitors,
		s.Objectives.Dragons, s.Objectives.Barons, s.Objectives.VoidGrubs, s.Objectives.Heralds,
		s.Objectives.FireDragons, s.Objectives.WaterDragons, s.Objectives.EarthDragons,
		s.Objectives.AirDragons, s.Objectives.ChemtechDragons, s.Objectives.HextechDragons,
	}
	for _, item := range s.Items {
		row = append(row, item)
	}
	return append(row, s.GoldDiff, s.XPDiff, s.TeamGoldDiff)
}

// matchArgs returns the match insert values; game_date is passed through fmtDate.
func matchArgs(m MatchRecord, fmtDate func(time.Time) any) []any {
	return []any{
		m.MatchID, m.GameDuration, m.Patch, m.WinningTeam, fmtDate(m.GameDate),
		m.GameVersion, m.GameMode, m.QueueID, m.Region, m.AverageRank,
		m.BlueBans, m.RedBans,
	}
}

// placeholders renders n bind parameters, "$1, $2" style when numbered is set.
func placeholders(n int, numbered bool) string {
	parts := make([]string, n)
	for i := range parts {
		if numbered {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}
