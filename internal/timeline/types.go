// Package timeline folds a match-v5 timeline into per-player interval snapshots.
package timeline

// Team is one of the two sides of a match.
type Team int

const (
	TeamBlue Team = 100
	TeamRed  Team = 200
)

// Valid reports whether t is one of the two match teams.
func (t Team) Valid() bool {
	return t == TeamBlue || t == TeamRed
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamBlue {
		return TeamRed
	}
	return TeamBlue
}

// Timeline event types
const (
	EventItemPurchased    = "ITEM_PURCHASED"
	EventItemSold         = "ITEM_SOLD"
	EventItemDestroyed    = "ITEM_DESTROYED"
	EventItemUndo         = "ITEM_UNDO"
	EventChampionKill     = "CHAMPION_KILL"
	EventBuildingKill     = "BUILDING_KILL"
	EventEliteMonsterKill = "ELITE_MONSTER_KILL"
)

const (
	BuildingTower = "TOWER_BUILDING"

	MonsterDragon = "DRAGON"
	MonsterBaron  = "BARON_NASHOR"
	MonsterHorde  = "HORDE" // void grubs
	MonsterHerald = "RIFTHERALD"
)

// Player is a tracked participant. Immutable for the lifetime of one match.
type Player struct {
	ParticipantID int
	PUUID         string
	RowID         int64 // roster row id assigned by the store
	Team          Team
	Role          string // teamPosition: TOP, JUNGLE, MIDDLE, BOTTOM, UTILITY
}

// TeamTotals are a team's cumulative objective counters.
type TeamTotals struct {
	Kills      int
	Towers     int
	Inhibitors int
	Dragons    int
	Barons     int
	VoidGrubs  int
	Heralds    int

	// Dragon sub-elements. Counted by substring match on the monster sub type,
	// so one kill may count toward more than one element.
	FireDragons     int
	WaterDragons    int
	EarthDragons    int
	AirDragons      int
	ChemtechDragons int
	HextechDragons  int
}

// PlayerTotals are a player's cumulative combat counters.
type PlayerTotals struct {
	Kills   int
	Deaths  int
	Assists int
}

// Snapshot is one player's state at a sampling boundary.
type Snapshot struct {
	Frame         int
	ParticipantID int
	RowID         int64
	Team          Team

	CurrentGold         int
	TotalGold           int
	MinionsKilled       int
	JungleMinionsKilled int
	XP                  int
	Level               int

	Combat     PlayerTotals
	Objectives TeamTotals // the player's team

	Items [InventoryCapacity]int // EmptySlot-padded

	GoldDiff     int // own total gold - lane opponent's
	XPDiff       int // own xp - lane opponent's
	TeamGoldDiff int // own team total gold - opposing team's
}
