package timeline

import (
	"sort"
	"strconv"
	"strings"

	"interval-collector/internal/riot"
)

// DefaultInterval is the sampling interval in frames.
const DefaultInterval = 5

// dragonElements maps a monsterSubType substring to its counter.
var dragonElements = []struct {
	tag   string
	count func(*TeamTotals) *int
}{
	{"FIRE", func(t *TeamTotals) *int { return &t.FireDragons }},
	{"WATER", func(t *TeamTotals) *int { return &t.WaterDragons }},
	{"EARTH", func(t *TeamTotals) *int { return &t.EarthDragons }},
	{"AIR", func(t *TeamTotals) *int { return &t.AirDragons }},
	{"CHEMTECH", func(t *TeamTotals) *int { return &t.ChemtechDragons }},
	{"HEXTECH", func(t *TeamTotals) *int { return &t.HextechDragons }},
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithInterval sets the sampling interval. Non-positive values keep the default.
func WithInterval(frames int) Option {
	return func(r *Reducer) {
		if frames > 0 {
			r.interval = frames
		}
	}
}

// Reducer holds the running state for one match. Events for participants
// or teams outside the tracked roster are ignored.
type Reducer struct {
	interval int

	order       []int // tracked participant ids, ascending
	players     map[int]Player
	counterpart map[int]int // participant id -> lane opponent id, absent if none

	combat      map[int]*PlayerTotals
	inventories map[int]*Inventory
	teams       map[Team]*TeamTotals
}

// NewReducer creates a Reducer over the given roster, keyed by participant id.
func NewReducer(players map[int]Player, opts ...Option) *Reducer {
	r := &Reducer{
		interval:    DefaultInterval,
		players:     make(map[int]Player, len(players)),
		counterpart: make(map[int]int, len(players)),
		combat:      make(map[int]*PlayerTotals, len(players)),
		inventories: make(map[int]*Inventory, len(players)),
		teams: map[Team]*TeamTotals{
			TeamBlue: {},
			TeamRed:  {},
		},
	}
	for _, opt := range opts {
		opt(r)
	}

	for pid, p := range players {
		r.players[pid] = p
		r.order = append(r.order, pid)
		r.combat[pid] = &PlayerTotals{}
		r.inventories[pid] = &Inventory{}
	}
	sort.Ints(r.order)

	for _, pid := range r.order {
		if opp, ok := r.findCounterpart(r.players[pid]); ok {
			r.counterpart[pid] = opp
		}
	}
	return r
}

// findCounterpart returns the lowest participant id on the opposing team
// sharing p's role. Players without a role have no counterpart.
func (r *Reducer) findCounterpart(p Player) (int, bool) {
	if p.Role == "" {
		return 0, false
	}
	for _, pid := range r.order {
		other := r.players[pid]
		if other.Team == p.Team.Opponent() && other.Role == p.Role {
			return pid, true
		}
	}
	return 0, false
}

// Apply folds a single event into the running state.
func (r *Reducer) Apply(ev riot.TimelineEvent) {
	switch ev.Type {
	case EventItemPurchased:
		if inv, ok := r.inventories[ev.ParticipantID]; ok {
			inv.Purchase(ev.ItemID)
		}
	case EventItemSold, EventItemDestroyed:
		if inv, ok := r.inventories[ev.ParticipantID]; ok {
			inv.Remove(ev.ItemID)
		}
	case EventItemUndo:
		if inv, ok := r.inventories[ev.ParticipantID]; ok {
			inv.Undo()
		}
	case EventChampionKill:
		r.applyKill(ev)
	case EventBuildingKill:
		team, ok := r.teams[Team(ev.TeamID)]
		if !ok {
			return
		}
		if ev.BuildingType == BuildingTower {
			team.Towers++
		} else {
			team.Inhibitors++
		}
	case EventEliteMonsterKill:
		r.applyMonster(ev)
	}
}

func (r *Reducer) applyKill(ev riot.TimelineEvent) {
	if killer, ok := r.combat[ev.KillerID]; ok {
		killer.Kills++
		if team, ok := r.teams[r.players[ev.KillerID].Team]; ok {
			team.Kills++
		}
	}
	if victim, ok := r.combat[ev.VictimID]; ok {
		victim.Deaths++
	}
	for _, aid := range ev.AssistingParticipantIDs {
		if assister, ok := r.combat[aid]; ok {
			assister.Assists++
		}
	}
}

func (r *Reducer) applyMonster(ev riot.TimelineEvent) {
	team, ok := r.teams[Team(ev.KillerTeamID)]
	if !ok {
		return
	}
	switch ev.MonsterType {
	case MonsterDragon:
		team.Dragons++
		for _, el := range dragonElements {
			if strings.Contains(ev.MonsterSubType, el.tag) {
				*el.count(team)++
			}
		}
	case MonsterBaron:
		team.Barons++
	case MonsterHorde:
		team.VoidGrubs++
	case MonsterHerald:
		team.Heralds++
	}
}

// IsBoundary reports whether frame index i is a sampling boundary.
func (r *Reducer) IsBoundary(i int) bool {
	return i > 0 && i%r.interval == 0
}

// Emit produces one snapshot per tracked player present in the frame,
// combining its resource snapshot with the current running state.
func (r *Reducer) Emit(frameIndex int, frame riot.TimelineFrame) []Snapshot {
	frames := make(map[int]riot.ParticipantFrame, len(r.order))
	teamGold := map[Team]int{}
	for _, pid := range r.order {
		pf, ok := frame.ParticipantFrames[strconv.Itoa(pid)]
		if !ok {
			continue
		}
		frames[pid] = pf
		teamGold[r.players[pid].Team] += pf.TotalGold
	}

	out := make([]Snapshot, 0, len(r.order))
	for _, pid := range r.order {
		own, ok := frames[pid]
		if !ok {
			continue
		}
		p := r.players[pid]

		lane := own
		if opp, ok := r.counterpart[pid]; ok {
			if pf, present := frames[opp]; present {
				lane = pf
			}
		}

		snap := Snapshot{
			Frame:               frameIndex,
			ParticipantID:       pid,
			RowID:               p.RowID,
			Team:                p.Team,
			CurrentGold:         own.CurrentGold,
			TotalGold:           own.TotalGold,
			MinionsKilled:       own.MinionsKilled,
			JungleMinionsKilled: own.JungleMinionsKilled,
			XP:                  own.XP,
			Level:               own.Level,
			Combat:              *r.combat[pid],
			Items:               r.inventories[pid].Slots(),
			GoldDiff:            own.TotalGold - lane.TotalGold,
			XPDiff:              own.XP - lane.XP,
			TeamGoldDiff:        teamGold[p.Team] - teamGold[p.Team.Opponent()],
		}
		if totals, ok := r.teams[p.Team]; ok {
			snap.Objectives = *totals
		}
		out = append(out, snap)
	}
	return out
}

// Frame applies a frame's events in order and, on a sampling boundary,
// returns the snapshots taken after them.
func (r *Reducer) Frame(index int, frame riot.TimelineFrame) []Snapshot {
	for _, ev := range frame.Events {
		r.Apply(ev)
	}
	if !r.IsBoundary(index) {
		return nil
	}
	return r.Emit(index, frame)
}

// Inventory returns a copy of a tracked player's current items.
func (r *Reducer) Inventory(participantID int) []int {
	inv, ok := r.inventories[participantID]
	if !ok {
		return nil
	}
	return inv.Items()
}

// Totals returns a tracked player's current combat counters.
func (r *Reducer) Totals(participantID int) (PlayerTotals, bool) {
	t, ok := r.combat[participantID]
	if !ok {
		return PlayerTotals{}, false
	}
	return *t, true
}

// TeamTotals returns a team's current objective counters.
func (r *Reducer) TeamTotals(team Team) TeamTotals {
	if t, ok := r.teams[team]; ok {
		return *t
	}
	return TeamTotals{}
}

// Reduce folds every frame of a timeline and returns all snapshots in
// frame order, participants ascending within a frame.
func Reduce(frames []riot.TimelineFrame, players map[int]Player, opts ...Option) []Snapshot {
	r := NewReducer(players, opts...)
	var out []Snapshot
	for i, frame := range frames {
		out = append(out, r.Frame(i, frame)...)
	}
	return out
}
