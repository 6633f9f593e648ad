package timeline

import (
	"reflect"
	"strconv"
	"testing"

	"interval-collector/internal/riot"
)

// roster builds a standard 10-player lobby: 1-5 blue, 6-10 red, roles in lane order
func roster() map[int]Player {
	roles := []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}
	players := make(map[int]Player, 10)
	for i := 0; i < 10; i++ {
		pid := i + 1
		team := TeamBlue
		if pid > 5 {
			team = TeamRed
		}
		players[pid] = Player{
			ParticipantID: pid,
			PUUID:         "puuid-" + strconv.Itoa(pid),
			RowID:         int64(100 + pid),
			Team:          team,
			Role:          roles[i%5],
		}
	}
	return players
}

// frameWith returns a frame where every participant has the given gold and xp
func frameWith(gold, xp map[int]int, events ...riot.TimelineEvent) riot.TimelineFrame {
	pfs := make(map[string]riot.ParticipantFrame)
	for pid, g := range gold {
		pfs[strconv.Itoa(pid)] = riot.ParticipantFrame{
			ParticipantID: pid,
			TotalGold:     g,
			CurrentGold:   g / 10,
			XP:            xp[pid],
			Level:         1,
		}
	}
	return riot.TimelineFrame{Events: events, ParticipantFrames: pfs}
}

func uniform(gold int) map[int]int {
	m := make(map[int]int, 10)
	for pid := 1; pid <= 10; pid++ {
		m[pid] = gold
	}
	return m
}

func emptyFrames(n int) []riot.TimelineFrame {
	frames := make([]riot.TimelineFrame, n)
	for i := range frames {
		frames[i] = frameWith(uniform(500*i), uniform(100*i))
	}
	return frames
}

func TestReduce_BoundariesOnly(t *testing.T) {
	// 17 frames (0..16): boundaries at 5, 10, 15
	snaps := Reduce(emptyFrames(17), roster())

	if len(snaps) != 30 {
		t.Fatalf("Expected 30 snapshots, got %d", len(snaps))
	}
	seen := map[int]int{}
	for _, s := range snaps {
		seen[s.Frame]++
	}
	want := map[int]int{5: 10, 10: 10, 15: 10}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("frames = %v, want %v", seen, want)
	}
}

func TestReduce_ShortTimeline(t *testing.T) {
	if snaps := Reduce(emptyFrames(5), roster()); len(snaps) != 0 {
		t.Errorf("Expected no snapshots for frames 0..4, got %d", len(snaps))
	}
	if snaps := Reduce(nil, roster()); len(snaps) != 0 {
		t.Errorf("Expected no snapshots for empty timeline, got %d", len(snaps))
	}
}

func TestReduce_CustomInterval(t *testing.T) {
	snaps := Reduce(emptyFrames(7), roster(), WithInterval(3))
	frames := map[int]bool{}
	for _, s := range snaps {
		frames[s.Frame] = true
	}
	if !frames[3] || !frames[6] || len(frames) != 2 {
		t.Errorf("frames = %v, want {3, 6}", frames)
	}
}

func TestReduce_PurchaseThenUndo(t *testing.T) {
	frames := emptyFrames(6)
	frames[1].Events = []riot.TimelineEvent{
		{Type: EventItemPurchased, ParticipantID: 3, ItemID: 1001},
		{Type: EventItemUndo, ParticipantID: 3},
	}

	for _, s := range Reduce(frames, roster()) {
		if s.ParticipantID != 3 {
			continue
		}
		for i, item := range s.Items {
			if item != EmptySlot {
				t.Errorf("slot %d = %d, want empty", i, item)
			}
		}
		return
	}
	t.Fatal("No snapshot for participant 3")
}

func TestReduce_InventoryCarriedToSnapshot(t *testing.T) {
	frames := emptyFrames(6)
	frames[2].Events = []riot.TimelineEvent{
		{Type: EventItemPurchased, ParticipantID: 1, ItemID: 1055},
		{Type: EventItemPurchased, ParticipantID: 1, ItemID: 2003},
		{Type: EventItemPurchased, ParticipantID: 1, ItemID: 2003},
		{Type: EventItemDestroyed, ParticipantID: 1, ItemID: 2003},
		{Type: EventItemPurchased, ParticipantID: 1, ItemID: 3070},
		{Type: EventItemSold, ParticipantID: 1, ItemID: 1055},
	}

	snaps := Reduce(frames, roster())
	want := [InventoryCapacity]int{2003, 3070, 0, 0, 0, 0, 0}
	if snaps[0].ParticipantID != 1 || snaps[0].Items != want {
		t.Errorf("participant %d items = %v, want %v", snaps[0].ParticipantID, snaps[0].Items, want)
	}
}

func TestReducer_KillAttribution(t *testing.T) {
	r := NewReducer(roster())
	r.Apply(riot.TimelineEvent{Type: EventChampionKill, KillerID: 2, VictimID: 7, AssistingParticipantIDs: []int{1, 3}})
	r.Apply(riot.TimelineEvent{Type: EventChampionKill, KillerID: 7, VictimID: 2})
	// Execution by a turret: killer 0 is not tracked
	r.Apply(riot.TimelineEvent{Type: EventChampionKill, KillerID: 0, VictimID: 3, AssistingParticipantIDs: []int{42}})

	tests := []struct {
		pid  int
		want PlayerTotals
	}{
		{1, PlayerTotals{Assists: 1}},
		{2, PlayerTotals{Kills: 1, Deaths: 1}},
		{3, PlayerTotals{Deaths: 1, Assists: 1}},
		{7, PlayerTotals{Kills: 1, Deaths: 1}},
	}
	for _, tt := range tests {
		got, ok := r.Totals(tt.pid)
		if !ok {
			t.Fatalf("participant %d not tracked", tt.pid)
		}
		if got != tt.want {
			t.Errorf("participant %d totals = %+v, want %+v", tt.pid, got, tt.want)
		}
	}

	if k := r.TeamTotals(TeamBlue).Kills; k != 1 {
		t.Errorf("blue kills = %d, want 1", k)
	}
	if k := r.TeamTotals(TeamRed).Kills; k != 1 {
		t.Errorf("red kills = %d, want 1", k)
	}
	if _, ok := r.Totals(42); ok {
		t.Error("untracked participant 42 has totals")
	}
}

func TestReducer_UntrackedEventsIgnored(t *testing.T) {
	players := roster()
	delete(players, 10)
	r := NewReducer(players)

	r.Apply(riot.TimelineEvent{Type: EventItemPurchased, ParticipantID: 10, ItemID: 1001})
	r.Apply(riot.TimelineEvent{Type: EventItemUndo, ParticipantID: 99})
	r.Apply(riot.TimelineEvent{Type: EventChampionKill, KillerID: 10, VictimID: 99})
	r.Apply(riot.TimelineEvent{Type: EventBuildingKill, TeamID: 300, BuildingType: BuildingTower})
	r.Apply(riot.TimelineEvent{Type: EventEliteMonsterKill, KillerTeamID: 0, MonsterType: MonsterBaron})
	r.Apply(riot.TimelineEvent{Type: "WARD_PLACED", ParticipantID: 1})

	if inv := r.Inventory(10); inv != nil {
		t.Errorf("untracked inventory = %v", inv)
	}
	if got := r.TeamTotals(TeamBlue); got != (TeamTotals{}) {
		t.Errorf("blue totals = %+v, want zero", got)
	}
	if got := r.TeamTotals(TeamRed); got != (TeamTotals{}) {
		t.Errorf("red totals = %+v, want zero", got)
	}
}

func TestReducer_Buildings(t *testing.T) {
	r := NewReducer(roster())
	r.Apply(riot.TimelineEvent{Type: EventBuildingKill, TeamID: 100, BuildingType: BuildingTower})
	r.Apply(riot.TimelineEvent{Type: EventBuildingKill, TeamID: 100, BuildingType: BuildingTower})
	r.Apply(riot.TimelineEvent{Type: EventBuildingKill, TeamID: 100, BuildingType: "INHIBITOR_BUILDING"})
	r.Apply(riot.TimelineEvent{Type: EventBuildingKill, TeamID: 200, BuildingType: "SOMETHING_NEW"})

	blue, red := r.TeamTotals(TeamBlue), r.TeamTotals(TeamRed)
	if blue.Towers != 2 || blue.Inhibitors != 1 {
		t.Errorf("blue towers/inhibs = %d/%d, want 2/1", blue.Towers, blue.Inhibitors)
	}
	if red.Towers != 0 || red.Inhibitors != 1 {
		t.Errorf("red towers/inhibs = %d/%d, want 0/1", red.Towers, red.Inhibitors)
	}
}

func TestReducer_Monsters(t *testing.T) {
	r := NewReducer(roster())
	r.Apply(riot.TimelineEvent{Type: EventEliteMonsterKill, KillerTeamID: 100, MonsterType: MonsterDragon, MonsterSubType: "FIRE_DRAGON"})
	r.Apply(riot.TimelineEvent{Type: EventEliteMonsterKill, KillerTeamID: 100, MonsterType: MonsterDragon, MonsterSubType: "ELDER_DRAGON"})
	r.Apply(riot.TimelineEvent{Type: EventEliteMonsterKill, KillerTeamID: 200, MonsterType: MonsterHorde})
	r.Apply(riot.TimelineEvent{Type: EventEliteMonsterKill, KillerTeamID: 200, MonsterType: MonsterHorde})
	r.Apply(riot.TimelineEvent{Type: EventEliteMonsterKill, KillerTeamID: 200, MonsterType: MonsterHerald})
	r.Apply(riot.TimelineEvent{Type: EventEliteMonsterKill, KillerTeamID: 200, MonsterType: MonsterBaron})

	blue := r.TeamTotals(TeamBlue)
	if blue.Dragons != 2 || blue.FireDragons != 1 {
		t.Errorf("blue dragons = %d fire = %d, want 2 and 1", blue.Dragons, blue.FireDragons)
	}
	red := r.TeamTotals(TeamRed)
	want := TeamTotals{VoidGrubs: 2, Heralds: 1, Barons: 1}
	if red != want {
		t.Errorf("red = %+v, want %+v", red, want)
	}
}

// A sub type containing two element tags counts toward both
func TestReducer_DragonElementsNotExclusive(t *testing.T) {
	r := NewReducer(roster())
	r.Apply(riot.TimelineEvent{Type: EventEliteMonsterKill, KillerTeamID: 200, MonsterType: MonsterDragon, MonsterSubType: "FIRE_AIR_DRAGON"})

	red := r.TeamTotals(TeamRed)
	if red.Dragons != 1 {
		t.Errorf("Dragons = %d, want 1", red.Dragons)
	}
	if red.FireDragons != 1 || red.AirDragons != 1 {
		t.Errorf("fire/air = %d/%d, want 1/1", red.FireDragons, red.AirDragons)
	}
	if red.WaterDragons+red.EarthDragons+red.ChemtechDragons+red.HextechDragons != 0 {
		t.Errorf("unexpected element counts: %+v", red)
	}
}

func TestReduce_LaneDiffs(t *testing.T) {
	gold := uniform(5000)
	xp := uniform(3000)
	gold[3], gold[8] = 6200, 5000 // mid vs mid
	xp[3], xp[8] = 3500, 3100
	frames := emptyFrames(6)
	frames[5] = frameWith(gold, xp)

	snaps := Reduce(frames, roster())
	byPID := map[int]Snapshot{}
	for _, s := range snaps {
		byPID[s.ParticipantID] = s
	}

	if d := byPID[3].GoldDiff; d != 1200 {
		t.Errorf("mid blue gold diff = %d, want 1200", d)
	}
	if d := byPID[8].GoldDiff; d != -1200 {
		t.Errorf("mid red gold diff = %d, want -1200", d)
	}
	if d := byPID[3].XPDiff; d != 400 {
		t.Errorf("mid blue xp diff = %d, want 400", d)
	}
	if d := byPID[3].TeamGoldDiff; d != 1200 {
		t.Errorf("blue team gold diff = %d, want 1200", d)
	}
	if d := byPID[8].TeamGoldDiff; d != -1200 {
		t.Errorf("red team gold diff = %d, want -1200", d)
	}
	if byPID[3].RowID != 103 {
		t.Errorf("RowID = %d, want 103", byPID[3].RowID)
	}
}

// Without a same-role opponent, a player is compared with themselves
func TestReduce_NoCounterpartMeansZeroDiff(t *testing.T) {
	players := roster()
	p := players[8]
	p.Role = "" // red mid lost their role
	players[8] = p

	gold := uniform(5000)
	gold[3] = 7000
	frames := emptyFrames(6)
	frames[5] = frameWith(gold, uniform(1000))

	for _, s := range Reduce(frames, players) {
		if (s.ParticipantID == 3 || s.ParticipantID == 8) && (s.GoldDiff != 0 || s.XPDiff != 0) {
			t.Errorf("participant %d diffs = %d/%d, want 0/0", s.ParticipantID, s.GoldDiff, s.XPDiff)
		}
	}
}

func TestReduce_MissingParticipantFrame(t *testing.T) {
	frames := emptyFrames(6)
	delete(frames[5].ParticipantFrames, "4")

	snaps := Reduce(frames, roster())
	if len(snaps) != 9 {
		t.Fatalf("Expected 9 snapshots, got %d", len(snaps))
	}
	for _, s := range snaps {
		if s.ParticipantID == 4 {
			t.Errorf("participant without a frame got a snapshot: %+v", s)
		}
		if s.ParticipantID == 9 && s.GoldDiff != 0 {
			t.Errorf("counterpart missing: gold diff = %d, want 0", s.GoldDiff)
		}
	}
}

// Counters never decrease across successive snapshots
func TestReduce_CountersMonotonic(t *testing.T) {
	frames := emptyFrames(21)
	for i := 1; i < 21; i++ {
		frames[i].Events = []riot.TimelineEvent{
			{Type: EventChampionKill, KillerID: 1 + i%10, VictimID: 1 + (i+5)%10, AssistingParticipantIDs: []int{1 + (i+1)%10}},
			{Type: EventBuildingKill, TeamID: 100 + 100*(i%2), BuildingType: BuildingTower},
			{Type: EventEliteMonsterKill, KillerTeamID: 200 - 100*(i%2), MonsterType: MonsterDragon, MonsterSubType: "WATER_DRAGON"},
		}
	}

	last := map[int]Snapshot{}
	for _, s := range Reduce(frames, roster()) {
		prev, ok := last[s.ParticipantID]
		if ok {
			if s.Combat.Kills < prev.Combat.Kills || s.Combat.Deaths < prev.Combat.Deaths || s.Combat.Assists < prev.Combat.Assists {
				t.Errorf("participant %d combat decreased at frame %d", s.ParticipantID, s.Frame)
			}
			if s.Objectives.Kills < prev.Objectives.Kills || s.Objectives.Towers < prev.Objectives.Towers || s.Objectives.Dragons < prev.Objectives.Dragons {
				t.Errorf("participant %d objectives decreased at frame %d", s.ParticipantID, s.Frame)
			}
		}
		last[s.ParticipantID] = s
	}
	if len(last) != 10 {
		t.Fatalf("Expected snapshots for 10 players, got %d", len(last))
	}
}

func TestReducer_SnapshotIsIndependent(t *testing.T) {
	r := NewReducer(roster())
	frame := frameWith(uniform(1000), uniform(100))
	r.Apply(riot.TimelineEvent{Type: EventChampionKill, KillerID: 1, VictimID: 6})
	first := r.Emit(5, frame)

	r.Apply(riot.TimelineEvent{Type: EventChampionKill, KillerID: 1, VictimID: 6})
	if first[0].Combat.Kills != 1 || first[0].Objectives.Kills != 1 {
		t.Errorf("earlier snapshot mutated: %+v", first[0].Combat)
	}
}
