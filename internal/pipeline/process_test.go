package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fortuna/stintstats/internal/pbp"
	"github.com/fortuna/stintstats/internal/stints"
)

func clk(min, sec int) pbp.Clock {
	return pbp.Clock(time.Duration(min)*time.Minute + time.Duration(sec)*time.Second)
}

func roster(team int, starters []string, bench map[string]pbp.Clock) []pbp.Player {
	var out []pbp.Player
	for _, name := range starters {
		out = append(out, pbp.Player{Team: team, Name: name, Starter: true, Minutes: clk(20, 0)})
	}
	for name, mins := range bench {
		out = append(out, pbp.Player{Team: team, Name: name, Minutes: mins})
	}
	return out
}

func sampleGame() *pbp.Game {
	seq := 0
	ev := func(team, period int, clock pbp.Clock, action, subType, player string, success bool) pbp.Event {
		seq++
		return pbp.Event{
			Team:       team,
			Period:     period,
			Clock:      clock,
			ActionType: action,
			SubType:    subType,
			Player:     player,
			Success:    success,
			Sequence:   seq,
		}
	}

	events := []pbp.Event{
		ev(0, 1, clk(10, 0), "period", "start", "", false),
		ev(1, 1, clk(9, 30), "2pt", "jumpshot", "A", true),
		ev(2, 1, clk(8, 0), "3pt", "jumpshot", "V", true),
		ev(1, 1, clk(6, 0), pbp.ActionSubstitution, pbp.SubTypeOut, "A", false),
		ev(1, 1, clk(6, 0), pbp.ActionSubstitution, pbp.SubTypeIn, "F", false),
		ev(1, 1, clk(5, 0), "freethrow", "1of1", "F", true),
		ev(0, 2, clk(10, 0), "period", "start", "", false),
		ev(2, 2, clk(7, 0), "2pt", "layup", "W", true),
		ev(2, 2, clk(4, 0), pbp.ActionSubstitution, pbp.SubTypeOut, "Q", false),
		ev(0, 3, clk(10, 0), "period", "start", "", false),
		ev(1, 3, clk(3, 0), pbp.ActionSubstitution, pbp.SubTypeOut, "F", false),
		ev(1, 3, clk(3, 0), pbp.ActionSubstitution, pbp.SubTypeIn, "A", false),
		ev(1, 3, clk(2, 0), "3pt", "jumpshot", "A", true),
		ev(0, 4, clk(10, 0), "period", "start", "", false),
		ev(2, 4, clk(1, 0), "freethrow", "1of1", "X", false),
		ev(1, 4, clk(0, 40), "2pt", "jumpshot", "B", false),
		ev(2, 4, clk(0, 38), "rebound", "defensive", "Y", false),
	}

	// feed order is not play order
	events[1], events[15] = events[15], events[1]

	return &pbp.Game{
		Teams: [2]pbp.Team{
			{
				Number:  1,
				Name:    "Home",
				Score:   6,
				Players: roster(1, []string{"A", "B", "C", "D", "E"}, map[string]pbp.Clock{"F": clk(13, 0), "G": 0}),
			},
			{
				Number:  2,
				Name:    "Away",
				Score:   5,
				Players: roster(2, []string{"V", "W", "X", "Y", "Z"}, nil),
			},
		},
		Events: events,
	}
}

func TestProcessPointsRoundTrip(t *testing.T) {
	res, err := Process(sampleGame(), Options{GameID: "g1"})
	if err != nil {
		t.Fatal(err)
	}

	for _, team := range []int{1, 2} {
		direct := TeamPoints(res.Events, team)
		if got := StintPoints(res.Stats, team); got != direct {
			t.Errorf("team %d: stint points %d, direct %d", team, got, direct)
		}
	}
	if TeamPoints(res.Events, 1) != 6 || TeamPoints(res.Events, 2) != 5 {
		t.Errorf("unexpected totals %d/%d", TeamPoints(res.Events, 1), TeamPoints(res.Events, 2))
	}

	oppPts := 0
	for _, s := range res.Stats {
		if s.Team == 1 && s.Row.Opp != nil {
			oppPts += s.Row.Opp.PTS
		}
	}
	if oppPts != 5 {
		t.Errorf("opponent points across team 1 stints = %d, want 5", oppPts)
	}
}

func TestProcessMinutesCoverGame(t *testing.T) {
	res, err := Process(sampleGame(), Options{GameID: "g1"})
	if err != nil {
		t.Fatal(err)
	}

	mins := map[int]float64{}
	for _, s := range res.Stints {
		mins[s.Team] += s.Minutes
	}
	for _, team := range []int{1, 2} {
		if math.Abs(mins[team]-40) > 1e-9 {
			t.Errorf("team %d minutes = %v, want 40", team, mins[team])
		}
	}

	if res.Sets[0].Len() != 2 || res.Sets[1].Len() != 1 {
		t.Errorf("segments = %d/%d", res.Sets[0].Len(), res.Sets[1].Len())
	}
}

func TestProcessTagsBothTeams(t *testing.T) {
	res, err := Process(sampleGame(), Options{GameID: "g1"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		player string
		period int
		s1, s2 int
	}{
		{"V", 1, 1, 1},
		{"F", 1, 2, 1},
		{"W", 2, 2, 1},
		{"Y", 4, 1, 1},
	}
	for _, tt := range tests {
		found := false
		for _, e := range res.Events {
			if e.Player != tt.player || e.Period != tt.period || e.IsSubstitution() {
				continue
			}
			found = true
			if e.StintFor(1) != tt.s1 || e.StintFor(2) != tt.s2 {
				t.Errorf("%s in period %d tagged %d/%d, want %d/%d", tt.player, tt.period, e.Stint1, e.Stint2, tt.s1, tt.s2)
			}
		}
		if !found {
			t.Errorf("no event for %s in period %d", tt.player, tt.period)
		}
	}

	// period markers sit exactly on the period's start clock
	if res.Events[0].ActionType != "period" || res.Events[0].Stint1 != stints.NoStint {
		t.Errorf("first event = %+v", res.Events[0])
	}
	for i := 1; i < len(res.Events); i++ {
		if pbp.Less(res.Events[i].Event, res.Events[i-1].Event) {
			t.Fatalf("events out of order at %d", i)
		}
	}
}

func TestProcessStatsJoinSegments(t *testing.T) {
	res, err := Process(sampleGame(), Options{GameID: "g1"})
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range res.Stats {
		if s.Stint == stints.NoStint {
			t.Errorf("sentinel stint leaked into stats")
		}
		seg := res.Sets[s.Team-1].Get(s.Stint)
		if seg == nil || !seg.Lineup.Equal(s.Lineup) {
			t.Errorf("team %d stint %d not joined to its lineup", s.Team, s.Stint)
		}
	}

	var team1 []int
	for _, s := range res.Stats {
		if s.Team == 1 {
			team1 = append(team1, s.Stint)
		}
	}
	if len(team1) != 2 || team1[0] != 1 || team1[1] != 2 {
		t.Errorf("team 1 stat rows = %v, want [1 2]", team1)
	}
}

func TestProcessGameAndPlayers(t *testing.T) {
	date := time.Date(2023, 10, 14, 0, 0, 0, 0, time.UTC)
	opts := Options{GameID: "g1", Round: 3}
	opts.Date.Time, opts.Date.Valid = date, true

	res, err := Process(sampleGame(), opts)
	if err != nil {
		t.Fatal(err)
	}

	g := res.Game
	if g.GameID != "g1" || g.Round != 3 || g.Team1 != "Home" || g.Team2 != "Away" || g.S1 != 6 || g.S2 != 5 || g.Winner != 1 {
		t.Errorf("game record = %+v", g)
	}
	if g.Venue.Valid {
		t.Errorf("venue should be null")
	}

	raw, err := json.Marshal(g)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(raw, []byte(`"date":"2023-10-14"`)) || !bytes.Contains(raw, []byte(`"venue":null`)) {
		t.Errorf("game json = %s", raw)
	}

	if len(res.Players) != 11 {
		t.Fatalf("players = %d, want 11", len(res.Players))
	}
	for _, p := range res.Players {
		if p.Name == "G" {
			t.Errorf("player without minutes listed")
		}
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	game := sampleGame()
	first, err := Process(game, Options{GameID: "g1"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Process(game, Options{GameID: "g1"})
	if err != nil {
		t.Fatal(err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("outputs differ between runs")
	}

	if game.Events[1].Player != "B" {
		t.Errorf("Process reordered the caller's events")
	}
}

func TestProcessWarningsCarryGameID(t *testing.T) {
	sink := &stints.Collector{}
	if _, err := Process(sampleGame(), Options{GameID: "g1", Warnings: sink}); err != nil {
		t.Fatal(err)
	}

	if sink.Count(stints.OutgoingOffCourt) != 1 {
		t.Fatalf("warnings = %+v", sink.Warnings())
	}
	for _, w := range sink.Warnings() {
		if w.GameID != "g1" || w.Team != 2 || w.Period != 2 {
			t.Errorf("warning = %+v", w)
		}
	}
}

func TestProcessRejectsEmptyGame(t *testing.T) {
	if _, err := Process(&pbp.Game{}, Options{}); !errors.Is(err, ErrNoEvents) {
		t.Errorf("err = %v, want ErrNoEvents", err)
	}
}
