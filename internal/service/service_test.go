package service

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/fortuna/stintstats/internal/pbp"
	"github.com/fortuna/stintstats/internal/store"
)

func TestBuildTrend(t *testing.T) {
	lines := []*store.GamePlayer{
		{GameID: "1", Minutes: 20, Stats: pbp.PlayerStats{Points: 10, FieldGoalsMade: 4, FieldGoalsAttempted: 8, PlusMinusPoints: 5}},
		{GameID: "2", Minutes: 30, Stats: pbp.PlayerStats{Points: 20, FieldGoalsMade: 8, FieldGoalsAttempted: 12, PlusMinusPoints: -3}},
	}

	trend := buildTrend("A", lines)
	if trend.GamesAnalyzed != 2 || trend.PPG != 15 || trend.MPG != 25 || trend.PlusMinus != 1 {
		t.Errorf("trend = %+v", trend)
	}
	if trend.FGPct == nil || *trend.FGPct != 0.6 {
		t.Errorf("fg pct = %v, want 0.6", trend.FGPct)
	}
	if math.Abs(trend.PPGStdDev-5) > 1e-9 {
		t.Errorf("std dev = %v, want 5", trend.PPGStdDev)
	}
}

func TestBuildTrendWithoutAttempts(t *testing.T) {
	lines := []*store.GamePlayer{
		{GameID: "1", Minutes: 12, Stats: pbp.PlayerStats{Points: 2, FreeThrowsMade: 2, FreeThrowsAttempted: 2}},
		{GameID: "2", Minutes: 3},
	}
	trend := buildTrend("B", lines)

	tests := []struct {
		name string
		got  *float64
		want *float64
	}{
		{"fg_pct", trend.FGPct, nil},
		{"three_pct", trend.ThreePct, nil},
		{"ft_pct", trend.FTPct, ptr(1)},
	}
	for _, tt := range tests {
		switch {
		case tt.want == nil && tt.got != nil:
			t.Errorf("%s = %v, want null", tt.name, *tt.got)
		case tt.want != nil && (tt.got == nil || *tt.got != *tt.want):
			t.Errorf("%s = %v, want %v", tt.name, tt.got, *tt.want)
		}
	}

	b, err := json.Marshal(trend)
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(b, &payload); err != nil {
		t.Fatal(err)
	}
	if v, ok := payload["fg_pct"]; !ok || v != nil {
		t.Errorf("fg_pct in JSON = %v (present %v), want null", v, ok)
	}
}

func ptr(v float64) *float64 { return &v }

func statsJSON(t *testing.T, m map[string]interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRateLineups(t *testing.T) {
	rows := []*store.StintStats{
		{Team: 1, Stint: 1, Minutes: 4, Stats: statsJSON(t, map[string]interface{}{"pts": 6, "pts_opp": 8, "poss": 5.5, "nrtg": nil})},
		{Team: 1, Stint: 2, Minutes: 6, Stats: statsJSON(t, map[string]interface{}{"pts": 10, "pts_opp": 4})},
		{Team: 2, Stint: 1, Minutes: 0.5, Stats: statsJSON(t, map[string]interface{}{"pts": 9, "pts_opp": 0})},
		{Team: 2, Stint: 2, Minutes: 3, Stats: statsJSON(t, map[string]interface{}{"pts": 2, "pts_opp": nil})},
	}

	got, err := rateLineups(rows, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d ratings, want the short segment dropped", len(got))
	}

	order := []struct{ team, stint, pm int }{{1, 2, 6}, {2, 2, 2}, {1, 1, -2}}
	for i, want := range order {
		if got[i].Team != want.team || got[i].Stint != want.stint || got[i].PlusMinus != want.pm {
			t.Errorf("rating %d = %+v, want %+v", i, got[i], want)
		}
	}
	if got[2].Possessions == nil || *got[2].Possessions != 5.5 || got[2].NetRating != nil {
		t.Errorf("nullable columns = %v / %v", got[2].Possessions, got[2].NetRating)
	}
}

func TestRateLineupsBadStats(t *testing.T) {
	rows := []*store.StintStats{{Stint: 1, Minutes: 5, Stats: json.RawMessage(`[1,2]`)}}
	if _, err := rateLineups(rows, 0); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewBoxScoreSplitsTeams(t *testing.T) {
	game := &store.Game{GameID: "9"}
	box := newBoxScore(game, []*store.GamePlayer{
		{Team: 1, Player: "A"},
		{Team: 2, Player: "V"},
		{Team: 1, Player: "B"},
	})
	if len(box.Team1Stats) != 2 || len(box.Team2Stats) != 1 || box.Game != game {
		t.Errorf("box = %+v", box)
	}
	if empty := newBoxScore(game, nil); empty.Team1Stats == nil {
		t.Errorf("empty team lines should encode as []")
	}
}
