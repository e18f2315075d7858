package boxscore

import (
	"math"
	"testing"

	"github.com/fortuna/stintstats/internal/pbp"
)

func ev(team int, actionType, subType string, success bool) pbp.Event {
	return pbp.Event{Team: team, ActionType: actionType, SubType: subType, Success: success}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, whole float64
		want        float64
		valid       bool
	}{
		{"true shooting example", 10, 9.76, 102.46, true},
		{"half to even", 1, 32, 3.12, true},
		{"plain", 1, 4, 25, true},
		{"zero part", 0, 7, 0, true},
		{"zero denominator", 3, 0, 0, false},
		{"zero over zero", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(tt.part, tt.whole)
			if got.Valid != tt.valid {
				t.Fatalf("valid = %v, want %v", got.Valid, tt.valid)
			}
			if tt.valid && got.Float64 != tt.want {
				t.Errorf("Percent(%v, %v) = %v, want %v", tt.part, tt.whole, got.Float64, tt.want)
			}
		})
	}
}

func TestPossessionsClamp(t *testing.T) {
	if got := Possessions(0, 0, 0, 0, 3); got != 0 {
		t.Errorf("Possessions = %v, want 0", got)
	}
	if got := Possessions(3, 2, 5, 1, 2); math.Abs(got-6.2) > 1e-9 {
		t.Errorf("Possessions = %v, want 6.2", got)
	}
}

func TestTrueShooting(t *testing.T) {
	events := []pbp.Event{
		ev(1, "2pt", "jumpshot", true),
		ev(1, "2pt", "layup", true),
		ev(1, "3pt", "jumpshot", true),
		ev(1, "3pt", "jumpshot", true),
		ev(1, "freethrow", "1of2", false),
		ev(1, "freethrow", "2of2", false),
	}
	lines, err := Aggregate(events, make([]int, len(events)), 1)
	if err != nil {
		t.Fatal(err)
	}
	l := lines[0]
	if l.PTS != 10 || l.FGA != 4 || l.FTA != 2 {
		t.Fatalf("pts/fga/fta = %d/%d/%d", l.PTS, l.FGA, l.FTA)
	}
	if !l.TSP.Valid || l.TSP.Float64 != 102.46 {
		t.Errorf("tsp = %+v, want 102.46", l.TSP)
	}
	if l.PATRA != 1 || l.PATRM != 1 || l.PATRP.Float64 != 100 {
		t.Errorf("patr = %d/%d/%v", l.PATRM, l.PATRA, l.PATRP)
	}
	if l.FTP.Float64 != 0 || !l.FTP.Valid {
		t.Errorf("missed free throws should be 0%%, got %+v", l.FTP)
	}
}

func TestZeroPossessionLineHasUndefinedRates(t *testing.T) {
	events := []pbp.Event{ev(1, "rebound", "defensive", false)}
	lines, err := Aggregate(events, []int{4}, 1)
	if err != nil {
		t.Fatal(err)
	}
	l := lines[0]

	if l.Poss != 0 {
		t.Fatalf("poss = %v", l.Poss)
	}
	for name, v := range map[string]bool{
		"ortg": l.ORtg.Valid,
		"astr": l.ASTR.Valid,
		"stlr": l.STLR.Valid,
		"blkr": l.BLKR.Valid,
		"tovr": l.TOVR.Valid,
		"fgp":  l.FGP.Valid,
		"tsp":  l.TSP.Valid,
		"2ptp": l.FG2P.Valid,
	} {
		if v {
			t.Errorf("%s should be undefined", name)
		}
	}
	if l.DREB != 1 || l.TRB != 1 || l.REB != 1 {
		t.Errorf("rebounds dreb=%d trb=%d reb=%d", l.DREB, l.TRB, l.REB)
	}
}

func TestTurnoverCategories(t *testing.T) {
	events := []pbp.Event{
		ev(1, "turnover", "travel", false),
		ev(1, "turnover", "doubledribble", false),
		ev(1, "turnover", "badpass", false),
		ev(1, "turnover", "offensive", false),
		ev(1, "turnover", "3sec", false),
		ev(1, "turnover", "8sec", false),
		ev(1, "turnover", "24sec", false),
		ev(1, "rebound", "offensivedeadball", false),
	}
	lines, err := Aggregate(events, make([]int, len(events)), 1)
	if err != nil {
		t.Fatal(err)
	}
	l := lines[0]
	if l.TOV != 7 || l.TOVBallHandling != 2 || l.TOVBadPass != 1 || l.TOVOffensiveFoul != 1 ||
		l.TOV3Sec != 1 || l.TOV8Sec != 1 || l.TOV24Sec != 1 {
		t.Errorf("turnovers = %+v", l)
	}
	if l.ODREB != 1 || l.OREB != 0 || l.REB != 1 {
		t.Errorf("deadball rebound counted wrong: odreb=%d oreb=%d reb=%d", l.ODREB, l.OREB, l.REB)
	}
}

func TestAggregateLengthMismatch(t *testing.T) {
	if _, err := Aggregate([]pbp.Event{{}}, nil, 1); err == nil {
		t.Errorf("expected error")
	}
}

func TestBuildRows(t *testing.T) {
	events := []pbp.Event{
		ev(1, "2pt", "jumpshot", true),
		ev(1, "2pt", "jumpshot", false),
		ev(2, "rebound", "defensive", false),
		ev(2, "3pt", "jumpshot", true),
		ev(1, "rebound", "offensive", false),
		ev(1, "freethrow", "1of1", true),
		ev(1, "block", "", false),
		ev(0, "period", "start", false),
		ev(1, "turnover", "travel", false),
	}
	tags := []int{1, 1, 1, 1, 1, 2, 2, 1, -1}

	rows, err := BuildRows(events, tags, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].Stint != 1 || rows[1].Stint != 2 || rows[2].Stint != -1 {
		t.Fatalf("unexpected row order: %d rows", len(rows))
	}

	r := rows[0]
	floats := map[string]float64{
		"poss":                1,
		"ortg":                200,
		"fgp":                 50,
		"drtg":                300,
		"nrtg":                -100,
		"orebp":               50,
		"trbr":                50,
		"opp_fga_blocked":     0,
		"poss_opp":            1,
		"ortg_opp":            300,
		"drtg_opp":            200,
		"nrtg_opp":            100,
		"drebp_opp":           50,
		"trbr_opp":            50,
		"opp_fga_blocked_opp": 0,
	}
	for col, want := range floats {
		got, ok := r.Value(col).(float64)
		if !ok || got != want {
			t.Errorf("%s = %v, want %v", col, r.Value(col), want)
		}
	}

	ints := map[string]int64{"drebc": 0, "odrec": 2, "drebc_opp": 2, "odrec_opp": 0}
	for col, want := range ints {
		got, ok := r.Value(col).(int64)
		if !ok || got != want {
			t.Errorf("%s = %v, want %v", col, r.Value(col), want)
		}
	}
	if r.Value("pts").(int) != 2 || r.Value("pts_opp").(int) != 3 {
		t.Errorf("pts = %v / %v", r.Value("pts"), r.Value("pts_opp"))
	}
	for _, col := range []string{"drebp", "orebp_opp"} {
		if r.Value(col) != nil {
			t.Errorf("%s should be undefined, got %v", col, r.Value(col))
		}
	}

	// stint 2: the opponent has no events at all
	r = rows[1]
	if r.Opp != nil {
		t.Fatalf("stint 2 should have no opponent line")
	}
	for _, col := range []string{"pts_opp", "poss_opp", "drtg", "nrtg", "drebc", "nrtg_opp", "trbr_opp"} {
		if r.Value(col) != nil {
			t.Errorf("%s should be undefined, got %v", col, r.Value(col))
		}
	}
	if got, ok := r.Value("drtg_opp").(float64); !ok || got != 227.27 {
		t.Errorf("drtg_opp = %v, want 227.27", r.Value("drtg_opp"))
	}

	if got := len(rows[2].Values()); got != 2*len(DataColumns) {
		t.Errorf("Values() length = %d", got)
	}
	if rows[2].Own.TOVBallHandling != 1 {
		t.Errorf("sentinel row should still be aggregated")
	}
}

func TestStatColumns(t *testing.T) {
	cols := StatColumns()
	if len(cols) != 92 {
		t.Fatalf("expected 92 columns, got %d", len(cols))
	}
	if cols[0] != "poss" || cols[46] != "poss_opp" || cols[91] != "opp_fga_blocked_opp" {
		t.Errorf("unexpected column order: %s %s %s", cols[0], cols[46], cols[91])
	}

	row := NewRow(1, &Line{Stint: 1}, &Line{Stint: 1})
	for _, c := range DataColumns {
		if _, ok := row.Cross.value(c); ok {
			continue
		}
		if _, ok := row.Own.value(c); !ok {
			t.Errorf("column %s is not answered by Line or Cross", c)
		}
	}
}
