package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fortuna/stintstats/internal/pbp"
	"github.com/fortuna/stintstats/internal/pipeline"
)

func clk(min, sec int) pbp.Clock {
	return pbp.Clock(time.Duration(min)*time.Minute + time.Duration(sec)*time.Second)
}

func result(t *testing.T, gameID string) *pipeline.Result {
	t.Helper()
	team := func(n int, names ...string) pbp.Team {
		tm := pbp.Team{Number: n, Name: []string{"", "Home", "Away"}[n], Score: 2 * (3 - n)}
		for _, name := range names {
			tm.Players = append(tm.Players, pbp.Player{Team: n, Name: name, Starter: true, Minutes: clk(10, 0)})
		}
		return tm
	}
	game := &pbp.Game{
		Teams: [2]pbp.Team{team(1, "A", "B", "C", "D", "E"), team(2, "V", "W", "X", "Y", "Z")},
		Events: []pbp.Event{
			{Team: 1, Period: 1, Clock: clk(9, 0), ActionType: "2pt", Player: "A", Success: true, Sequence: 1},
			{Team: 1, Period: 1, Clock: clk(8, 0), ActionType: "2pt", Player: "B", Success: true, Sequence: 2},
			{Team: 2, Period: 1, Clock: clk(7, 0), ActionType: "2pt", Player: "V", Success: true, Sequence: 3},
		},
	}
	res, err := pipeline.Process(game, pipeline.Options{GameID: gameID, Round: 3})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestWriteMergesByGame(t *testing.T) {
	dir := t.TempDir()
	e, err := NewExporter(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Write([]*pipeline.Result{result(t, "1"), result(t, "2")}); err != nil {
		t.Fatal(err)
	}
	if err := e.Write([]*pipeline.Result{result(t, "2")}); err != nil {
		t.Fatal(err)
	}

	games := readCSV(t, filepath.Join(dir, "games_df.csv"))
	if len(games) != 3 {
		t.Fatalf("games rows = %d, want header + 2", len(games))
	}
	if strings.Join(games[0], ",") != "game_id,date,round,team1,team2,s1,s2,winner,venue" {
		t.Errorf("header = %v", games[0])
	}
	if games[1][0] != "1" || games[2][0] != "2" {
		t.Errorf("game order = %s, %s", games[1][0], games[2][0])
	}
	// null date and venue
	if games[1][1] != "" || games[1][8] != "" {
		t.Errorf("null cells rendered as %q / %q", games[1][1], games[1][8])
	}
	if games[1][2] != "3" || games[1][7] != "1" {
		t.Errorf("round/winner = %s/%s", games[1][2], games[1][7])
	}

	stats := readCSV(t, filepath.Join(dir, "stint_stats_df.csv"))
	if got := len(stats[0]); got != 6+92 {
		t.Errorf("stint_stats columns = %d", got)
	}
	// one stint per team per game
	if len(stats) != 1+4 {
		t.Errorf("stint_stats rows = %d", len(stats)-1)
	}

	players := readCSV(t, filepath.Join(dir, "players_df.csv"))
	if len(players) != 1+20 {
		t.Errorf("players rows = %d", len(players)-1)
	}

	ids, err := e.SavedGameIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || !ids["1"] || !ids["2"] {
		t.Errorf("saved ids = %v", ids)
	}
}

func TestBackupCopiesExistingTables(t *testing.T) {
	dir := t.TempDir()
	e, _ := NewExporter(dir)

	if err := e.Backup(); err != nil {
		t.Fatalf("backup with no tables: %v", err)
	}
	if err := e.Write([]*pipeline.Result{result(t, "1")}); err != nil {
		t.Fatal(err)
	}
	if err := e.Backup(); err != nil {
		t.Fatal(err)
	}
	for _, tbl := range Tables() {
		orig, _ := os.ReadFile(e.Path(tbl))
		bak, err := os.ReadFile(e.Path(tbl) + ".bak")
		if err != nil {
			t.Fatalf("%s: %v", tbl.File, err)
		}
		if !bytes.Equal(orig, bak) {
			t.Errorf("%s.bak differs", tbl.File)
		}
		if _, err := os.Stat(e.XLSXPath(tbl) + ".bak"); err != nil {
			t.Errorf("%s spreadsheet not backed up: %v", tbl.Name, err)
		}
	}
}

func TestWriteSpreadsheetCopies(t *testing.T) {
	dir := t.TempDir()
	e, _ := NewExporter(dir)
	if err := e.Write([]*pipeline.Result{result(t, "1")}); err != nil {
		t.Fatal(err)
	}
	if err := e.Write([]*pipeline.Result{result(t, "2")}); err != nil {
		t.Fatal(err)
	}

	for _, tbl := range Tables() {
		if got := filepath.Base(e.XLSXPath(tbl)); got != strings.TrimSuffix(tbl.File, ".csv")+".xlsx" {
			t.Errorf("xlsx path = %s", got)
		}

		f, err := excelize.OpenFile(e.XLSXPath(tbl))
		if err != nil {
			t.Fatalf("%s: %v", tbl.Name, err)
		}
		rows, err := f.GetRows(tbl.Name)
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", tbl.Name, err)
		}

		csvRows := readCSV(t, e.Path(tbl))
		if len(rows) != len(csvRows) {
			t.Fatalf("%s: %d sheet rows, %d csv rows", tbl.Name, len(rows), len(csvRows))
		}
		if strings.Join(rows[0], ",") != strings.Join(tbl.Columns, ",") {
			t.Errorf("%s header = %v", tbl.Name, rows[0])
		}
		if rows[1][0] != "1" || rows[len(rows)-1][0] != "2" {
			t.Errorf("%s game ids = %s..%s", tbl.Name, rows[1][0], rows[len(rows)-1][0])
		}
	}
}

func TestXLSXCells(t *testing.T) {
	got := xlsxCells([]string{"", "12", "102.46", "007", "A, B", "1e3", "-2"})
	want := []interface{}{nil, 12.0, 102.46, "007", "A, B", "1e3", -2.0}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestWriteRejectsForeignHeader(t *testing.T) {
	dir := t.TempDir()
	e, _ := NewExporter(dir)
	if err := os.WriteFile(filepath.Join(dir, "games_df.csv"), []byte("id,when\n1,x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.Write([]*pipeline.Result{result(t, "1")}); err == nil {
		t.Errorf("expected header mismatch error")
	}
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	stints := Tables()[2]
	if err := WriteTo(&buf, stints, []*pipeline.Result{result(t, "9")}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[1], `9,1,Home,1,"A, B, C, D, E",P1 10:00-00:00,10`) {
		t.Errorf("stint row = %q", lines[1])
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{3, "3"},
		{int64(-2), "-2"},
		{102.46, "102.46"},
		{1.0, "1"},
		{true, "true"},
		{"x", "x"},
	}
	for _, tt := range tests {
		if got := Cell(tt.in); got != tt.want {
			t.Errorf("Cell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
