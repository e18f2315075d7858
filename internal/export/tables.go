// Package export writes processed games as CSV tables with .xlsx copies.
package export

import (
	"strconv"
	"time"

	"github.com/fortuna/stintstats/internal/boxscore"
	"github.com/fortuna/stintstats/internal/pipeline"
	"github.com/fortuna/stintstats/internal/stints"
)

// Table is one output table: its CSV file name, header and row renderer.
type Table struct {
	Name    string
	File    string
	Columns []string
	rows    func(res *pipeline.Result) [][]string
}

var (
	gameColumns   = []string{"game_id", "date", "round", "team1", "team2", "s1", "s2", "winner", "venue"}
	stintColumns  = []string{"game_id", "tno", "team", "stint", "lineup", "intervals", "mins"}
	statKeyColumn = []string{"game_id", "tno", "team", "stint", "lineup", "mins"}
	playerColumns = []string{
		"game_id", "tno", "team", "player", "shirt_number", "playing_position", "starter", "captain", "mins",
		"pts", "fgm", "fga", "2ptm", "2pta", "3ptm", "3pta", "ftm", "fta",
		"oreb", "dreb", "reb", "ast", "tov", "stl", "blk", "blk_received", "pf", "fouls_drawn", "plus_minus",
	}
)

// Tables lists the outputs in write order.
func Tables() []Table {
	return []Table{
		{Name: "games", File: "games_df.csv", Columns: gameColumns, rows: gameRows},
		{Name: "players", File: "players_df.csv", Columns: playerColumns, rows: playerRows},
		{Name: "stints", File: "stints_df.csv", Columns: stintColumns, rows: stintRows},
		{Name: "stint_stats", File: "stint_stats_df.csv", Columns: statColumns(), rows: statRows},
	}
}

func statColumns() []string {
	cols := append([]string{}, statKeyColumn...)
	return append(cols, boxscore.StatColumns()...)
}

func gameRows(res *pipeline.Result) [][]string {
	g := res.Game
	date := ""
	if g.Date.Valid {
		date = g.Date.Time.Format(time.DateOnly)
	}
	venue := ""
	if g.Venue.Valid {
		venue = g.Venue.String
	}
	return [][]string{{
		g.GameID, date, strconv.Itoa(g.Round), g.Team1, g.Team2,
		strconv.Itoa(g.S1), strconv.Itoa(g.S2), strconv.Itoa(g.Winner), venue,
	}}
}

func playerRows(res *pipeline.Result) [][]string {
	out := make([][]string, 0, len(res.Players))
	for _, p := range res.Players {
		s := p.Stats
		row := []string{
			p.GameID, strconv.Itoa(p.Team), p.TeamName, p.Name, p.ShirtNumber, p.Position,
			strconv.FormatBool(p.Starter), strconv.FormatBool(p.Captain), Cell(p.Minutes.Duration().Minutes()),
		}
		for _, v := range []int{
			s.Points, s.FieldGoalsMade, s.FieldGoalsAttempted, s.TwoPointersMade, s.TwoPointersAttempted,
			s.ThreePointersMade, s.ThreePointersAttempted, s.FreeThrowsMade, s.FreeThrowsAttempted,
			s.ReboundsOffensive, s.ReboundsDefensive, s.ReboundsTotal, s.Assists, s.Turnovers, s.Steals,
			s.Blocks, s.BlocksReceived, s.FoulsPersonal, s.FoulsOn, s.PlusMinusPoints,
		} {
			row = append(row, strconv.Itoa(v))
		}
		out = append(out, row)
	}
	return out
}

func stintRows(res *pipeline.Result) [][]string {
	out := make([][]string, 0, len(res.Stints))
	for _, s := range res.Stints {
		row := append(stintKey(s), stints.FormatIntervals(s.Intervals), Cell(s.Minutes))
		out = append(out, row)
	}
	return out
}

func statRows(res *pipeline.Result) [][]string {
	out := make([][]string, 0, len(res.Stats))
	for _, s := range res.Stats {
		row := append(stintKey(s.StintRecord), Cell(s.Minutes))
		for _, v := range s.Values() {
			row = append(row, Cell(v))
		}
		out = append(out, row)
	}
	return out
}

func stintKey(s pipeline.StintRecord) []string {
	return []string{s.GameID, strconv.Itoa(s.Team), s.TeamName, strconv.Itoa(s.Stint), s.Lineup.String()}
}

// Cell renders a value for CSV; nil becomes the empty cell.
func Cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
