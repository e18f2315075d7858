package pipeline

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fortuna/stintstats/internal/boxscore"
	"github.com/fortuna/stintstats/internal/pbp"
	"github.com/fortuna/stintstats/internal/stints"
)

// GameRecord is one row of the games table.
type GameRecord struct {
	GameID string         `json:"game_id"`
	Date   sql.NullTime   `json:"date"`
	Round  int            `json:"round"`
	Team1  string         `json:"team1"`
	Team2  string         `json:"team2"`
	S1     int            `json:"s1"`
	S2     int            `json:"s2"`
	Winner int            `json:"winner"`
	Venue  sql.NullString `json:"venue"`
}

// MarshalJSON flattens the nullable fields.
func (g GameRecord) MarshalJSON() ([]byte, error) {
	type alias struct {
		GameID string  `json:"game_id"`
		Date   *string `json:"date"`
		Round  int     `json:"round"`
		Team1  string  `json:"team1"`
		Team2  string  `json:"team2"`
		S1     int     `json:"s1"`
		S2     int     `json:"s2"`
		Winner int     `json:"winner"`
		Venue  *string `json:"venue"`
	}
	out := alias{
		GameID: g.GameID,
		Round:  g.Round,
		Team1:  g.Team1,
		Team2:  g.Team2,
		S1:     g.S1,
		S2:     g.S2,
		Winner: g.Winner,
	}
	if g.Date.Valid {
		d := g.Date.Time.Format(time.DateOnly)
		out.Date = &d
	}
	if g.Venue.Valid {
		out.Venue = &g.Venue.String
	}
	return json.Marshal(out)
}

// TaggedEvent is a play-by-play event with the stint on court for each team.
type TaggedEvent struct {
	pbp.Event
	Stint1 int `json:"stint1"`
	Stint2 int `json:"stint2"`
}

// StintFor returns the event's stint id for team 1 or 2.
func (e TaggedEvent) StintFor(team int) int {
	if team == 2 {
		return e.Stint2
	}
	return e.Stint1
}

// StintRecord is one row of the stints table.
type StintRecord struct {
	GameID    string            `json:"game_id"`
	Team      int               `json:"tno"`
	TeamName  string            `json:"team"`
	Stint     int               `json:"stint"`
	Lineup    stints.Lineup     `json:"lineup"`
	Intervals []stints.Interval `json:"intervals"`
	Minutes   float64           `json:"mins"`
}

// StatRecord is one row of the stint statistics table: a stint's metadata
// joined with both sides of its box score.
type StatRecord struct {
	StintRecord
	Row *boxscore.Row `json:"-"`
}

// Values returns the statistic columns in boxscore.StatColumns order.
func (s StatRecord) Values() []interface{} {
	return s.Row.Values()
}

// MarshalJSON renders the stint metadata followed by every stat column.
func (s StatRecord) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"game_id":   s.GameID,
		"tno":       s.Team,
		"team":      s.TeamName,
		"stint":     s.Stint,
		"lineup":    s.Lineup,
		"intervals": s.Intervals,
		"mins":      s.Minutes,
	}
	for col, v := range s.Stats() {
		out[col] = v
	}
	return json.Marshal(out)
}

// Stats maps every stat column to its value.
func (s StatRecord) Stats() map[string]interface{} {
	values := s.Row.Values()
	out := make(map[string]interface{}, len(values))
	for i, col := range boxscore.StatColumns() {
		out[col] = values[i]
	}
	return out
}

// PlayerRecord is one row of the players table.
type PlayerRecord struct {
	GameID   string `json:"game_id"`
	TeamName string `json:"team"`
	pbp.Player
}

// Result is everything one game produces.
type Result struct {
	Game    GameRecord     `json:"game"`
	Events  []TaggedEvent  `json:"events"`
	Stints  []StintRecord  `json:"stints"`
	Stats   []StatRecord   `json:"stint_stats"`
	Players []PlayerRecord `json:"players"`

	Sets [2]*stints.Set `json:"-"`
}
