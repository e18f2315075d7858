package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/stintstats/internal/pbp"
)

// Game is a stored games row.
type Game struct {
	GameID    string         `json:"game_id" db:"game_id"`
	GameDate  sql.NullTime   `json:"game_date" db:"game_date"`
	Round     int            `json:"round" db:"round"`
	Team1     string         `json:"team1" db:"team1"`
	Team2     string         `json:"team2" db:"team2"`
	S1        int            `json:"s1" db:"s1"`
	S2        int            `json:"s2" db:"s2"`
	Winner    int            `json:"winner" db:"winner"`
	Venue     sql.NullString `json:"venue" db:"venue"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Stint is a stored lineup segment. Intervals are kept as the JSON array
// written by the pipeline.
type Stint struct {
	GameID    string          `json:"game_id" db:"game_id"`
	Team      int             `json:"tno" db:"tno"`
	TeamName  string          `json:"team" db:"team"`
	Stint     int             `json:"stint" db:"stint"`
	Lineup    pq.StringArray  `json:"lineup" db:"lineup"`
	Intervals json.RawMessage `json:"intervals" db:"intervals"`
	Minutes   float64         `json:"mins" db:"mins"`
}

// StintStats is a stored stint statistics row. Stats maps column name to
// value (null when undefined).
type StintStats struct {
	GameID   string          `json:"game_id" db:"game_id"`
	Team     int             `json:"tno" db:"tno"`
	TeamName string          `json:"team" db:"team"`
	Stint    int             `json:"stint" db:"stint"`
	Lineup   pq.StringArray  `json:"lineup" db:"lineup"`
	Minutes  float64         `json:"mins" db:"mins"`
	Stats    json.RawMessage `json:"stats" db:"stats"`
}

// GamePlayer is a stored players row.
type GamePlayer struct {
	GameID      string          `json:"game_id" db:"game_id"`
	Team        int             `json:"tno" db:"tno"`
	TeamName    string          `json:"team" db:"team"`
	Player      string          `json:"player" db:"player"`
	ShirtNumber sql.NullString  `json:"shirt_number" db:"shirt_number"`
	Position    sql.NullString  `json:"playing_position" db:"playing_position"`
	Starter     bool            `json:"starter" db:"starter"`
	Captain     bool            `json:"captain" db:"captain"`
	Minutes     float64         `json:"mins" db:"mins"`
	Stats       pbp.PlayerStats `json:"stats" db:"-"`
}

// TeamSummary aggregates stored games per team name.
type TeamSummary struct {
	Team          string  `json:"team"`
	Games         int     `json:"games"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	PointsFor     int     `json:"points_for"`
	PointsAgainst int     `json:"points_against"`
	AvgMargin     float64 `json:"avg_margin"`
}

// ReconciliationReport is the stored outcome of a game's consistency check.
type ReconciliationReport struct {
	GameID     string          `json:"game_id" db:"game_id"`
	Status     string          `json:"status" db:"status"`
	Mismatches int             `json:"mismatches" db:"mismatches"`
	Report     json.RawMessage `json:"report" db:"report"`
	CheckedAt  time.Time       `json:"checked_at" db:"checked_at"`
}
