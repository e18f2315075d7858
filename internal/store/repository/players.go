package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/stintstats/internal/store"
)

// PlayerRepository handles per-game player box score access
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerSelectColumns = `
	game_id, tno, team, player, shirt_number, playing_position, starter, captain, mins,
	points, field_goals_made, field_goals_attempted, two_pointers_made, two_pointers_attempted,
	three_pointers_made, three_pointers_attempted, free_throws_made, free_throws_attempted,
	rebounds_offensive, rebounds_defensive, rebounds_total, assists, turnovers, steals,
	blocks, blocks_received, fouls_personal, fouls_on, plus_minus`

// GetByGame returns the players who took the floor in a game
func (r *PlayerRepository) GetByGame(ctx context.Context, gameID string) ([]*store.GamePlayer, error) {
	query := `SELECT ` + playerSelectColumns + ` FROM game_players WHERE game_id = $1 ORDER BY tno, mins DESC, player`
	return r.query(ctx, query, gameID)
}

// GetByName returns a player's lines across stored games
func (r *PlayerRepository) GetByName(ctx context.Context, name string) ([]*store.GamePlayer, error) {
	query := `SELECT ` + playerSelectColumns + ` FROM game_players WHERE player = $1 ORDER BY game_id`
	return r.query(ctx, query, name)
}

func (r *PlayerRepository) query(ctx context.Context, query string, args ...interface{}) ([]*store.GamePlayer, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	var players []*store.GamePlayer
	for rows.Next() {
		p := &store.GamePlayer{}
		s := &p.Stats
		err := rows.Scan(
			&p.GameID, &p.Team, &p.TeamName, &p.Player, &p.ShirtNumber, &p.Position,
			&p.Starter, &p.Captain, &p.Minutes,
			&s.Points, &s.FieldGoalsMade, &s.FieldGoalsAttempted, &s.TwoPointersMade, &s.TwoPointersAttempted,
			&s.ThreePointersMade, &s.ThreePointersAttempted, &s.FreeThrowsMade, &s.FreeThrowsAttempted,
			&s.ReboundsOffensive, &s.ReboundsDefensive, &s.ReboundsTotal, &s.Assists, &s.Turnovers, &s.Steals,
			&s.Blocks, &s.BlocksReceived, &s.FoulsPersonal, &s.FoulsOn, &s.PlusMinusPoints,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}

	return players, rows.Err()
}
