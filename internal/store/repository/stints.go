package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/stintstats/internal/store"
)

// StintRepository reads lineup segments and their statistics
type StintRepository struct {
	db *store.Database
}

// NewStintRepository creates a new stint repository
func NewStintRepository(db *store.Database) *StintRepository {
	return &StintRepository{db: db}
}

// GetByGame returns a game's segments ordered by team then stint id
func (r *StintRepository) GetByGame(ctx context.Context, gameID string) ([]*store.Stint, error) {
	query := `
		SELECT game_id, tno, team, stint, lineup, intervals, mins
		FROM stints
		WHERE game_id = $1
		ORDER BY tno, stint
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying stints: %w", err)
	}
	defer rows.Close()

	var out []*store.Stint
	for rows.Next() {
		s := &store.Stint{}
		if err := rows.Scan(&s.GameID, &s.Team, &s.TeamName, &s.Stint, &s.Lineup, &s.Intervals, &s.Minutes); err != nil {
			return nil, fmt.Errorf("scanning stint: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetStatsByGame returns a game's stint statistics rows
func (r *StintRepository) GetStatsByGame(ctx context.Context, gameID string) ([]*store.StintStats, error) {
	query := `
		SELECT game_id, tno, team, stint, lineup, mins, stats
		FROM stint_stats
		WHERE game_id = $1
		ORDER BY tno, stint
	`

	rows, err := r.db.DB().QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("querying stint stats: %w", err)
	}
	defer rows.Close()

	var out []*store.StintStats
	for rows.Next() {
		s := &store.StintStats{}
		if err := rows.Scan(&s.GameID, &s.Team, &s.TeamName, &s.Stint, &s.Lineup, &s.Minutes, &s.Stats); err != nil {
			return nil, fmt.Errorf("scanning stint stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByPlayer returns every stored segment a player was on court for.
// Lineup membership uses the GIN index on the lineup array.
func (r *StintRepository) GetByPlayer(ctx context.Context, player string) ([]*store.Stint, error) {
	query := `
		SELECT game_id, tno, team, stint, lineup, intervals, mins
		FROM stints
		WHERE lineup @> ARRAY[$1]::text[]
		ORDER BY game_id, tno, stint
	`

	rows, err := r.db.DB().QueryContext(ctx, query, player)
	if err != nil {
		return nil, fmt.Errorf("querying stints for %s: %w", player, err)
	}
	defer rows.Close()

	var out []*store.Stint
	for rows.Next() {
		s := &store.Stint{}
		if err := rows.Scan(&s.GameID, &s.Team, &s.TeamName, &s.Stint, &s.Lineup, &s.Intervals, &s.Minutes); err != nil {
			return nil, fmt.Errorf("scanning stint: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
