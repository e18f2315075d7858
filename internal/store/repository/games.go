package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/stintstats/internal/store"
)

const gameColumns = `game_id, game_date, round, team1, team2, s1, s2, winner, venue, created_at, updated_at`

// GameRepository handles game data access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

// GameFilter narrows List. Zero values match everything.
type GameFilter struct {
	Team   string
	Round  int
	Limit  int
	Offset int
}

// GetByID finds a game by its feed id
func (r *GameRepository) GetByID(ctx context.Context, gameID string) (*store.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_id = $1`

	game, err := scanGame(r.db.DB().QueryRowContext(ctx, query, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", gameID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}

	return game, nil
}

// List returns games ordered by round then id
func (r *GameRepository) List(ctx context.Context, filter GameFilter) ([]*store.Game, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Team != "" {
		args = append(args, filter.Team)
		where = append(where, fmt.Sprintf("(team1 = $%d OR team2 = $%d)", len(args), len(args)))
	}
	if filter.Round > 0 {
		args = append(args, filter.Round)
		where = append(where, fmt.Sprintf("round = $%d", len(args)))
	}

	query := `SELECT ` + gameColumns + ` FROM games`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY round, game_id"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []*store.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}

// Exists reports whether a game's results are stored
func (r *GameRepository) Exists(ctx context.Context, gameID string) (bool, error) {
	var exists bool
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM games WHERE game_id = $1)`, gameID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking game %s: %w", gameID, err)
	}
	return exists, nil
}

// ListGameIDs returns the id of every stored game
func (r *GameRepository) ListGameIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.DB().QueryContext(ctx, `SELECT game_id FROM games ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("querying game ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a game and, through cascades, everything derived from it
func (r *GameRepository) Delete(ctx context.Context, gameID string) error {
	res, err := r.db.DB().ExecContext(ctx, `DELETE FROM games WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("deleting game %s: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("game %s: %w", gameID, store.ErrNotFound)
	}
	return nil
}

func scanGame(scanner interface {
	Scan(dest ...interface{}) error
}) (*store.Game, error) {
	game := &store.Game{}
	err := scanner.Scan(
		&game.GameID, &game.GameDate, &game.Round, &game.Team1, &game.Team2,
		&game.S1, &game.S2, &game.Winner, &game.Venue, &game.CreatedAt, &game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return game, nil
}
