package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/stintstats/internal/pipeline"
	"github.com/fortuna/stintstats/internal/store"
)

// ResultRepository writes the tables one processed game produces
type ResultRepository struct {
	db *store.Database
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *store.Database) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save writes a game's rows in one transaction. A stored game is left
// untouched and reported with store.ErrExists unless replace is set, in
// which case its rows are deleted first.
func (r *ResultRepository) Save(ctx context.Context, res *pipeline.Result, replace bool) error {
	gameID := res.Game.GameID

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if replace {
			if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE game_id = $1`, gameID); err != nil {
				return fmt.Errorf("clearing game %s: %w", gameID, err)
			}
		}

		inserted, err := insertGame(ctx, tx, res.Game)
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("game %s: %w", gameID, store.ErrExists)
		}

		if err := copyStints(ctx, tx, res.Stints); err != nil {
			return err
		}
		if err := copyStintStats(ctx, tx, res.Stats); err != nil {
			return err
		}
		if err := copyPlayers(ctx, tx, res.Players); err != nil {
			return err
		}
		return copyEvents(ctx, tx, gameID, res.Events)
	})
}

func insertGame(ctx context.Context, tx *sql.Tx, g pipeline.GameRecord) (bool, error) {
	query := `
		INSERT INTO games (game_id, game_date, round, team1, team2, s1, s2, winner, venue)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (game_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, query,
		g.GameID, g.Date, g.Round, g.Team1, g.Team2, g.S1, g.S2, g.Winner, g.Venue)
	if err != nil {
		return false, fmt.Errorf("inserting game %s: %w", g.GameID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// copyRows bulk loads rows with COPY FROM STDIN.
func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, n int, row func(i int) ([]interface{}, error)) error {
	if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("preparing copy into %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		args, err := row(i)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("copying row %d into %s: %w", i, table, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("flushing copy into %s: %w", table, err)
	}
	return nil
}

var (
	stintColumns  = []string{"game_id", "tno", "stint", "team", "lineup", "intervals", "mins"}
	statColumns   = []string{"game_id", "tno", "stint", "team", "lineup", "mins", "stats"}
	playerColumns = []string{
		"game_id", "tno", "team", "player", "shirt_number", "playing_position", "starter", "captain", "mins",
		"points", "field_goals_made", "field_goals_attempted", "two_pointers_made", "two_pointers_attempted",
		"three_pointers_made", "three_pointers_attempted", "free_throws_made", "free_throws_attempted",
		"rebounds_offensive", "rebounds_defensive", "rebounds_total", "assists", "turnovers", "steals",
		"blocks", "blocks_received", "fouls_personal", "fouls_on", "plus_minus",
	}
	eventColumns = []string{
		"game_id", "idx", "action_number", "period", "clock_us", "tno", "player",
		"action_type", "sub_type", "success", "qualifiers", "s1", "s2", "stint1", "stint2",
	}
)

func copyStints(ctx context.Context, tx *sql.Tx, rows []pipeline.StintRecord) error {
	return copyRows(ctx, tx, "stints", stintColumns, len(rows), func(i int) ([]interface{}, error) {
		return stintRow(rows[i])
	})
}

func copyStintStats(ctx context.Context, tx *sql.Tx, rows []pipeline.StatRecord) error {
	return copyRows(ctx, tx, "stint_stats", statColumns, len(rows), func(i int) ([]interface{}, error) {
		return statRow(rows[i])
	})
}

func copyPlayers(ctx context.Context, tx *sql.Tx, rows []pipeline.PlayerRecord) error {
	return copyRows(ctx, tx, "game_players", playerColumns, len(rows), func(i int) ([]interface{}, error) {
		return playerRow(rows[i]), nil
	})
}

func copyEvents(ctx context.Context, tx *sql.Tx, gameID string, rows []pipeline.TaggedEvent) error {
	return copyRows(ctx, tx, "play_by_play", eventColumns, len(rows), func(i int) ([]interface{}, error) {
		return eventRow(gameID, i, rows[i]), nil
	})
}

// stintRow passes intervals as a JSON string, since COPY encodes byte slices
// as bytea. statRow does the same for stats.
func stintRow(s pipeline.StintRecord) ([]interface{}, error) {
	intervals, err := json.Marshal(s.Intervals)
	if err != nil {
		return nil, fmt.Errorf("encoding intervals of stint %d: %w", s.Stint, err)
	}
	return []interface{}{
		s.GameID, s.Team, s.Stint, s.TeamName, pq.StringArray(s.Lineup), string(intervals), s.Minutes,
	}, nil
}

func statRow(s pipeline.StatRecord) ([]interface{}, error) {
	stats, err := json.Marshal(s.Stats())
	if err != nil {
		return nil, fmt.Errorf("encoding stats of stint %d: %w", s.Stint, err)
	}
	return []interface{}{
		s.GameID, s.Team, s.Stint, s.TeamName, pq.StringArray(s.Lineup), s.Minutes, string(stats),
	}, nil
}

func playerRow(p pipeline.PlayerRecord) []interface{} {
	s := p.Stats
	return []interface{}{
		p.GameID, p.Team, p.TeamName, p.Name, nullString(p.ShirtNumber), nullString(p.Position),
		p.Starter, p.Captain, p.Minutes.Duration().Minutes(),
		s.Points, s.FieldGoalsMade, s.FieldGoalsAttempted, s.TwoPointersMade, s.TwoPointersAttempted,
		s.ThreePointersMade, s.ThreePointersAttempted, s.FreeThrowsMade, s.FreeThrowsAttempted,
		s.ReboundsOffensive, s.ReboundsDefensive, s.ReboundsTotal, s.Assists, s.Turnovers, s.Steals,
		s.Blocks, s.BlocksReceived, s.FoulsPersonal, s.FoulsOn, s.PlusMinusPoints,
	}
}

// eventRow keeps an event's feed order in idx. A missing qualifier list is
// stored as an empty array.
func eventRow(gameID string, idx int, e pipeline.TaggedEvent) []interface{} {
	qualifiers := pq.StringArray(e.Qualifiers)
	if qualifiers == nil {
		qualifiers = pq.StringArray{}
	}
	return []interface{}{
		gameID, idx, e.Sequence, e.Period, e.Clock.Duration().Microseconds(), e.Team, e.Player,
		e.ActionType, e.SubType, e.Success, qualifiers, e.Score1, e.Score2, e.Stint1, e.Stint2,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
