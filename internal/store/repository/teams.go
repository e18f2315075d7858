package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/stintstats/internal/store"
)

// TeamRepository derives team standings from stored games
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// List returns every team seen in stored games with its record
func (r *TeamRepository) List(ctx context.Context) ([]*store.TeamSummary, error) {
	query := `
		WITH sides AS (
			SELECT team1 AS team, s1 AS pf, s2 AS pa, winner = 1 AS won FROM games
			UNION ALL
			SELECT team2 AS team, s2 AS pf, s1 AS pa, winner = 2 AS won FROM games
		)
		SELECT team,
			COUNT(*) AS games,
			COUNT(*) FILTER (WHERE won) AS wins,
			COUNT(*) FILTER (WHERE NOT won) AS losses,
			COALESCE(SUM(pf), 0) AS points_for,
			COALESCE(SUM(pa), 0) AS points_against,
			COALESCE(AVG(pf - pa), 0)::float8 AS avg_margin
		FROM sides
		GROUP BY team
		ORDER BY wins DESC, avg_margin DESC, team
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []*store.TeamSummary
	for rows.Next() {
		t := &store.TeamSummary{}
		err := rows.Scan(&t.Team, &t.Games, &t.Wins, &t.Losses, &t.PointsFor, &t.PointsAgainst, &t.AvgMargin)
		if err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}
