package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/fortuna/stintstats/internal/store"
	"github.com/fortuna/stintstats/internal/store/repository"
)

// AnalyticsService derives aggregates from stored box scores and stint stats
type AnalyticsService struct {
	playerRepo *repository.PlayerRepository
	stintRepo  *repository.StintRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *store.Database) *AnalyticsService {
	return &AnalyticsService{
		playerRepo: repository.NewPlayerRepository(db),
		stintRepo:  repository.NewStintRepository(db),
	}
}

// GetPlayerPerformanceTrend averages a player's stored game lines
func (s *AnalyticsService) GetPlayerPerformanceTrend(ctx context.Context, name string) (*PerformanceTrend, error) {
	lines, err := s.playerRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetching player games: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no games found for player %s: %w", name, store.ErrNotFound)
	}
	return buildTrend(name, lines), nil
}

// GetLineupRatings ranks a game's segments by point differential. Segments
// shorter than minMinutes are left out.
func (s *AnalyticsService) GetLineupRatings(ctx context.Context, gameID string, minMinutes float64) ([]*LineupRating, error) {
	rows, err := s.stintRepo.GetStatsByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching stint stats: %w", err)
	}
	return rateLineups(rows, minMinutes)
}

func buildTrend(name string, lines []*store.GamePlayer) *PerformanceTrend {
	var totalPoints, totalRebounds, totalAssists, totalMinutes, totalPlusMinus float64
	var totalFGM, totalFGA, total3PM, total3PA, totalFTM, totalFTA float64

	for _, l := range lines {
		st := l.Stats
		totalPoints += float64(st.Points)
		totalRebounds += float64(st.ReboundsTotal)
		totalAssists += float64(st.Assists)
		totalMinutes += l.Minutes
		totalPlusMinus += float64(st.PlusMinusPoints)
		totalFGM += float64(st.FieldGoalsMade)
		totalFGA += float64(st.FieldGoalsAttempted)
		total3PM += float64(st.ThreePointersMade)
		total3PA += float64(st.ThreePointersAttempted)
		totalFTM += float64(st.FreeThrowsMade)
		totalFTA += float64(st.FreeThrowsAttempted)
	}

	gamesPlayed := float64(len(lines))

	trend := &PerformanceTrend{
		Player:        name,
		GamesAnalyzed: len(lines),
		PPG:           totalPoints / gamesPlayed,
		RPG:           totalRebounds / gamesPlayed,
		APG:           totalAssists / gamesPlayed,
		MPG:           totalMinutes / gamesPlayed,
		PlusMinus:     totalPlusMinus / gamesPlayed,
		FGPct:         ratio(totalFGM, totalFGA),
		ThreePct:      ratio(total3PM, total3PA),
		FTPct:         ratio(totalFTM, totalFTA),
	}

	// Calculate variance (consistency metric)
	var pointsVariance float64
	for _, l := range lines {
		diff := float64(l.Stats.Points) - trend.PPG
		pointsVariance += diff * diff
	}
	trend.PPGVariance = pointsVariance / gamesPlayed
	trend.PPGStdDev = math.Sqrt(trend.PPGVariance)

	return trend
}

func rateLineups(rows []*store.StintStats, minMinutes float64) ([]*LineupRating, error) {
	ratings := make([]*LineupRating, 0, len(rows))
	for _, row := range rows {
		if row.Minutes < minMinutes {
			continue
		}

		var stats map[string]*float64
		if err := json.Unmarshal(row.Stats, &stats); err != nil {
			return nil, fmt.Errorf("decoding stats of stint %d (team %d): %w", row.Stint, row.Team, err)
		}

		r := &LineupRating{
			Team:        row.Team,
			TeamName:    row.TeamName,
			Stint:       row.Stint,
			Lineup:      row.Lineup,
			Minutes:     row.Minutes,
			Possessions: stats["poss"],
			NetRating:   stats["nrtg"],
		}
		if v := stats["pts"]; v != nil {
			r.Points = int(*v)
		}
		if v := stats["pts_opp"]; v != nil {
			r.PointsAllowed = int(*v)
		}
		r.PlusMinus = r.Points - r.PointsAllowed
		ratings = append(ratings, r)
	}

	sort.SliceStable(ratings, func(i, j int) bool {
		if ratings[i].PlusMinus != ratings[j].PlusMinus {
			return ratings[i].PlusMinus > ratings[j].PlusMinus
		}
		return ratings[i].Minutes > ratings[j].Minutes
	})
	return ratings, nil
}

// PerformanceTrend contains averaged per-game metrics
type PerformanceTrend struct {
	Player        string   `json:"player"`
	GamesAnalyzed int      `json:"games_analyzed"`
	PPG           float64  `json:"ppg"`
	RPG           float64  `json:"rpg"`
	APG           float64  `json:"apg"`
	MPG           float64  `json:"mpg"`
	PlusMinus     float64  `json:"plus_minus"`
	FGPct         *float64 `json:"fg_pct"`
	ThreePct      *float64 `json:"three_pct"`
	FTPct         *float64 `json:"ft_pct"`
	PPGVariance   float64  `json:"ppg_variance"`
	PPGStdDev     float64  `json:"ppg_std_dev"`
}

// LineupRating summarizes one segment's scoring
type LineupRating struct {
	Team          int      `json:"tno"`
	TeamName      string   `json:"team"`
	Stint         int      `json:"stint"`
	Lineup        []string `json:"lineup"`
	Minutes       float64  `json:"mins"`
	Points        int      `json:"pts"`
	PointsAllowed int      `json:"pts_opp"`
	PlusMinus     int      `json:"plus_minus"`
	Possessions   *float64 `json:"poss"`
	NetRating     *float64 `json:"nrtg"`
}

// ratio returns numerator/denominator, or nil when there were no attempts.
func ratio(numerator, denominator float64) *float64 {
	if denominator == 0 {
		return nil
	}
	v := numerator / denominator
	return &v
}
