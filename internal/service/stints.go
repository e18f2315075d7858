package service

import (
	"context"
	"fmt"

	"github.com/fortuna/stintstats/internal/store"
	"github.com/fortuna/stintstats/internal/store/repository"
)

// StintService handles lineup segment and box score lookups
type StintService struct {
	gameRepo   *repository.GameRepository
	stintRepo  *repository.StintRepository
	playerRepo *repository.PlayerRepository
}

// NewStintService creates a new stint service
func NewStintService(db *store.Database) *StintService {
	return &StintService{
		gameRepo:   repository.NewGameRepository(db),
		stintRepo:  repository.NewStintRepository(db),
		playerRepo: repository.NewPlayerRepository(db),
	}
}

// GetStints retrieves a game's segments. The game must be stored.
func (s *StintService) GetStints(ctx context.Context, gameID string) ([]*store.Stint, error) {
	if _, err := s.gameRepo.GetByID(ctx, gameID); err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	stints, err := s.stintRepo.GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching stints: %w", err)
	}
	return stints, nil
}

// GetStintStats retrieves a game's per-segment statistics
func (s *StintService) GetStintStats(ctx context.Context, gameID string) ([]*store.StintStats, error) {
	if _, err := s.gameRepo.GetByID(ctx, gameID); err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	stats, err := s.stintRepo.GetStatsByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching stint stats: %w", err)
	}
	return stats, nil
}

// GetBoxScore retrieves the game with its player lines split by team
func (s *StintService) GetBoxScore(ctx context.Context, gameID string) (*BoxScore, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}

	players, err := s.playerRepo.GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching box score: %w", err)
	}

	return newBoxScore(game, players), nil
}

func newBoxScore(game *store.Game, players []*store.GamePlayer) *BoxScore {
	box := &BoxScore{
		Game:       game,
		Team1Stats: make([]*store.GamePlayer, 0),
		Team2Stats: make([]*store.GamePlayer, 0),
	}
	for _, p := range players {
		if p.Team == 1 {
			box.Team1Stats = append(box.Team1Stats, p)
		} else {
			box.Team2Stats = append(box.Team2Stats, p)
		}
	}
	return box
}

// BoxScore contains the complete box score for a game
type BoxScore struct {
	Game       *store.Game         `json:"game"`
	Team1Stats []*store.GamePlayer `json:"team1_stats"`
	Team2Stats []*store.GamePlayer `json:"team2_stats"`
}
