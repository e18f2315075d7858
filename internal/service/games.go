package service

import (
	"context"
	"fmt"

	"github.com/fortuna/stintstats/internal/store"
	"github.com/fortuna/stintstats/internal/store/repository"
)

// GameService handles game-related business logic
type GameService struct {
	gameRepo   *repository.GameRepository
	teamRepo   *repository.TeamRepository
	reportRepo *repository.ReconciliationRepository
}

// NewGameService creates a new game service
func NewGameService(db *store.Database) *GameService {
	return &GameService{
		gameRepo:   repository.NewGameRepository(db),
		teamRepo:   repository.NewTeamRepository(db),
		reportRepo: repository.NewReconciliationRepository(db),
	}
}

// GetGame retrieves a stored game by feed id
func (s *GameService) GetGame(ctx context.Context, gameID string) (*store.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	return game, nil
}

// ListGames retrieves stored games, optionally filtered by team or round
func (s *GameService) ListGames(ctx context.Context, filter repository.GameFilter) ([]*store.Game, error) {
	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}

// ListTeams aggregates results per team over the stored games
func (s *GameService) ListTeams(ctx context.Context) ([]*store.TeamSummary, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return teams, nil
}

// GetReconciliation retrieves a game's stored consistency report
func (s *GameService) GetReconciliation(ctx context.Context, gameID string) (*store.ReconciliationReport, error) {
	report, err := s.reportRepo.GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetching reconciliation: %w", err)
	}
	return report, nil
}

// ListMismatched retrieves the most recent reports that found a mismatch
func (s *GameService) ListMismatched(ctx context.Context, limit int) ([]*store.ReconciliationReport, error) {
	reports, err := s.reportRepo.ListMismatched(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing mismatched games: %w", err)
	}
	return reports, nil
}
