package service

import (
	"context"
	"fmt"

	"github.com/fortuna/stintstats/internal/store"
	"github.com/fortuna/stintstats/internal/store/repository"
)

// PlayerService handles player-related business logic
type PlayerService struct {
	playerRepo *repository.PlayerRepository
	stintRepo  *repository.StintRepository
}

// NewPlayerService creates a new player service
func NewPlayerService(db *store.Database) *PlayerService {
	return &PlayerService{
		playerRepo: repository.NewPlayerRepository(db),
		stintRepo:  repository.NewStintRepository(db),
	}
}

// GetPlayerGames retrieves a player's lines across stored games
func (s *PlayerService) GetPlayerGames(ctx context.Context, name string) ([]*store.GamePlayer, error) {
	lines, err := s.playerRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetching player games: %w", err)
	}
	return lines, nil
}

// GetPlayerStints retrieves every stored segment the player was on court for
func (s *PlayerService) GetPlayerStints(ctx context.Context, name string) (*PlayerStints, error) {
	stints, err := s.stintRepo.GetByPlayer(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetching player stints: %w", err)
	}

	out := &PlayerStints{Player: name, Stints: stints}
	games := make(map[string]bool)
	for _, st := range stints {
		out.Minutes += st.Minutes
		games[st.GameID] = true
	}
	out.Games = len(games)
	return out, nil
}

// PlayerStints lists a player's on-court segments with totals
type PlayerStints struct {
	Player  string         `json:"player"`
	Games   int            `json:"games"`
	Minutes float64        `json:"mins"`
	Stints  []*store.Stint `json:"stints"`
}
