package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/stintstats/internal/backfill"
	"github.com/fortuna/stintstats/internal/ingest/genius"
	"github.com/fortuna/stintstats/internal/service"
	"github.com/fortuna/stintstats/internal/store"
	"github.com/fortuna/stintstats/internal/store/repository"
)

// GameReader serves stored games, teams and reconciliation reports.
type GameReader interface {
	GetGame(ctx context.Context, gameID string) (*store.Game, error)
	ListGames(ctx context.Context, filter repository.GameFilter) ([]*store.Game, error)
	ListTeams(ctx context.Context) ([]*store.TeamSummary, error)
	GetReconciliation(ctx context.Context, gameID string) (*store.ReconciliationReport, error)
	ListMismatched(ctx context.Context, limit int) ([]*store.ReconciliationReport, error)
}

// StintReader serves stored segments and box scores.
type StintReader interface {
	GetStints(ctx context.Context, gameID string) ([]*store.Stint, error)
	GetStintStats(ctx context.Context, gameID string) ([]*store.StintStats, error)
	GetBoxScore(ctx context.Context, gameID string) (*service.BoxScore, error)
}

// PlayerReader serves a player's stored games and segments.
type PlayerReader interface {
	GetPlayerGames(ctx context.Context, name string) ([]*store.GamePlayer, error)
	GetPlayerStints(ctx context.Context, name string) (*service.PlayerStints, error)
}

// AnalyticsReader serves derived aggregates.
type AnalyticsReader interface {
	GetPlayerPerformanceTrend(ctx context.Context, name string) (*service.PerformanceTrend, error)
	GetLineupRatings(ctx context.Context, gameID string, minMinutes float64) ([]*service.LineupRating, error)
}

// GameComputer processes a game on demand without storing it.
type GameComputer interface {
	Compute(ctx context.Context, ref backfill.GameRef) (*backfill.Computed, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler contains dependencies for HTTP handlers
type Handler struct {
	games     GameReader
	stints    StintReader
	players   PlayerReader
	analytics AnalyticsReader
	computer  GameComputer
	checks    map[string]HealthCheck
}

// Dependencies wires the handler. A nil Computer disables on-demand
// processing.
type Dependencies struct {
	Games     GameReader
	Stints    StintReader
	Players   PlayerReader
	Analytics AnalyticsReader
	Computer  GameComputer
	Checks    map[string]HealthCheck
}

// NewHandler creates a new handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		games:     deps.Games,
		stints:    deps.Stints,
		players:   deps.Players,
		analytics: deps.Analytics,
		computer:  deps.Computer,
		checks:    deps.Checks,
	}
}

// HealthCheck runs every dependency check
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       state,
		"service":      "stintstats",
		"dependencies": deps,
	})
}

// GetGames lists stored games, filtered by ?team= and ?round=
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.GameFilter{
		Team:   q.Get("team"),
		Limit:  queryInt(r, "limit", 100, 1, 1000),
		Offset: queryInt(r, "offset", 0, 0, 1<<30),
	}
	if s := q.Get("round"); s != "" {
		round, err := strconv.Atoi(s)
		if err != nil || round < 0 {
			respondError(w, http.StatusBadRequest, "Invalid round", err)
			return
		}
		filter.Round = round
	}

	games, err := h.games.ListGames(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch games", err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(games))
	for _, g := range games {
		payload = append(payload, gamePayload(g))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": payload,
		"count": len(payload),
	})
}

// GetGame returns a specific game by ID
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.GetGame(r.Context(), mux.Vars(r)["gameID"])
	if err != nil {
		respondLookupError(w, "Game not found", err)
		return
	}

	respondJSON(w, http.StatusOK, gamePayload(game))
}

// GetGameStints returns a game's lineup segments
func (h *Handler) GetGameStints(w http.ResponseWriter, r *http.Request) {
	stints, err := h.stints.GetStints(r.Context(), mux.Vars(r)["gameID"])
	if err != nil {
		respondLookupError(w, "Stints not found", err)
		return
	}

	if stints == nil {
		stints = []*store.Stint{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"stints": stints})
}

// GetGameStintStats returns a game's per-segment statistics
func (h *Handler) GetGameStintStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stints.GetStintStats(r.Context(), mux.Vars(r)["gameID"])
	if err != nil {
		respondLookupError(w, "Stint stats not found", err)
		return
	}

	if stats == nil {
		stats = []*store.StintStats{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"stint_stats": stats})
}

// GetGameBoxScore returns the players table of a game split by team
func (h *Handler) GetGameBoxScore(w http.ResponseWriter, r *http.Request) {
	box, err := h.stints.GetBoxScore(r.Context(), mux.Vars(r)["gameID"])
	if err != nil {
		respondLookupError(w, "Box score not found", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game":        gamePayload(box.Game),
		"team1_stats": playerPayloads(box.Team1Stats),
		"team2_stats": playerPayloads(box.Team2Stats),
	})
}

// GetGameLineups ranks a game's segments, ignoring those under ?min_mins=
func (h *Handler) GetGameLineups(w http.ResponseWriter, r *http.Request) {
	minMinutes := 0.0
	if s := r.URL.Query().Get("min_mins"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			respondError(w, http.StatusBadRequest, "Invalid min_mins", err)
			return
		}
		minMinutes = v
	}

	ratings, err := h.analytics.GetLineupRatings(r.Context(), mux.Vars(r)["gameID"], minMinutes)
	if err != nil {
		respondLookupError(w, "Failed to rate lineups", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"lineups": ratings})
}

// GetGameReconciliation returns a game's stored consistency report
func (h *Handler) GetGameReconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.games.GetReconciliation(r.Context(), mux.Vars(r)["gameID"])
	if err != nil {
		respondLookupError(w, "Reconciliation report not found", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetMismatchedGames lists the games whose reconciliation found mismatches
func (h *Handler) GetMismatchedGames(w http.ResponseWriter, r *http.Request) {
	reports, err := h.games.ListMismatched(r.Context(), queryInt(r, "limit", 20, 1, 200))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch reconciliation reports", err)
		return
	}

	if reports == nil {
		reports = []*store.ReconciliationReport{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

// ProcessGame fetches and processes a game without storing it. ?round= sets
// the games table round.
func (h *Handler) ProcessGame(w http.ResponseWriter, r *http.Request) {
	if h.computer == nil {
		respondError(w, http.StatusServiceUnavailable, "On-demand processing is disabled", nil)
		return
	}

	ref := backfill.GameRef{GameID: mux.Vars(r)["gameID"]}
	if s := r.URL.Query().Get("round"); s != "" {
		round, err := strconv.Atoi(s)
		if err != nil || round < 0 {
			respondError(w, http.StatusBadRequest, "Invalid round", err)
			return
		}
		ref.Round = round
	}

	computed, err := h.computer.Compute(r.Context(), ref)
	if err != nil {
		var malformed *genius.MalformedFeedError
		switch {
		case errors.Is(err, genius.ErrGameNotReady):
			respondError(w, http.StatusConflict, "Game not ready", err)
		case errors.As(err, &malformed):
			respondError(w, http.StatusUnprocessableEntity, "Malformed game feed", err)
		default:
			respondError(w, http.StatusBadGateway, "Failed to process game", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game":           computed.Result.Game,
		"stints":         computed.Result.Stints,
		"stint_stats":    computed.Result.Stats,
		"players":        computed.Result.Players,
		"reconciliation": computed.Report,
		"warnings":       computed.Warnings,
	})
}

// GetTeams returns per-team results over the stored games
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.games.ListTeams(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch teams", err)
		return
	}

	if teams == nil {
		teams = []*store.TeamSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// GetPlayerGames returns a player's box score lines
func (h *Handler) GetPlayerGames(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	lines, err := h.players.GetPlayerGames(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch player games", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"player": name,
		"games":  playerPayloads(lines),
	})
}

// GetPlayerStints returns every segment a player was on court for
func (h *Handler) GetPlayerStints(w http.ResponseWriter, r *http.Request) {
	stints, err := h.players.GetPlayerStints(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch player stints", err)
		return
	}

	if stints.Stints == nil {
		stints.Stints = []*store.Stint{}
	}
	respondJSON(w, http.StatusOK, stints)
}

// GetPlayerPerformanceTrend returns per-game averages for a player
func (h *Handler) GetPlayerPerformanceTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := h.analytics.GetPlayerPerformanceTrend(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondLookupError(w, "Failed to calculate performance trend", err)
		return
	}

	respondJSON(w, http.StatusOK, trend)
}

func gamePayload(g *store.Game) map[string]interface{} {
	if g == nil {
		return nil
	}

	payload := map[string]interface{}{
		"game_id": g.GameID,
		"round":   g.Round,
		"team1":   g.Team1,
		"team2":   g.Team2,
		"s1":      g.S1,
		"s2":      g.S2,
		"winner":  g.Winner,
		"date":    nil,
		"venue":   nil,
	}

	if g.GameDate.Valid {
		payload["date"] = g.GameDate.Time.Format("2006-01-02")
	}
	if g.Venue.Valid {
		payload["venue"] = g.Venue.String
	}

	return payload
}

func playerPayloads(lines []*store.GamePlayer) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(lines))
	for _, p := range lines {
		payload := map[string]interface{}{
			"game_id": p.GameID,
			"tno":     p.Team,
			"team":    p.TeamName,
			"player":  p.Player,
			"starter": p.Starter,
			"captain": p.Captain,
			"mins":    p.Minutes,
			"stats":   p.Stats,
		}
		if p.ShirtNumber.Valid {
			payload["shirt_number"] = p.ShirtNumber.String
		}
		if p.Position.Valid {
			payload["playing_position"] = p.Position.String
		}
		out = append(out, payload)
	}
	return out
}

// queryInt reads an integer query parameter, falling back to def when it is
// missing or outside [min, max].
func queryInt(r *http.Request, key string, def, min, max int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < min || v > max {
		return def
	}
	return v
}

// respondLookupError maps store.ErrNotFound to 404 and anything else to 500.
func respondLookupError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, message, err)
		return
	}
	respondError(w, http.StatusInternalServerError, message, err)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
