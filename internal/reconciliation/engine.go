package reconciliation

import (
	"log"
	"sync"
	"time"

	"github.com/fortuna/stintstats/internal/pbp"
	"github.com/fortuna/stintstats/internal/pipeline"
)

// Status is the overall outcome of a game check.
type Status string

const (
	StatusOK       Status = "ok"
	StatusMismatch Status = "mismatch"
)

// Check names.
const (
	CheckStintPoints  = "stint_points"
	CheckPBPPoints    = "pbp_points"
	CheckRosterPoints = "roster_points"
	CheckLastScore    = "last_score"
)

// Check compares one derived total against the feed's final score.
type Check struct {
	Name     string `json:"name"`
	Team     int    `json:"tno"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	OK       bool   `json:"ok"`
}

// Report is the result of reconciling one processed game.
type Report struct {
	GameID    string        `json:"game_id"`
	Status    Status        `json:"status"`
	Checks    []Check       `json:"checks"`
	Players   []PlayerMatch `json:"players,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Mismatches counts failed checks and unmatched players.
func (r *Report) Mismatches() int {
	n := 0
	for _, c := range r.Checks {
		if !c.OK {
			n++
		}
	}
	for _, p := range r.Players {
		if p.Kind == MatchNone {
			n++
		}
	}
	return n
}

// Metrics tracks reconciliation statistics
type Metrics struct {
	TotalReconciliations int
	Mismatched           int
	LastReconciliation   time.Time
}

// Engine cross-checks a processed game against its own feed totals.
type Engine struct {
	mu      sync.Mutex
	metrics Metrics
	now     func() time.Time
}

// NewEngine creates a new reconciliation engine
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// ReconcileGame checks, per team, the summed stint points, the summed scoring
// events, the roster's point total and the last running score against the
// final score, then matches play-by-play names against the roster.
// Disagreements are reported and logged, never returned as errors.
func (e *Engine) ReconcileGame(game *pbp.Game, result *pipeline.Result) *Report {
	report := &Report{
		GameID:    result.Game.GameID,
		Status:    StatusOK,
		CheckedAt: e.now().UTC(),
	}

	var last1, last2 int
	if n := len(game.Events); n > 0 {
		last1, last2 = game.Events[n-1].Score1, game.Events[n-1].Score2
	}

	for team := 1; team <= 2; team++ {
		final := game.Team(team).Score
		last := last1
		if team == 2 {
			last = last2
		}
		report.Checks = append(report.Checks,
			newCheck(CheckStintPoints, team, final, pipeline.StintPoints(result.Stats, team)),
			newCheck(CheckPBPPoints, team, final, pipeline.TeamPoints(result.Events, team)),
			newCheck(CheckRosterPoints, team, final, rosterPoints(game.Team(team))),
			newCheck(CheckLastScore, team, final, last),
		)
	}

	report.Players = NewMatcher(game).MatchEvents(game.Events)

	mismatches := report.Mismatches()
	if mismatches > 0 {
		report.Status = StatusMismatch
		for _, c := range report.Checks {
			if !c.OK {
				log.Printf("[reconcile] ⚠️  game %s team %d %s: expected %d, got %d",
					report.GameID, c.Team, c.Name, c.Expected, c.Actual)
			}
		}
		for _, p := range report.Players {
			if p.Kind == MatchNone {
				log.Printf("[reconcile] ⚠️  game %s team %d: %q is not on the roster", report.GameID, p.Team, p.Name)
			}
		}
	}

	e.mu.Lock()
	e.metrics.TotalReconciliations++
	if mismatches > 0 {
		e.metrics.Mismatched++
	}
	e.metrics.LastReconciliation = report.CheckedAt
	e.mu.Unlock()

	return report
}

// GetMetrics returns current reconciliation metrics
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// ResetMetrics clears all metrics
func (e *Engine) ResetMetrics() {
	e.mu.Lock()
	e.metrics = Metrics{}
	e.mu.Unlock()
}

func newCheck(name string, team, expected, actual int) Check {
	return Check{Name: name, Team: team, Expected: expected, Actual: actual, OK: expected == actual}
}

func rosterPoints(team *pbp.Team) int {
	pts := 0
	for _, p := range team.Players {
		pts += p.Stats.Points
	}
	return pts
}
