package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fortuna/stintstats/internal/ingest/genius"
	"github.com/fortuna/stintstats/internal/pbp"
	"github.com/fortuna/stintstats/internal/pipeline"
	"github.com/fortuna/stintstats/internal/publisher"
	"github.com/fortuna/stintstats/internal/reconciliation"
	"github.com/fortuna/stintstats/internal/stints"
)

// GameLoader fetches normalized games and their venue/date.
type GameLoader interface {
	LoadGame(ctx context.Context, gameID string) (*pbp.Game, error)
	LoadInfo(ctx context.Context, gameID string) *genius.GameInfo
}

// ResultSaver persists a processed game.
type ResultSaver interface {
	Save(ctx context.Context, res *pipeline.Result, replace bool) error
}

// ReportSaver persists a reconciliation report.
type ReportSaver interface {
	Save(ctx context.Context, report *reconciliation.Report) error
}

// EventPublisher announces processed games.
type EventPublisher interface {
	PublishGameProcessed(ctx context.Context, event publisher.GameProcessed) error
}

// ProcessedMarker records processed game ids outside the database.
type ProcessedMarker interface {
	MarkProcessed(ctx context.Context, gameIDs ...string) error
}

// Observer receives per-game outcomes, e.g. for metrics.
type Observer interface {
	IncGame(outcome string)
	ObserveGame(seconds float64)
	IncReconciliationMismatch()
	WarningSink() stints.WarningSink
}

// Computed is a processed game before anything is stored.
type Computed struct {
	Game     *pbp.Game
	Result   *pipeline.Result
	Report   *reconciliation.Report
	Warnings []stints.Warning
}

// Processor fetches, processes, reconciles and stores single games. Only
// the loader is required; every other collaborator is optional.
type Processor struct {
	Loader    GameLoader
	Results   ResultSaver
	Reports   ReportSaver
	Publisher EventPublisher
	Marker    ProcessedMarker
	Observer  Observer
	Warnings  stints.WarningSink
	Engine    *reconciliation.Engine
	Boundary  stints.BoundaryPolicy
}

// Compute loads and processes a game without storing anything.
func (p *Processor) Compute(ctx context.Context, ref GameRef) (*Computed, error) {
	game, err := p.Loader.LoadGame(ctx, ref.GameID)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		GameID:   ref.GameID,
		Round:    ref.Round,
		Boundary: p.Boundary,
	}
	if info := p.Loader.LoadInfo(ctx, ref.GameID); info != nil {
		opts.Venue = sql.NullString{String: info.Venue, Valid: info.Venue != ""}
		opts.Date = sql.NullTime{Time: info.Date, Valid: !info.Date.IsZero()}
	}

	collector := &stints.Collector{}
	sinks := stints.MultiSink{collector}
	if p.Warnings != nil {
		sinks = append(sinks, p.Warnings)
	}
	if p.Observer != nil {
		sinks = append(sinks, p.Observer.WarningSink())
	}
	opts.Warnings = sinks

	res, err := pipeline.Process(game, opts)
	if err != nil {
		return nil, fmt.Errorf("processing game %s: %w", ref.GameID, err)
	}

	engine := p.Engine
	if engine == nil {
		engine = reconciliation.NewEngine()
	}

	return &Computed{
		Game:     game,
		Result:   res,
		Report:   engine.ReconcileGame(game, res),
		Warnings: collector.Warnings(),
	}, nil
}

// ProcessGame implements GameProcessor.
func (p *Processor) ProcessGame(ctx context.Context, ref GameRef, replace bool) GameResult {
	start := time.Now()
	out := GameResult{Ref: ref}

	c, err := p.Compute(ctx, ref)
	if err == nil {
		out.Result = c.Result
		out.Report = c.Report
		out.Warnings = len(c.Warnings)
		err = p.store(ctx, c, replace)
	}
	out.Duration = time.Since(start)

	switch {
	case err == nil:
		out.Outcome = OutcomeProcessed
		log.Printf("[backfill] ✓ Game %s (round %d): %s %d - %d %s",
			ref.GameID, ref.Round, c.Result.Game.Team1, c.Result.Game.S1, c.Result.Game.S2, c.Result.Game.Team2)
	case errors.Is(err, genius.ErrGameNotReady):
		out.Outcome = OutcomeNotReady
		out.Err = err
		log.Printf("[backfill] Game %s for round %d not available yet", ref.GameID, ref.Round)
	default:
		out.Outcome = OutcomeFailed
		out.Err = err
		log.Printf("[backfill] ❌ Game %s failed: %v", ref.GameID, err)
	}

	if p.Observer != nil {
		p.Observer.IncGame(string(out.Outcome))
		p.Observer.ObserveGame(out.Duration.Seconds())
		if out.Report != nil && out.Report.Status != reconciliation.StatusOK {
			p.Observer.IncReconciliationMismatch()
		}
	}
	return out
}

// store writes the game and its report, then announces it. Only the result
// write can fail the game.
func (p *Processor) store(ctx context.Context, c *Computed, replace bool) error {
	id := c.Result.Game.GameID

	if p.Results != nil {
		if err := p.Results.Save(ctx, c.Result, replace); err != nil {
			return fmt.Errorf("saving game %s: %w", id, err)
		}
	}
	if p.Reports != nil && p.Results != nil {
		if err := p.Reports.Save(ctx, c.Report); err != nil {
			log.Printf("[backfill] ⚠️  saving reconciliation for game %s: %v", id, err)
		}
	}
	if p.Marker != nil {
		if err := p.Marker.MarkProcessed(ctx, id); err != nil {
			log.Printf("[backfill] ⚠️  marking game %s processed: %v", id, err)
		}
	}
	if p.Publisher != nil {
		ev := publisher.NewGameProcessed(c.Result, c.Report, len(c.Warnings))
		if err := p.Publisher.PublishGameProcessed(ctx, ev); err != nil {
			log.Printf("[backfill] ⚠️  publishing game %s: %v", id, err)
		}
	}
	return nil
}
