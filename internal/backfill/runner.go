package backfill

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// GameProcessor turns one game into stored results.
type GameProcessor interface {
	ProcessGame(ctx context.Context, ref GameRef, replace bool) GameResult
}

// Catalog reports whether a game's results are already stored.
type Catalog interface {
	Exists(ctx context.Context, gameID string) (bool, error)
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(ctx context.Context, gameID string) (bool, error)

func (f CatalogFunc) Exists(ctx context.Context, gameID string) (bool, error) {
	return f(ctx, gameID)
}

// StoredSet is a Catalog over a fixed set of ids.
type StoredSet map[string]bool

func (s StoredSet) Exists(_ context.Context, gameID string) (bool, error) {
	return s[gameID], nil
}

// AnyCatalog reports a game stored when any catalog has it.
type AnyCatalog []Catalog

func (a AnyCatalog) Exists(ctx context.Context, gameID string) (bool, error) {
	for _, c := range a {
		ok, err := c.Exists(ctx, gameID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Runner executes batches of games.
type Runner struct {
	processor GameProcessor
	catalog   Catalog
	workers   int
}

// NewRunner builds a runner. catalog may be nil (nothing is stored yet);
// workers below one means one.
func NewRunner(processor GameProcessor, catalog Catalog, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{processor: processor, catalog: catalog, workers: workers}
}

// Run processes the games round by round. Games already stored are skipped
// unless the job reloads. A game that is not ready yet makes its round the
// last one: the rest of that round is still processed, later rounds are not.
// Failed games are recorded and do not stop the batch.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) (*Summary, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	reporter.OnJobStart(spec)

	games := append([]GameRef(nil), spec.Games...)
	SortByRound(games)

	summary := &Summary{}
	var pending []GameRef
	for _, g := range games {
		if !spec.Reload && r.catalog != nil {
			stored, err := r.catalog.Exists(ctx, g.GameID)
			if err != nil {
				reporter.OnJobError(err)
				return summary, fmt.Errorf("checking game %s: %w", g.GameID, err)
			}
			if stored {
				summary.add(GameResult{Ref: g, Outcome: OutcomeSkipped})
				continue
			}
		}
		pending = append(pending, g)
	}
	if summary.Skipped > 0 {
		log.Printf("[backfill] ⊘ Skipping %d already stored games", summary.Skipped)
	}

	total := len(pending)
	done := 0
	for _, group := range groupByRound(pending) {
		if err := ctx.Err(); err != nil {
			reporter.OnJobError(err)
			return summary, err
		}

		round := group[0].Round
		reporter.OnRoundStart(round, len(group))

		for _, res := range r.processRound(ctx, group, spec.Reload) {
			done++
			summary.add(res)
			reporter.OnGameProcessed(res)
			reporter.OnProgress(fmt.Sprintf("Game %s: %s", res.Ref.GameID, res.Outcome), done, total)
			if res.Outcome == OutcomeNotReady && summary.StopRound == 0 {
				summary.StopRound = round
			}
		}

		if summary.StopRound != 0 {
			log.Printf("[backfill] round %d has games not ready yet; stopping after it", round)
			break
		}
	}

	reporter.OnJobComplete(summary)
	return summary, nil
}

// processRound runs one round's games on the worker pool and returns their
// results in list order.
func (r *Runner) processRound(ctx context.Context, games []GameRef, replace bool) []GameResult {
	results := make([]GameResult, len(games))
	sem := make(chan struct{}, r.workers)
	var wg sync.WaitGroup

	for i, g := range games {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, g GameRef) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = r.processor.ProcessGame(ctx, g, replace)
		}(i, g)
	}

	wg.Wait()
	return results
}

type nopReporter struct{}

func (nopReporter) OnJobStart(JobSpec)          {}
func (nopReporter) OnRoundStart(int, int)       {}
func (nopReporter) OnGameProcessed(GameResult)  {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnJobComplete(*Summary)      {}
func (nopReporter) OnJobError(error)            {}
