package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fortuna/stintstats/internal/backfill"
)

// Enqueuer queues backfill jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, req backfill.Request) (*backfill.Job, error)
}

// Orchestrator periodically re-reads the games list and queues a backfill job
// for the games not stored yet, so games that end later are picked up.
type Orchestrator struct {
	enqueuer Enqueuer
	catalog  backfill.Catalog
	config   *Config
	cancel   context.CancelFunc

	mu       sync.Mutex
	lastRun  time.Time
	lastJob  string
	lastErr  error
	runs     int
	enqueued int
}

// Config holds scheduler configuration
type Config struct {
	GamesFile    string        // games list, one "game_id,round" per line
	PollInterval time.Duration // Default: 15m
	MaxRetries   int           // Default: 3
	RetryDelay   time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 15 * time.Minute,
		MaxRetries:   3,
		RetryDelay:   5 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator. catalog reports
// stored games; nil queues every listed game each time.
func NewOrchestrator(enqueuer Enqueuer, catalog backfill.Catalog, config *Config) (*Orchestrator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.GamesFile == "" {
		return nil, fmt.Errorf("scheduler requires a games file")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}

	return &Orchestrator{
		enqueuer: enqueuer,
		catalog:  catalog,
		config:   config,
	}, nil
}

// Start polls until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	log.Println("╔════════════════════════════════════════╗")
	log.Println("║   Stintstats Scheduler                 ║")
	log.Println("╚════════════════════════════════════════╝")
	log.Printf("Games file: %s", o.config.GamesFile)
	log.Printf("Poll interval: %v", o.config.PollInterval)

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	// Run immediately on start
	o.pollWithRetry(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("→ Scheduler stopped")
			return
		case <-ticker.C:
			o.pollWithRetry(ctx)
		}
	}
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// TriggerNow runs one poll outside the schedule.
func (o *Orchestrator) TriggerNow(ctx context.Context) (*backfill.Job, error) {
	return o.poll(ctx)
}

func (o *Orchestrator) pollWithRetry(ctx context.Context) {
	var err error
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		_, err = o.poll(ctx)
		if err == nil {
			return
		}

		log.Printf("  ⚠️  Poll attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)
		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
			}
		}
	}
	log.Printf("  ❌ All %d poll attempts failed: %v", o.config.MaxRetries, err)
}

// poll queues a job for the listed games that are not stored yet. It returns
// a nil job when there is nothing to do.
func (o *Orchestrator) poll(ctx context.Context) (job *backfill.Job, err error) {
	defer func() {
		o.mu.Lock()
		o.lastRun = time.Now()
		o.lastErr = err
		o.runs++
		if job != nil {
			o.lastJob = job.JobID
			o.enqueued++
		}
		o.mu.Unlock()
	}()

	games, err := backfill.ReadGamesFile(o.config.GamesFile)
	if err != nil {
		return nil, fmt.Errorf("reading games list: %w", err)
	}

	var pending []backfill.GameRef
	for _, g := range games {
		if o.catalog != nil {
			stored, err := o.catalog.Exists(ctx, g.GameID)
			if err != nil {
				return nil, fmt.Errorf("checking game %s: %w", g.GameID, err)
			}
			if stored {
				continue
			}
		}
		pending = append(pending, g)
	}

	if len(pending) == 0 {
		log.Printf("[scheduler] ⊘ All %d listed games are stored", len(games))
		return nil, nil
	}

	job, err = o.enqueuer.Enqueue(ctx, backfill.Request{Games: pending})
	if err != nil {
		return nil, fmt.Errorf("enqueue backfill: %w", err)
	}
	log.Printf("[scheduler] ✓ Queued job %s for %d of %d games", job.JobID, len(pending), len(games))
	return job, nil
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := map[string]interface{}{
		"games_file":    o.config.GamesFile,
		"poll_interval": o.config.PollInterval.String(),
		"runs":          o.runs,
		"jobs_enqueued": o.enqueued,
	}
	if !o.lastRun.IsZero() {
		status["last_run"] = o.lastRun
	}
	if o.lastJob != "" {
		status["last_job_id"] = o.lastJob
	}
	if o.lastErr != nil {
		status["last_error"] = o.lastErr.Error()
	}
	return status
}
