package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/stintstats/internal/backfill"
	"github.com/fortuna/stintstats/internal/cache"
	"github.com/fortuna/stintstats/internal/export"
	"github.com/fortuna/stintstats/internal/ingest/genius"
	"github.com/fortuna/stintstats/internal/platform/config"
	"github.com/fortuna/stintstats/internal/platform/logger"
	"github.com/fortuna/stintstats/internal/publisher"
	"github.com/fortuna/stintstats/internal/reconciliation"
	"github.com/fortuna/stintstats/internal/stints"
	"github.com/fortuna/stintstats/internal/store"
	"github.com/fortuna/stintstats/internal/store/repository"
)

const (
	appName    = "stintstats-backfill"
	appVersion = "1.0.0"
)

func main() {
	_ = config.Load()
	cfg := config.FromEnv()

	var (
		dataDir  = flag.String("data-dir", cfg.DataDir, "Directory for cached feeds and CSV tables")
		games    = flag.String("games", cfg.GamesFile, "Games list (game_id,round per line); default <data-dir>/games.csv")
		reload   = flag.Bool("reload", false, "Reprocess games that are already stored")
		save     = flag.Bool("save", false, "Write the CSV and .xlsx tables to the data directory")
		dsn      = flag.String("dsn", "", "PostgreSQL DSN; games are stored in the database when set")
		workers  = flag.Int("workers", cfg.Workers, "Games processed in parallel")
		redisURL = flag.String("redis", cfg.RedisURL, "Redis URL for the feed cache, processed set and stream")
		boundary = flag.String("boundary", cfg.Boundary, "Stint interval boundary: lower or upper")
	)
	flag.Parse()

	runID := uuid.NewString()
	log.SetPrefix(fmt.Sprintf("[%s] ", runID[:8]))
	log.Printf("=== %s v%s (run %s) ===", appName, appVersion, runID)

	if *games == "" {
		*games = filepath.Join(*dataDir, "games.csv")
	}
	policy, err := stints.ParseBoundaryPolicy(*boundary)
	if err != nil {
		log.Fatalf("invalid --boundary: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	list, err := backfill.ReadGamesFile(*games)
	if err != nil {
		log.Fatalf("read games list: %v", err)
	}
	log.Printf("Loaded %d games from %s", len(list), *games)

	// Feed caches
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	disk, err := cache.NewDiskCache(*dataDir)
	if err != nil {
		log.Fatalf("open feed cache: %v", err)
	}
	var feeds cache.FeedStore = disk

	var redisCache *cache.RedisCache
	if *redisURL != "" {
		redisCache, err = cache.NewRedisCache(*redisURL, cfg.FeedCacheTTL)
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer redisCache.Close()
		feeds = cache.Layered{redisCache, disk}
		log.Println("✓ Connected to Redis")
	}

	var fetcher genius.PageFetcher
	if cfg.InfoRender {
		renderer := genius.NewBrowserRenderer()
		defer renderer.Close()
		fetcher = renderer
	}
	ingester := genius.NewIngester(
		genius.NewClient(cfg.FeedBaseURL, nil),
		feeds,
		genius.NewInfoScraper(cfg.InfoBaseURL, fetcher),
	)

	processor := &backfill.Processor{
		Loader:   ingester,
		Warnings: stints.NewSlogSink(logger.New(cfg.LogLevel, cfg.LogFormat)),
		Engine:   reconciliation.NewEngine(),
		Boundary: policy,
	}

	exporter, err := export.NewExporter(*dataDir)
	if err != nil {
		log.Fatalf("open exporter: %v", err)
	}

	// Stored games come from the database when one is given, otherwise from
	// the CSV games table and the Redis processed set.
	var catalog backfill.Catalog
	if *dsn != "" {
		db, err := store.NewDatabase(*dsn)
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer db.Close()
		if err := db.RunMigrations(ctx); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		processor.Results = repository.NewResultRepository(db)
		processor.Reports = repository.NewReconciliationRepository(db)
		catalog = repository.NewGameRepository(db)
		log.Println("✓ Storing games in the database")
	} else {
		saved, err := exporter.SavedGameIDs()
		if err != nil {
			log.Fatalf("read saved games: %v", err)
		}
		stored := backfill.AnyCatalog{backfill.StoredSet(saved)}
		if redisCache != nil {
			stored = append(stored, backfill.CatalogFunc(redisCache.IsProcessed))
		}
		catalog = stored
	}
	if redisCache != nil {
		processor.Marker = redisCache
		processor.Publisher = publisher.NewRedisStreamPublisher(redisCache.Client())
	}

	runner := backfill.NewRunner(processor, catalog, *workers)
	summary, err := runner.Run(ctx, backfill.JobSpec{Games: list, Reload: *reload}, &consoleReporter{})
	if err != nil {
		log.Fatalf("backfill failed: %v", err)
	}

	if *save {
		if err := exporter.Backup(); err != nil {
			log.Fatalf("backup tables: %v", err)
		}
		if err := exporter.Write(summary.ProcessedResults()); err != nil {
			log.Fatalf("write tables: %v", err)
		}
	}

	log.Println("✓ Backfill completed")
}

type consoleReporter struct {
	start time.Time
}

func (c *consoleReporter) OnJobStart(spec backfill.JobSpec) {
	c.start = time.Now()
	log.Printf("Starting backfill of %d games (reload=%v)", len(spec.Games), spec.Reload)
}

func (c *consoleReporter) OnRoundStart(round int, games int) {
	log.Printf("Round %d: %d games", round, games)
}

func (c *consoleReporter) OnGameProcessed(res backfill.GameResult) {
	if res.Warnings > 0 {
		log.Printf("Game %s: %d substitution warnings", res.Ref.GameID, res.Warnings)
	}
	if res.Report != nil && res.Report.Status != reconciliation.StatusOK {
		log.Printf("Game %s: reconciliation %s (%d mismatches)", res.Ref.GameID, res.Report.Status, res.Report.Mismatches())
	}
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	log.Printf("Progress: %s (%d/%d)", message, current, total)
}

func (c *consoleReporter) OnJobComplete(s *backfill.Summary) {
	log.Printf("Job complete in %v: %d processed, %d not ready, %d failed, %d skipped",
		time.Since(c.start).Round(time.Millisecond), s.Processed, s.NotReady, s.Failed, s.Skipped)
	if s.StopRound != 0 {
		log.Printf("Stopped after round %d; rerun once its games have finished", s.StopRound)
	}
	for _, r := range s.Results {
		if r.Outcome == backfill.OutcomeFailed {
			log.Printf("  ❌ %s: %v", r.Ref.GameID, r.Err)
		}
	}
}

func (c *consoleReporter) OnJobError(err error) {
	log.Printf("Job error: %v", err)
}
