package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/stintstats/internal/api/rest"
	"github.com/fortuna/stintstats/internal/api/websocket"
	"github.com/fortuna/stintstats/internal/backfill"
	"github.com/fortuna/stintstats/internal/cache"
	"github.com/fortuna/stintstats/internal/ingest/genius"
	"github.com/fortuna/stintstats/internal/platform/config"
	"github.com/fortuna/stintstats/internal/platform/logger"
	"github.com/fortuna/stintstats/internal/platform/metrics"
	"github.com/fortuna/stintstats/internal/publisher"
	"github.com/fortuna/stintstats/internal/reconciliation"
	"github.com/fortuna/stintstats/internal/scheduler"
	"github.com/fortuna/stintstats/internal/service"
	"github.com/fortuna/stintstats/internal/stints"
	"github.com/fortuna/stintstats/internal/store"
	"github.com/fortuna/stintstats/internal/store/repository"
)

const (
	serviceName    = "stintstats"
	serviceVersion = "1.0.0"

	maxRetries = 30
	retryDelay = 2 * time.Second
)

func main() {
	log.Printf("Starting %s v%s - Lineup Stint Service", serviceName, serviceVersion)

	if err := config.Load(); err != nil {
		log.Printf("⚠️  .env not loaded: %v", err)
	}
	cfg := config.FromEnv()
	slogger := logger.New(cfg.LogLevel, cfg.LogFormat)

	boundary, err := stints.ParseBoundaryPolicy(cfg.Boundary)
	if err != nil {
		log.Fatalf("Invalid STINT_BOUNDARY: %v", err)
	}
	m := metrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	var db *store.Database
	log.Println("Connecting to database...")
	retry("Database", func() error {
		db, err = store.NewDatabase(cfg.DatabaseDSN)
		return err
	})
	defer db.Close()
	log.Println("✓ Connected to database")

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// Feed caches
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir %s: %v", cfg.DataDir, err)
	}
	disk, err := cache.NewDiskCache(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open feed cache: %v", err)
	}
	var feeds cache.FeedStore = disk

	var redisCache *cache.RedisCache
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		retry("Redis", func() error {
			redisCache, err = cache.NewRedisCache(cfg.RedisURL, cfg.FeedCacheTTL)
			return err
		})
		defer redisCache.Close()
		feeds = cache.Layered{redisCache, disk}
		log.Println("✓ Connected to Redis")
	} else {
		log.Println("⊘ REDIS_URL not set; feed cache is disk only and push is disabled")
	}

	// Ingestion
	var fetcher genius.PageFetcher
	if cfg.InfoRender {
		renderer := genius.NewBrowserRenderer()
		defer renderer.Close()
		fetcher = renderer
		log.Println("✓ Game info pages rendered with headless Chrome")
	}
	ingester := genius.NewIngester(
		genius.NewClient(cfg.FeedBaseURL, nil),
		feeds,
		genius.NewInfoScraper(cfg.InfoBaseURL, fetcher),
	)

	gameRepo := repository.NewGameRepository(db)
	processor := &backfill.Processor{
		Loader:   ingester,
		Results:  repository.NewResultRepository(db),
		Reports:  repository.NewReconciliationRepository(db),
		Observer: m,
		Warnings: stints.NewSlogSink(slogger),
		Engine:   reconciliation.NewEngine(),
		Boundary: boundary,
	}
	if redisCache != nil {
		processor.Publisher = publisher.NewRedisStreamPublisher(redisCache.Client())
		processor.Marker = redisCache
	}

	// Backfill service
	runner := backfill.NewRunner(processor, gameRepo, cfg.Workers)
	backfillService := backfill.NewService(db, runner, log.Default())
	backfillService.OnActiveJobs(m.SetActiveBackfillJobs)
	backfillService.Start()
	log.Println("✓ Backfill service started")

	// Scheduler
	var sched *scheduler.Orchestrator
	if cfg.GamesFile != "" && cfg.ScheduleInterval > 0 {
		sched, err = scheduler.NewOrchestrator(backfillService, gameRepo, &scheduler.Config{
			GamesFile:    cfg.GamesFile,
			PollInterval: cfg.ScheduleInterval,
			MaxRetries:   3,
			RetryDelay:   5 * time.Second,
		})
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		go sched.Start(ctx)
		log.Println("✓ Scheduler started")
	}

	// WebSocket push
	hub := websocket.NewHub()
	go hub.Run(ctx)
	if redisCache != nil {
		consumer := websocket.NewStreamConsumer(redisCache.Client(), hub,
			publisher.GamesStream, "stintstats-ws", "ws-"+uuid.NewString())
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Printf("❌ Stream consumer stopped: %v", err)
			}
		}()
	}
	wsServer := websocket.NewServer(ctx, hub)
	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil {
			log.Printf("WebSocket server error: %v", err)
		}
	}()

	// REST API
	checks := map[string]rest.HealthCheck{"postgres": db.HealthCheck}
	if redisCache != nil {
		checks["redis"] = redisCache.HealthCheck
	}
	restServer := rest.NewServer(rest.Options{
		Port:         cfg.RESTPort,
		CORSOrigins:  cfg.CORSOrigins,
		Logger:       slogger,
		Metrics:      m,
		UpdateGauges: func() { m.SetWebsocketClients(hub.ClientCount()) },
	}, rest.Dependencies{
		Games:     service.NewGameService(db),
		Stints:    service.NewStintService(db),
		Players:   service.NewPlayerService(db),
		Analytics: service.NewAnalyticsService(db),
		Computer:  processor,
		Checks:    checks,
	}, backfillService)
	go func() {
		log.Printf("Starting REST API server on port %s", cfg.RESTPort)
		if err := restServer.Start(); err != nil {
			log.Printf("REST server error: %v", err)
		}
	}()

	log.Printf("✓ %s v%s started successfully", serviceName, serviceVersion)
	log.Printf("  REST API: http://0.0.0.0:%s", cfg.RESTPort)
	log.Printf("  WebSocket: ws://0.0.0.0:%s/ws/games", cfg.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Printf("Shutting down %s gracefully...", serviceName)

	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("WebSocket server shutdown error: %v", err)
	}
	if err := backfillService.Shutdown(shutdownCtx); err != nil {
		log.Printf("Backfill service shutdown error: %v", err)
	}

	log.Printf("%s stopped", serviceName)
}

// retry calls connect until it succeeds, exiting after maxRetries attempts.
func retry(name string, connect func() error) {
	for i := 0; i < maxRetries; i++ {
		err := connect()
		if err == nil {
			return
		}
		if i < maxRetries-1 {
			log.Printf("%s connection attempt %d/%d failed: %v (retrying in %v)", name, i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		} else {
			log.Fatalf("Failed to connect to %s after %d attempts: %v", name, maxRetries, err)
		}
	}
}
