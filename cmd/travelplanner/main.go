package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jaimani/ai-travel-demo/internal/adapter/anthropic"
	"github.com/jaimani/ai-travel-demo/internal/adapter/catalog"
	cfhttp "github.com/jaimani/ai-travel-demo/internal/adapter/http"
	cfnats "github.com/jaimani/ai-travel-demo/internal/adapter/nats"
	"github.com/jaimani/ai-travel-demo/internal/adapter/openai"
	cfotel "github.com/jaimani/ai-travel-demo/internal/adapter/otel"
	"github.com/jaimani/ai-travel-demo/internal/adapter/postgres"
	"github.com/jaimani/ai-travel-demo/internal/adapter/ristretto"
	"github.com/jaimani/ai-travel-demo/internal/adapter/ws"
	"github.com/jaimani/ai-travel-demo/internal/config"
	"github.com/jaimani/ai-travel-demo/internal/domain/agent"
	"github.com/jaimani/ai-travel-demo/internal/logger"
	"github.com/jaimani/ai-travel-demo/internal/middleware"
	"github.com/jaimani/ai-travel-demo/internal/port/entitlement"
	"github.com/jaimani/ai-travel-demo/internal/port/llm"
	"github.com/jaimani/ai-travel-demo/internal/resilience"
	"github.com/jaimani/ai-travel-demo/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"llm_provider", cfg.LLM.Provider,
		"model", cfg.LLM.DefaultModel,
		"postgres", cfg.Postgres.Enabled,
		"nats", cfg.NATS.Enabled,
	)

	ctx := context.Background()

	// --- Observability ---

	shutdownOTEL, err := cfotel.Init(ctx, cfg.OTEL, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	handlers := &cfhttp.Handlers{}

	var subs entitlement.Store
	if cfg.Postgres.Enabled {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		slog.Info("postgres connected")

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		slog.Info("migrations applied")

		store := postgres.NewSubscriptionStore(pool)
		subs = store
		handlers.DB = store
	} else {
		subs = service.NewStaticSubscriptions(cfg.Entitlement.PremiumEmails...)
		slog.Info("using in-memory subscriptions", "premium_emails", len(cfg.Entitlement.PremiumEmails))
	}

	entCache, err := ristretto.New(cfg.Entitlement.CacheMaxBytes)
	if err != nil {
		return fmt.Errorf("entitlement cache: %w", err)
	}
	defer entCache.Close()

	hub := ws.NewHub()
	defer hub.Close()

	var feed service.RunFeed = service.NewBroadcastFeed(hub)
	if cfg.NATS.Enabled {
		queue, err := cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Drain() }()

		stopRelay, err := service.StartStepRelay(ctx, queue, hub)
		if err != nil {
			return fmt.Errorf("step relay: %w", err)
		}
		defer stopRelay()

		feed = service.NewQueueFeed(queue)
		handlers.Queue = queue
	}

	// --- Agents ---

	model, err := newChatModel(cfg.LLM)
	if err != nil {
		return err
	}
	breaker := resilience.NewBreaker("llm", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	inventory, err := catalog.New()
	if err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	agents, err := agent.NewCatalog(agent.TravelDefinitions(cfg.LLM.DefaultModel,
		service.NewSearchFlightsTool(inventory),
		service.NewSearchHotelsTool(inventory),
	)...)
	if err != nil {
		return fmt.Errorf("agent catalog: %w", err)
	}

	// --- Services ---

	entitlements := service.NewEntitlementService(subs, entCache, cfg.Entitlement.CacheTTL)

	runner := service.NewAgentRunner(model, breaker, cfg.Orchestrator)
	runner.SetMetrics(metrics)

	pipeline, err := service.NewPipelineService(agents, runner, entitlements, cfg.Orchestrator)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	pipeline.SetFeed(feed)
	pipeline.SetMetrics(metrics)

	// --- HTTP ---

	handlers.Pipeline = pipeline
	handlers.Stream = service.NewStreamService(pipeline)
	handlers.Flights = inventory
	handlers.Hotels = inventory
	handlers.Entitlements = entitlements
	handlers.Feed = hub

	limiter := middleware.NewRateLimiter(cfg.Rate)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(cfotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(middleware.RequestID)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(middleware.Identity)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)

	// Dashboard feed; ?run_id= narrows it to one run.
	r.Get("/ws", hub.HandleWS)

	cfhttp.MountRoutes(r, handlers, limiter, cfg.Server.RequestTimeout)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: plan streams stay open for the whole run.
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Detached stream runs and feed relays still hold the hub and queue.
	if err := handlers.Stream.Wait(shutdownCtx); err != nil {
		slog.Warn("plan streams still running at shutdown", "error", err)
	}
	if err := pipeline.Wait(shutdownCtx); err != nil {
		slog.Warn("run feed still draining at shutdown", "error", err)
	}
	return nil
}

func newChatModel(cfg config.LLM) (llm.ChatModel, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(cfg), nil
	case "anthropic":
		return anthropic.New(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
