package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"umrahcheck/cache"
	"umrahcheck/config"
	"umrahcheck/database"
	"umrahcheck/handlers"
	"umrahcheck/logger"
	"umrahcheck/planner"
	"umrahcheck/report"
	"umrahcheck/services"
	"umrahcheck/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config is not known yet
		zap.NewExample().Fatal("❌ Failed to load configuration", zap.Error(err))
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────
	reporter, err := telemetry.NewReporter(cfg.Sentry, log)
	if err != nil {
		log.Fatal("❌ Failed to initialise error tracking", zap.Error(err))
	}
	defer reporter.Flush(2 * time.Second)

	// ── Providers ─────────────────────────────────────────────
	flights, hotels := buildProviders(ctx, cfg, log)

	// ── Cache ─────────────────────────────────────────────────
	clk := clock.New()
	var checks []handlers.Check
	var resultCache planner.ResultCache
	switch cfg.Search.CacheBackend {
	case config.CacheRedis:
		rc := cache.NewRedis(cache.NewRedisClient(cfg.Redis))
		if err := rc.Ping(ctx); err != nil {
			log.Warn("⚠️  Redis not reachable at startup", zap.Error(err))
		}
		resultCache = rc
		checks = append(checks, handlers.Check{Name: "cache", Probe: rc.Ping})
	default:
		resultCache = cache.NewMemory(cfg.Search.CacheTTL, clk)
	}
	log.Info("🗄️  Result cache ready", zap.String("backend", cfg.Search.CacheBackend))

	// ── Database ──────────────────────────────────────────────
	var store *database.Store
	var audit planner.AuditSink
	var searchStore handlers.SearchStore
	if cfg.Database.Enabled() {
		store, err = database.Open(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal("❌ Failed to connect to database", zap.Error(err))
		}
		defer store.Close()
		audit, searchStore = store, store
		checks = append(checks, handlers.Check{Name: "database", Probe: store.Ping})
	} else {
		log.Warn("⚠️  No database configured, searches are not audited and lookups are disabled")
	}

	// ── Assembler ─────────────────────────────────────────────
	var errReporter planner.ErrorReporter
	if reporter.Enabled() {
		errReporter = reporter
	}
	assembler := planner.NewAssembler(planner.Deps{
		Flights:  flights,
		Hotels:   hotels,
		Cache:    resultCache,
		Audit:    audit,
		Reporter: errReporter,
		Clock:    clk,
		Logger:   log,
	}, planner.Options{
		Timeout:      cfg.Search.Timeout,
		CacheTTL:     cfg.Search.CacheTTL,
		ProviderMode: cfg.Providers.Mode,
	})

	// ── HTTP ──────────────────────────────────────────────────
	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(handlers.Recovery(log, reporter), handlers.RequestLogger(log))

	// Trusted proxies (the platform sits behind a proxy)
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	allowedOrigins := append([]string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.FrontendURLs...)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	h := handlers.NewHandler(handlers.Deps{
		Searcher:   assembler,
		Store:      searchStore,
		Summarizer: report.NewSummarizer(cfg.HuggingFace, log),
		Reporter:   reporter,
		Checks:     checks,
		Logger:     log,
	})
	h.Register(r, handlers.NewRateLimiter(cfg.Server.RateLimitPerMinute))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Info("🚀 UmrahCheck quote API starting",
			zap.String("port", cfg.Server.Port),
			zap.String("providers", cfg.Providers.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("❌ Server shutdown failed", zap.Error(err))
	}
	assembler.Wait()
	log.Info("✅ Shutdown complete")
}

// buildProviders picks the flight and hotel sources for the configured mode.
func buildProviders(ctx context.Context, cfg *config.Config, log *zap.Logger) (services.FlightProvider, services.HotelProvider) {
	links := services.NewDeeplinkBuilder("", "")
	staticFlights := services.NewStaticFlights(links)
	staticHotels := services.NewStaticHotels(links)

	if cfg.Providers.Mode == config.ModeStatic {
		log.Info("📋 Using static price tables")
		return staticFlights, staticHotels
	}

	amadeus := services.NewAmadeusClient(cfg.Amadeus.ClientID, cfg.Amadeus.ClientSecret, cfg.Amadeus.BaseURL(), links, log)
	// a failed warmup is logged; the token is requested again per search
	_ = amadeus.Warmup(ctx)

	var flights services.FlightProvider = amadeus
	var hotels services.HotelProvider = amadeus
	if cfg.Providers.Mode == config.ModeLive {
		hotels = services.NewScraper(services.ScraperOptions{
			BaseURL:       cfg.Scraper.BaseURL,
			UserAgent:     cfg.Scraper.UserAgent,
			Timeout:       cfg.Scraper.Timeout,
			MaxConcurrent: cfg.Scraper.MaxConcurrent,
		}, links, log)
	}

	if cfg.Providers.FallbackToStatic {
		flights = services.NewFallbackFlights(flights, staticFlights, log)
		hotels = services.NewFallbackHotels(hotels, staticHotels, log)
	}
	log.Info("✈️  Providers ready",
		zap.String("flights", flights.Info().Name),
		zap.String("hotels", hotels.Info().Name),
		zap.Bool("fallback_to_static", cfg.Providers.FallbackToStatic))
	return flights, hotels
}
