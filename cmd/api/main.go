package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/time/rate"

	"github.com/samirrijal/stellarcanvas/internal/adapters/gazetteerfile"
	"github.com/samirrijal/stellarcanvas/internal/adapters/http"
	"github.com/samirrijal/stellarcanvas/internal/adapters/memory"
	natsadapter "github.com/samirrijal/stellarcanvas/internal/adapters/nats"
	"github.com/samirrijal/stellarcanvas/internal/adapters/postgres"
	"github.com/samirrijal/stellarcanvas/internal/adapters/valkey"
	"github.com/samirrijal/stellarcanvas/internal/core/alignment"
	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/core/ports"
	"github.com/samirrijal/stellarcanvas/internal/core/usecases"
	"github.com/samirrijal/stellarcanvas/internal/pkg/config"
	"github.com/samirrijal/stellarcanvas/internal/pkg/logging"
	"github.com/samirrijal/stellarcanvas/internal/pkg/metrics"
	"github.com/samirrijal/stellarcanvas/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("stellar-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Catalog and correction defaults are fatal when wrong; nothing else is.
	catalog, err := cfg.Catalog()
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	defaults, err := cfg.CorrectionDefaults()
	if err != nil {
		log.Fatalf("correction defaults: %v", err)
	}
	resolver := alignment.NewResolver(alignment.NewTable(defaults))

	deps := &http.Dependencies{CorrectionBackend: cfg.Corrections.Backend}

	// Database
	var db *postgres.DB
	if cfg.NeedsDatabase() {
		db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db
		go reportPoolStats(ctx, db)
	}

	// Cache
	var kv *valkey.Cache
	if cfg.NeedsValkey() {
		kv, err = valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			kv = nil
		} else {
			defer kv.Close()
			deps.Cache = kv
		}
	}

	// NATS
	var publisher ports.EventPublisher
	var subscriber *natsadapter.Subscriber
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, correction changes stay local", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		subscriber, err = natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
			subscriber = nil
		} else {
			defer subscriber.Close()
		}

		// Raw NATS connection for WebSocket relay
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.NATS = natsConn
		}
	}

	// Stores
	store := correctionStore(cfg, db, kv)
	var source ports.FeatureSource
	switch cfg.Gazetteer.Source {
	case config.SourceFile:
		source = gazetteerfile.NewFileSource(cfg.Gazetteer.File, cfg.GazetteerConvention())
	default:
		source = postgres.NewFeatureRepo(db)
	}
	var searchCache ports.CacheService
	if cfg.Gazetteer.Cache == config.BackendValkey && kv != nil {
		searchCache = kv
	} else {
		lru := memory.NewCache(cfg.Gazetteer.CacheSize)
		defer lru.Close()
		searchCache = lru
	}

	// Use cases
	coords := usecases.NewCoordinateService(catalog, resolver)
	corrections := usecases.NewCorrectionService(catalog, resolver, store, publisher, cfg.Server.InstanceID)
	gazetteer := usecases.NewGazetteerService(catalog, source, searchCache, usecases.GazetteerOptions{
		LoadRate:    rate.Limit(cfg.Gazetteer.LoadRate),
		LoadBurst:   cfg.Gazetteer.LoadBurst,
		LoadTimeout: time.Duration(cfg.Gazetteer.LoadTimeout) * time.Second,
		SearchTTL:   time.Duration(cfg.Gazetteer.SearchCacheTTL) * time.Second,
	})

	if n, err := corrections.Load(ctx); err != nil {
		slog.Warn("correction store unavailable, serving configured defaults", "error", err, "defaults", len(defaults))
	} else {
		slog.Info("corrections loaded", "stored", n, "defaults", len(defaults), "backend", cfg.Corrections.Backend)
	}

	if subscriber != nil {
		if err := subscriber.SubscribeCorrectionChanges(ctx, corrections.ApplyRemoteChange); err != nil {
			slog.Warn("correction change subscription failed", "error", err)
		}
		if err := subscriber.SubscribeGazetteerUpdates(ctx, func(ctx context.Context, body domain.Body) error {
			gazetteer.Invalidate(body)
			return nil
		}); err != nil {
			slog.Warn("gazetteer update subscription failed", "error", err)
		}
	}

	deps.Catalog = usecases.NewCatalogService(catalog)
	deps.Coordinates = coords
	deps.Corrections = corrections
	deps.Tiles = usecases.NewTileService(catalog, coords)
	deps.Gazetteer = gazetteer

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "StellarCanvas API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,PUT,DELETE,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "instance", cfg.Server.InstanceID, "datasets", len(catalog.Datasets()))
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// correctionStore picks the configured backend. A backend whose connection
// failed degrades to the in-process store so edits still apply locally.
func correctionStore(cfg *config.Config, db *postgres.DB, kv *valkey.Cache) ports.CorrectionStore {
	switch cfg.Corrections.Backend {
	case config.BackendPostgres:
		if db != nil {
			return postgres.NewCorrectionRepo(db)
		}
	case config.BackendValkey:
		if kv != nil {
			return valkey.NewCorrectionStore(kv.Client())
		}
	case config.BackendMemory:
		return memory.NewCorrectionStore()
	}
	slog.Warn("correction backend unavailable, using in-process store", "backend", cfg.Corrections.Backend)
	return memory.NewCorrectionStore()
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
