// Package main provides the headless simulation server. It loads content,
// builds every configured scene and steps them at a fixed rate, optionally
// journaling encounter events to PostgreSQL and hot-reloading content.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/config"
	"github.com/cory-johannsen/actioncore/internal/content"
	"github.com/cory-johannsen/actioncore/internal/journal"
	"github.com/cory-johannsen/actioncore/internal/observability"
	"github.com/cory-johannsen/actioncore/internal/server"
	"github.com/cory-johannsen/actioncore/internal/sim"
	"github.com/cory-johannsen/actioncore/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	runFor := flag.Duration("duration", 0, "stop after this long; 0 runs until signalled")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting simulation server",
		zap.Duration("tick", cfg.Simulation.TickInterval),
		zap.Int("scenes", len(cfg.Simulation.Scenes)),
	)

	world, err := sim.NewWorld(cfg, observability.Component(logger, "sim"))
	if err != nil {
		logger.Fatal("building world", zap.Error(err))
	}

	ctx := context.Background()
	if *runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *runFor)
		defer cancel()
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.AddCloser("world", world.Close)
	lifecycle.Add("ticker", server.ServiceFunc(world.Ticker.Run))

	if cfg.Journal.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		lifecycle.AddCloser("database", pool.Close)

		recorder := journal.NewRecorder(
			postgres.NewJournalRepository(pool.DB()),
			cfg.Journal.BufferSize,
			cfg.Journal.WriteTimeout,
			observability.Component(logger, "journal"),
		)
		recorder.Attach(world.Bus)
		lifecycle.AddCloser("journal", recorder.Detach)
		lifecycle.Add("journal", server.ServiceFunc(recorder.Run))
	}

	if cfg.Content.Watch {
		dirs := sim.WatchDirs(cfg.Content)
		watcher, err := content.NewWatcher(world.Reloader, cfg.Content.Debounce, observability.Component(logger, "content"), dirs...)
		if err != nil {
			logger.Fatal("watching content", zap.Error(err))
		}
		logger.Info("watching content", zap.Strings("dirs", dirs))
		lifecycle.Add("content-watcher", server.ServiceFunc(watcher.Run))
	}

	logger.Info("simulation server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("simulation server stopped with error", zap.Error(err))
	}
	logger.Info("simulation server stopped",
		zap.Uint64("ticks", world.Ticker.Ticks()),
		zap.Duration("uptime", time.Since(start)),
	)
}
