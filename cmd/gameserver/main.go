// Package main provides the game server binary that loads the creature
// content and runs the simulation tick loop until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/config"
	"github.com/cory-johannsen/creaturesim/internal/game/dice"
	"github.com/cory-johannsen/creaturesim/internal/gameserver"
	"github.com/cory-johannsen/creaturesim/internal/observability"
	"github.com/cory-johannsen/creaturesim/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	statusInterval := flag.Duration("status-interval", 30*time.Second, "how often to log simulation status")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "gameserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	diceRoller := dice.NewLoggedRoller(dice.NewCryptoSource(), observability.Named(logger, "dice"))

	content, err := gameserver.LoadContent(cfg.Content, diceRoller, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	defer content.Close()

	sim, err := gameserver.Build(cfg, content, time.Now().UnixMilli(), diceRoller, logger)
	if err != nil {
		logger.Fatal("building simulation", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("simulation", sim)

	statusStop := make(chan struct{})
	lifecycle.Add("status", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			ticker := time.NewTicker(*statusInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-statusStop:
					return nil
				case <-ticker.C:
					logger.Info("simulation status",
						zap.Int64("ticks", sim.Ticks()),
						zap.Int("creatures", sim.World().Len()),
					)
				}
			}
		},
		StopFn: func() { close(statusStop) },
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("creatures", sim.World().Len()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
