package main

import (
	"context"
	"os"

	"github.com/rosterd/rosterd/internal/config"
	"github.com/rosterd/rosterd/internal/logger"
	"github.com/rosterd/rosterd/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "failed to load configuration", err)
		os.Exit(1)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "failed to start", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped with error", err)
		os.Exit(1)
	}
}
