package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/chatbook/internal/logging"
	"github.com/dmitrijs2005/chatbook/internal/server"
	"github.com/dmitrijs2005/chatbook/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.NewJSON(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "shutdown failed", "error", err)
		os.Exit(1)
	}
}
