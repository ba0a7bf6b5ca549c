package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"backoffice/internal/cli"
	"backoffice/internal/config"
	"backoffice/internal/logger"
	"backoffice/internal/storeclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout is reserved for command output
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}
	log := logger.New(cfg.Log).Named("cli")
	defer func() { _ = log.Sync() }()

	newStore := func() (cli.Store, error) {
		c, err := storeclient.New(cfg.Store)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(newStore, log).ExecuteContext(ctx); err != nil {
		log.Debug("Command execution failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
