package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appconfig "github.com/contractguard/contractguard/internal/config"
	analysisworker "github.com/contractguard/contractguard/internal/worker/analysis"
	"github.com/contractguard/contractguard/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	if err := analysisworker.Run(ctx, cfg, logger); err != nil {
		logger.Error("analysis worker exited", "error", err)
		os.Exit(1)
	}
}
