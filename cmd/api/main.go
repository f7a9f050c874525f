package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Sardor018/Dating-bot-backend/internal/app/apiapp"
	"github.com/Sardor018/Dating-bot-backend/internal/config"
	"github.com/Sardor018/Dating-bot-backend/internal/infra/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", envOr("APP_CONFIG", "configs/config.yaml"), "path to the YAML config")
	dotenvPath := flag.String("dotenv", os.Getenv("APP_DOTENV"), "optional .env file loaded before the config")
	flag.Parse()

	if err := run(*configPath, *dotenvPath); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
		os.Exit(1)
	}
}

func run(configPath, dotenvPath string) error {
	if err := config.LoadDotEnv(dotenvPath); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, "api")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := apiapp.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create api app: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- app.Run() }()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("api server stopped", zap.Error(err))
		}
		shutdown(app, log)
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(app, log)
		return nil
	}
}

func shutdown(app *apiapp.App, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		log.Warn("api shutdown", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
