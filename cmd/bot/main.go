package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sardor018/Dating-bot-backend/internal/app/botapp"
	"github.com/Sardor018/Dating-bot-backend/internal/config"
	"github.com/Sardor018/Dating-bot-backend/internal/infra/logger"
)

func main() {
	configPath := flag.String("config", envOr("APP_CONFIG", "configs/config.yaml"), "path to the YAML config")
	dotenvPath := flag.String("dotenv", os.Getenv("APP_DOTENV"), "optional .env file loaded before the config")
	flag.Parse()

	if err := run(*configPath, *dotenvPath); err != nil {
		fmt.Fprintln(os.Stderr, "bot:", err)
		os.Exit(1)
	}
}

// run owns the bot's lifecycle: polling starts here and stops when the
// process receives SIGINT or SIGTERM.
func run(configPath, dotenvPath string) error {
	if err := config.LoadDotEnv(dotenvPath); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, "bot")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := botapp.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create bot app: %w", err)
	}

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("run bot: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
