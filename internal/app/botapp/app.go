package botapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Sardor018/Dating-bot-backend/internal/config"
	"github.com/Sardor018/Dating-bot-backend/internal/infra/httpclient"
	tginfra "github.com/Sardor018/Dating-bot-backend/internal/infra/telegram"
	dispatchsvc "github.com/Sardor018/Dating-bot-backend/internal/services/dispatch"
)

type updateSource interface {
	DeleteWebhook(ctx context.Context) error
	Listen(ctx context.Context, timeout int, handle func(context.Context, tgbotapi.Update)) error
}

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	source     updateSource
	dispatcher *dispatchsvc.Dispatcher
}

// New builds the polling bot. Nothing is started until Run.
func New(_ context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if cfg.Bot.WebAppURL == "" {
		return nil, fmt.Errorf("bot.web_app_url is required")
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token, httpclient.New(pollHTTPTimeout(cfg.Bot.PollTimeout)))
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	return newApp(cfg, logger, bot, dispatchsvc.NewDispatcher(bot, cfg.Bot.WebAppURL, logger.Named("dispatch"))), nil
}

func newApp(cfg config.Config, logger *zap.Logger, source updateSource, dispatcher *dispatchsvc.Dispatcher) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		source:     source,
		dispatcher: dispatcher,
	}
}

// Run removes any registered webhook, then long-polls until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.source.DeleteWebhook(ctx); err != nil {
		return fmt.Errorf("prepare polling: %w", err)
	}
	a.logger.Info("bot app started", zap.Int("poll_timeout", a.cfg.Bot.PollTimeout))

	err := a.source.Listen(ctx, a.cfg.Bot.PollTimeout, a.dispatcher.Dispatch)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.logger.Info("bot app stopped")
	return nil
}

// pollHTTPTimeout leaves headroom over the getUpdates long-poll.
func pollHTTPTimeout(pollSeconds int) time.Duration {
	if pollSeconds <= 0 {
		pollSeconds = 30
	}
	return time.Duration(pollSeconds+15) * time.Second
}
