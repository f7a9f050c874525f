package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Sardor018/Dating-bot-backend/internal/config"
	"github.com/Sardor018/Dating-bot-backend/internal/infra/httpclient"
	s3infra "github.com/Sardor018/Dating-bot-backend/internal/infra/s3"
	tginfra "github.com/Sardor018/Dating-bot-backend/internal/infra/telegram"
	pgrepo "github.com/Sardor018/Dating-bot-backend/internal/repo/postgres"
	redrepo "github.com/Sardor018/Dating-bot-backend/internal/repo/redis"
	authsvc "github.com/Sardor018/Dating-bot-backend/internal/services/auth"
	dispatchsvc "github.com/Sardor018/Dating-bot-backend/internal/services/dispatch"
	matchingsvc "github.com/Sardor018/Dating-bot-backend/internal/services/matching"
	mediasvc "github.com/Sardor018/Dating-bot-backend/internal/services/media"
	profilesvc "github.com/Sardor018/Dating-bot-backend/internal/services/profiles"
	ratesvc "github.com/Sardor018/Dating-bot-backend/internal/services/rate"
	userssvc "github.com/Sardor018/Dating-bot-backend/internal/services/users"
	"github.com/Sardor018/Dating-bot-backend/internal/transport/http/handlers"
)

const (
	webhookUpdateTTL = 24 * time.Hour
	botHTTPTimeout   = 15 * time.Second
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	bot        *tginfra.Bot
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient, err := redrepo.NewClient(ctx, redrepo.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("redis init failed, rate limits and webhook dedupe disabled", zap.Error(err))
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	var (
		likeLimiter   matchingsvc.Limiter
		uploadLimiter mediasvc.Limiter
		updateDeduper handlers.UpdateDeduper
	)
	if redisClient != nil {
		rateRepo := redrepo.NewRateRepo(redisClient)
		likeLimiter = ratesvc.NewLimiter(rateRepo, ratesvc.ActionLike, ratesvc.LikeRules(
			cfg.Limits.LikeMaxPerSec,
			cfg.Limits.LikeMax10Sec,
			cfg.Limits.LikeMaxPerMin,
		)...)
		uploadLimiter = ratesvc.NewLimiter(rateRepo, ratesvc.ActionUpload, ratesvc.Rule{
			Window: time.Minute,
			Max:    cfg.Limits.UploadMaxPerMin,
		})
		updateDeduper = redrepo.NewUpdateRepo(redisClient, webhookUpdateTTL)
	}

	storage := s3infra.NewStorage(s3Client, cfg.S3.Bucket)
	userRepo := pgrepo.NewUserRepo(pool)
	mediaRepo := pgrepo.NewMediaRepo(pool)
	likeRepo := pgrepo.NewLikeRepo(pool)
	candidateRepo := pgrepo.NewCandidateRepo(pool)

	userService := userssvc.NewService(userRepo, userRepo, storage, cfg.Media.SignedURLTTL)
	profileService := profilesvc.NewService(userRepo)
	mediaService := mediasvc.NewService(mediaRepo, storage, uploadLimiter, mediasvc.Config{
		MaxDimension: cfg.Media.MaxDimension,
		JPEGQuality:  cfg.Media.JPEGQuality,
		SignedURLTTL: cfg.Media.SignedURLTTL,
	})
	matchingService := matchingsvc.NewService(matchingsvc.Dependencies{
		Likes:         likeRepo,
		Candidates:    candidateRepo,
		Limiter:       likeLimiter,
		Signer:        storage,
		Logger:        log.Named("matching"),
		SignedURLTTL:  cfg.Media.SignedURLTTL,
		MaxCandidates: cfg.Limits.CandidatesMax,
	})

	var (
		bot        *tginfra.Bot
		dispatcher handlers.UpdateDispatcher
	)
	if cfg.Bot.Token != "" {
		b, err := tginfra.NewBot(cfg.Bot.Token, httpclient.New(botHTTPTimeout))
		if err != nil {
			log.Warn("telegram bot init failed, webhook relay and match notifications disabled", zap.Error(err))
		} else {
			bot = b
			d := dispatchsvc.NewDispatcher(bot, cfg.Bot.WebAppURL, log.Named("bot"))
			matchingService.SetNotifier(d)
			dispatcher = d

			if cfg.Bot.WebhookURL != "" {
				if err := bot.SetWebhook(ctx, cfg.Bot.WebhookURL, cfg.Bot.WebhookSecret); err != nil {
					log.Warn("telegram webhook registration failed", zap.Error(err))
				}
			}
		}
	}

	healthChecks := map[string]handlers.Pinger{}
	if pool != nil {
		healthChecks["postgres"] = pool
	}
	if redisClient != nil {
		healthChecks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := NewRouter(Dependencies{
		UserService:      userService,
		ProfileService:   profileService,
		MediaService:     mediaService,
		MatchingService:  matchingService,
		Dispatcher:       dispatcher,
		UpdateDeduper:    updateDeduper,
		HealthChecks:     healthChecks,
		InitDataVerifier: authsvc.NewVerifier(cfg.Bot.Token, cfg.Auth.InitDataMaxAge),
		Logger:           log,
		Config:           cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		bot:        bot,
		httpRouter: router,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
