package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Sardor018/Dating-bot-backend/internal/config"
	authsvc "github.com/Sardor018/Dating-bot-backend/internal/services/auth"
	matchingsvc "github.com/Sardor018/Dating-bot-backend/internal/services/matching"
	mediasvc "github.com/Sardor018/Dating-bot-backend/internal/services/media"
	profilesvc "github.com/Sardor018/Dating-bot-backend/internal/services/profiles"
	userssvc "github.com/Sardor018/Dating-bot-backend/internal/services/users"
	"github.com/Sardor018/Dating-bot-backend/internal/transport/http/handlers"
)

type Dependencies struct {
	UserService      *userssvc.Service
	ProfileService   *profilesvc.Service
	MediaService     *mediasvc.Service
	MatchingService  *matchingsvc.Service
	Dispatcher       handlers.UpdateDispatcher
	UpdateDeduper    handlers.UpdateDeduper
	HealthChecks     map[string]handlers.Pinger
	InitDataVerifier *authsvc.Verifier
	Logger           *zap.Logger
	Config           config.Config
}

// NewRouter builds the full HTTP surface: middlewares first, then routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	ApplyMiddlewares(r, deps.Config, deps.Logger)
	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	userHandler := handlers.NewUserHandler(deps.UserService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService, deps.Config.Media.MaxUploadBytes)
	matchingHandler := handlers.NewMatchingHandler(deps.MatchingService)
	telegramHandler := handlers.NewTelegramHandler(deps.Dispatcher, deps.UpdateDeduper, deps.Config.Bot.WebhookSecret, deps.Logger)

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Post("/telegram/webhook", telegramHandler.Webhook)

	r.Group(func(r chi.Router) {
		if deps.Config.Auth.RequireInitData {
			r.Use(InitDataMiddleware(deps.InitDataVerifier, deps.Logger))
		}

		r.Get("/check_user", userHandler.CheckUser)
		r.Post("/language", userHandler.SetLanguage)
		r.Post("/profile", profileHandler.Update)
		r.Get("/profile/{chat_id}", userHandler.GetProfile)
		r.Post("/photos", mediaHandler.Photos)
		r.Post("/selfie", mediaHandler.Selfie)
		r.Post("/like", matchingHandler.Like)
		r.Get("/candidates", matchingHandler.Candidates)
		r.Get("/matches", matchingHandler.Matches)
	})
}
