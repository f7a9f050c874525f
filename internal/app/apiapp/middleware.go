package apiapp

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Sardor018/Dating-bot-backend/internal/config"
	authsvc "github.com/Sardor018/Dating-bot-backend/internal/services/auth"
	httperrors "github.com/Sardor018/Dating-bot-backend/internal/transport/http/errors"
)

const initDataHeader = "X-Telegram-Init-Data"

func ApplyMiddlewares(r chiRouter, cfg config.Config, log *zap.Logger) {
	timeout := cfg.HTTP.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(requestLogger(log))
}

// corsMiddleware lets only the web app origin call the API from a browser.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", initDataHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler
}

// InitDataMiddleware requires a valid Telegram WebApp initData header and
// puts the verified user into the request context.
func InitDataMiddleware(verifier *authsvc.Verifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				httperrors.WriteError(w, http.StatusInternalServerError, "AUTH_UNAVAILABLE", "init data verification is unavailable")
				return
			}

			raw := strings.TrimSpace(r.Header.Get(initDataHeader))
			if raw == "" {
				httperrors.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing telegram init data")
				return
			}

			identity, err := verifier.Verify(raw)
			if err != nil {
				if log != nil {
					log.Debug("init data verification failed", zap.Error(err))
				}
				httperrors.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid telegram init data")
				return
			}

			next.ServeHTTP(w, r.WithContext(authsvc.WithIdentity(r.Context(), identity)))
		})
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if log != nil {
				log.Info("http_request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.String("request_id", chimiddleware.GetReqID(r.Context())),
					zap.Duration("duration", time.Since(start)),
				)
			}
		})
	}
}

type chiRouter interface {
	Use(middlewares ...func(http.Handler) http.Handler)
}
