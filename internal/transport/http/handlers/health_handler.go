package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/Sardor018/Dating-bot-backend/internal/transport/http/errors"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

type healthResponse struct {
	OK      bool              `json:"ok"`
	Details map[string]string `json:"details,omitempty"`
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, healthResponse{OK: true})
}

// Ready pings every registered dependency.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{OK: true, Details: make(map[string]string, len(h.checks))}
	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check.Ping(ctx); err != nil {
			resp.OK = false
			resp.Details[name] = "unavailable"
			continue
		}
		resp.Details[name] = "ok"
	}

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusServiceUnavailable
	}
	httperrors.Write(w, status, resp)
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
