package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	httperrors "github.com/Sardor018/Dating-bot-backend/internal/transport/http/errors"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type UpdateDispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update)
}

type UpdateDeduper interface {
	MarkSeen(ctx context.Context, updateID int) (bool, error)
}

type TelegramHandler struct {
	dispatcher UpdateDispatcher
	dedupe     UpdateDeduper
	secret     string
	log        *zap.Logger
}

type okResponse struct {
	OK bool `json:"ok"`
}

func NewTelegramHandler(dispatcher UpdateDispatcher, dedupe UpdateDeduper, secret string, log *zap.Logger) *TelegramHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramHandler{
		dispatcher: dispatcher,
		dedupe:     dedupe,
		secret:     secret,
		log:        log,
	}
}

// Webhook receives updates pushed by Telegram. Redelivered update ids are
// acknowledged without being dispatched again.
func (h *TelegramHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			httperrors.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook secret")
			return
		}
	}
	if h.dispatcher == nil {
		writeInternal(w, "BOT_UNAVAILABLE", "bot dispatcher is unavailable")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "INVALID_JSON", "update must be valid json")
		return
	}

	if h.dedupe != nil {
		first, err := h.dedupe.MarkSeen(r.Context(), update.UpdateID)
		if err != nil {
			h.log.Warn("telegram update dedupe failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
		} else if !first {
			h.log.Debug("duplicate telegram update skipped", zap.Int("update_id", update.UpdateID))
			httperrors.Write(w, http.StatusOK, okResponse{OK: true})
			return
		}
	}

	h.dispatcher.Dispatch(r.Context(), update)
	httperrors.Write(w, http.StatusOK, okResponse{OK: true})
}
