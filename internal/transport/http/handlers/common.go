package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	authsvc "github.com/Sardor018/Dating-bot-backend/internal/services/auth"
	ratesvc "github.com/Sardor018/Dating-bot-backend/internal/services/rate"
	httperrors "github.com/Sardor018/Dating-bot-backend/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusBadRequest, code, message)
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusForbidden, code, message)
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusNotFound, code, message)
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusConflict, code, message)
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.WriteError(w, http.StatusInternalServerError, code, message)
}

func writeUserNotFound(w http.ResponseWriter) {
	writeNotFound(w, "USER_NOT_FOUND", "user not found")
}

func writeTooFast(w http.ResponseWriter, tooFast *ratesvc.TooFastError) {
	retryAfter := tooFast.RetryAfter()
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	httperrors.Write(w, http.StatusTooManyRequests, httperrors.APIError{
		Code:          "TOO_FAST",
		Message:       "too many requests, slow down",
		RetryAfterSec: retryAfter,
	})
}

func parseChatID(raw string) (int64, bool) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || chatID <= 0 {
		return 0, false
	}
	return chatID, true
}

// authorizeChatID rejects requests acting on behalf of another Telegram user.
// Without a verified identity in the context every chat id is accepted.
func authorizeChatID(w http.ResponseWriter, r *http.Request, chatID int64) bool {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok || identity.ChatID == chatID {
		return true
	}
	writeForbidden(w, "FORBIDDEN", "chat_id does not match the authenticated user")
	return false
}

func parseIntOrDefault(raw string, fallback int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
