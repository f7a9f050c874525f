package errors

import (
	"encoding/json"
	"net/http"
)

// APIError is the body of every non-2xx response. RetryAfterSec is only set
// on 429 responses.
type APIError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec,omitempty"`
}

func (e APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Write encodes payload as JSON. Responses carry user data, so they are never
// cached.
func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, APIError{Code: code, Message: message})
}
