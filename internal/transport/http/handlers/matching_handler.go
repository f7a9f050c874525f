package handlers

import (
	"errors"
	"net/http"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	matchingsvc "github.com/Sardor018/Dating-bot-backend/internal/services/matching"
	ratesvc "github.com/Sardor018/Dating-bot-backend/internal/services/rate"
	"github.com/Sardor018/Dating-bot-backend/internal/transport/http/dto"
	httperrors "github.com/Sardor018/Dating-bot-backend/internal/transport/http/errors"
)

type MatchingHandler struct {
	service *matchingsvc.Service
}

func NewMatchingHandler(service *matchingsvc.Service) *MatchingHandler {
	return &MatchingHandler{service: service}
}

func (h *MatchingHandler) Like(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	var req dto.LikeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_JSON", "request body must be valid json")
		return
	}
	if req.ChatID <= 0 || req.TargetChatID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "chat_id and target_chat_id must be positive integers")
		return
	}
	if !authorizeChatID(w, r, req.ChatID) {
		return
	}

	result, err := h.service.RecordLike(r.Context(), req.ChatID, req.TargetChatID)
	if err != nil {
		handleMatchingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LikeResponse{Match: result.Match})
}

// Candidates lists profiles the requester may still like. limit=0 or an
// absent limit returns every candidate up to the server cap; after is an
// exclusive chat id cursor.
func (h *MatchingHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	query := r.URL.Query()
	chatID, ok := parseChatID(query.Get("chat_id"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "chat_id must be a positive integer")
		return
	}
	limit, ok := parseIntOrDefault(query.Get("limit"), 0)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "limit must be a non-negative integer")
		return
	}
	var after int64
	if raw := query.Get("after"); raw != "" {
		after, ok = parseChatID(raw)
		if !ok {
			writeBadRequest(w, "VALIDATION_ERROR", "after must be a positive integer")
			return
		}
	}
	if !authorizeChatID(w, r, chatID) {
		return
	}

	page, err := h.service.ListCandidates(r.Context(), chatID, matchingsvc.ListOptions{
		Limit: limit,
		After: after,
	})
	if err != nil {
		handleMatchingError(w, err)
		return
	}

	resp := dto.CandidatesResponse{Items: mapCandidates(page.Items)}
	if page.NextCursor > 0 {
		next := page.NextCursor
		resp.NextCursor = &next
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *MatchingHandler) Matches(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MATCHING_SERVICE_UNAVAILABLE", "matching service is unavailable")
		return
	}

	chatID, ok := parseChatID(r.URL.Query().Get("chat_id"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "chat_id must be a positive integer")
		return
	}
	if !authorizeChatID(w, r, chatID) {
		return
	}

	items, err := h.service.ListMatches(r.Context(), chatID)
	if err != nil {
		handleMatchingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Items: mapCandidates(items)})
}

func mapCandidates(items []model.Candidate) []dto.CandidateResponse {
	out := make([]dto.CandidateResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.CandidateResponse{
			ChatID: item.ChatID,
			Name:   item.Name,
			Bio:    item.Bio,
			Photo:  item.PhotoURL,
		})
	}
	return out
}

func handleMatchingError(w http.ResponseWriter, err error) {
	if tooFast, ok := ratesvc.IsTooFast(err); ok {
		writeTooFast(w, tooFast)
		return
	}

	switch {
	case errors.Is(err, matchingsvc.ErrUserNotFound):
		writeUserNotFound(w)
	case errors.Is(err, matchingsvc.ErrProfileIncomplete):
		writeBadRequest(w, "PROFILE_INCOMPLETE", "profile not completed")
	case errors.Is(err, matchingsvc.ErrSelfLike):
		writeBadRequest(w, "SELF_LIKE", "cannot like yourself")
	case errors.Is(err, matchingsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
