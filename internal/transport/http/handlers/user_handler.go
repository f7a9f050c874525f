package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/rules"
	userssvc "github.com/Sardor018/Dating-bot-backend/internal/services/users"
	"github.com/Sardor018/Dating-bot-backend/internal/transport/http/dto"
	httperrors "github.com/Sardor018/Dating-bot-backend/internal/transport/http/errors"
)

type UserHandler struct {
	service *userssvc.Service
}

func NewUserHandler(service *userssvc.Service) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
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

	status, err := h.service.CheckUser(r.Context(), chatID)
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UserStatusResponse{
		Exists:            status.Exists,
		IsProfileComplete: status.IsProfileComplete,
		IsVerified:        status.IsVerified,
	})
}

func (h *UserHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	var req dto.LanguageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_JSON", "request body must be valid json")
		return
	}
	if req.ChatID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "chat_id must be a positive integer")
		return
	}
	if !authorizeChatID(w, r, req.ChatID) {
		return
	}

	user, err := h.service.SetLanguage(r.Context(), req.ChatID, req.Language)
	if err != nil {
		handleUserError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LanguageResponse{
		ChatID:   user.ChatID,
		Language: string(user.Language),
	})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	chatID, ok := parseChatID(chi.URLParam(r, "chat_id"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "chat_id must be a positive integer")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), chatID)
	if err != nil {
		handleUserError(w, err)
		return
	}

	user := profile.User
	resp := dto.ProfileResponse{
		ChatID:            user.ChatID,
		Language:          string(user.Language),
		Name:              user.Name,
		Instagram:         user.Instagram,
		Bio:               user.Bio,
		Country:           user.Country,
		City:              user.City,
		Age:               profile.Age,
		Gender:            string(user.Gender),
		MinPartnerAge:     user.MinPartnerAge,
		Photos:            mapPhotos(profile.Photos),
		HasSelfie:         profile.HasSelfie,
		AgreementAccepted: user.AgreementAccepted,
		IsProfileComplete: user.IsProfileComplete,
		IsVerified:        user.IsVerified,
		Missing:           nonNilStrings(profile.Missing),
	}
	if user.BirthDate != nil {
		resp.BirthDate = user.BirthDate.Format(rules.DateLayout)
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func handleUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userssvc.ErrNotFound):
		writeUserNotFound(w)
	case errors.Is(err, userssvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
