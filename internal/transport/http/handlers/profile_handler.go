package handlers

import (
	"errors"
	"net/http"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/rules"
	profilesvc "github.com/Sardor018/Dating-bot-backend/internal/services/profiles"
	"github.com/Sardor018/Dating-bot-backend/internal/transport/http/dto"
	httperrors "github.com/Sardor018/Dating-bot-backend/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.UpdateProfileRequest
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

	user, err := h.service.UpdateProfile(r.Context(), req.ChatID, profilesvc.Patch{
		Name:          req.Name,
		Instagram:     req.Instagram,
		Bio:           req.Bio,
		Country:       req.Country,
		City:          req.City,
		BirthDate:     req.BirthDate,
		Gender:        req.Gender,
		MinPartnerAge: req.MinPartnerAge,
	})
	if err != nil {
		handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UpdateProfileResponse{
		ChatID:            user.ChatID,
		IsProfileComplete: user.IsProfileComplete,
		IsVerified:        user.IsVerified,
		Missing:           nonNilStrings(rules.EvaluateProfile(user).Missing),
	})
}

func handleProfileError(w http.ResponseWriter, err error) {
	var fieldErr profilesvc.FieldError
	switch {
	case errors.Is(err, profilesvc.ErrAgeRejected):
		writeBadRequest(w, "AGE_RESTRICTED", "users must be at least 18 years old")
	case errors.As(err, &fieldErr):
		writeBadRequest(w, "VALIDATION_ERROR", fieldErr.Error())
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid profile request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to save profile")
	}
}
