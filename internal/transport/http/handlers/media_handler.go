package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/rules"
	mediasvc "github.com/Sardor018/Dating-bot-backend/internal/services/media"
	ratesvc "github.com/Sardor018/Dating-bot-backend/internal/services/rate"
	"github.com/Sardor018/Dating-bot-backend/internal/transport/http/dto"
	httperrors "github.com/Sardor018/Dating-bot-backend/internal/transport/http/errors"
)

const defaultMaxUploadSize = 20 << 20 // 20 MiB

type MediaHandler struct {
	service        *mediasvc.Service
	maxUploadBytes int64
}

func NewMediaHandler(service *mediasvc.Service, maxUploadBytes int64) *MediaHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadSize
	}
	return &MediaHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Photos accepts multipart fields chat_id, photos (repeated, up to three) and
// agreement.
func (h *MediaHandler) Photos(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	chatID, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	headers := r.MultipartForm.File["photos"]
	if len(headers) == 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "at least one photo is required")
		return
	}
	if len(headers) > rules.MaxPhotosPerUpload {
		writeBadRequest(w, "TOO_MANY_PHOTOS", fmt.Sprintf("at most %d photos per upload", rules.MaxPhotosPerUpload))
		return
	}

	agreement := false
	if raw := strings.TrimSpace(r.FormValue("agreement")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "agreement must be a boolean")
			return
		}
		agreement = v
	}

	uploads := make([]mediasvc.Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "failed to read uploaded file")
			return
		}
		uploads = append(uploads, upload)
	}

	result, err := h.service.UploadPhotos(r.Context(), chatID, uploads, agreement)
	if err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PhotosUploadResponse{
		Items:             mapPhotos(result.Photos),
		AgreementAccepted: result.AgreementAccepted,
		IsProfileComplete: result.IsProfileComplete,
	})
}

func (h *MediaHandler) Selfie(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	chatID, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	headers := r.MultipartForm.File["selfie"]
	if len(headers) != 1 {
		writeBadRequest(w, "VALIDATION_ERROR", "exactly one selfie is required")
		return
	}
	upload, err := readUpload(headers[0])
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "failed to read uploaded file")
		return
	}

	user, err := h.service.UploadSelfie(r.Context(), chatID, upload)
	if err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SelfieUploadResponse{
		IsVerified:        user.IsVerified,
		IsProfileComplete: user.IsProfileComplete,
	})
}

func (h *MediaHandler) parseForm(w http.ResponseWriter, r *http.Request) (int64, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.WriteError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload is too large")
			return 0, false
		}
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return 0, false
	}

	chatID, ok := parseChatID(r.FormValue("chat_id"))
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "chat_id must be a positive integer")
		return 0, false
	}
	if !authorizeChatID(w, r, chatID) {
		return 0, false
	}
	return chatID, true
}

func readUpload(header *multipart.FileHeader) (mediasvc.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return mediasvc.Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return mediasvc.Upload{}, err
	}

	return mediasvc.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func mapPhotos(photos []model.Photo) []dto.MediaPhotoResponse {
	items := make([]dto.MediaPhotoResponse, 0, len(photos))
	for _, photo := range photos {
		items = append(items, dto.MediaPhotoResponse{
			ID:       photo.ID,
			Position: photo.Position,
			URL:      photo.URL,
		})
	}
	return items
}

func handleMediaError(w http.ResponseWriter, err error) {
	if tooFast, ok := ratesvc.IsTooFast(err); ok {
		writeTooFast(w, tooFast)
		return
	}

	switch {
	case errors.Is(err, mediasvc.ErrUserNotFound):
		writeUserNotFound(w)
	case errors.Is(err, mediasvc.ErrAlreadyVerified):
		writeConflict(w, "ALREADY_VERIFIED", "selfie has already been accepted")
	case errors.Is(err, mediasvc.ErrInvalidImage):
		writeBadRequest(w, "INVALID_IMAGE", "only images are allowed")
	case errors.Is(err, mediasvc.ErrTooManyPhotos):
		writeBadRequest(w, "TOO_MANY_PHOTOS", fmt.Sprintf("at most %d photos per upload", rules.MaxPhotosPerUpload))
	case errors.Is(err, mediasvc.ErrPhotoLimitReached):
		writeBadRequest(w, "PHOTO_LIMIT_REACHED", fmt.Sprintf("maximum %d photos allowed", rules.MaxPhotos))
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid media request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "media operation failed")
	}
}
