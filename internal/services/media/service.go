package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/enums"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/rules"
	ratesvc "github.com/Sardor018/Dating-bot-backend/internal/services/rate"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyVerified   = errors.New("selfie already accepted")
	ErrInvalidImage      = fmt.Errorf("%w: file is not a supported image", ErrValidation)
	ErrTooManyPhotos     = fmt.Errorf("%w: too many photos in one upload", ErrValidation)
	ErrPhotoLimitReached = fmt.Errorf("%w: photo limit reached", ErrValidation)
)

const (
	defaultSignedURLTTL = 5 * time.Minute
	defaultMaxDimension = 1600
	defaultJPEGQuality  = 85
)

type Store interface {
	AddPhotos(ctx context.Context, chatID int64, objects []model.StoredObject, limit int, acceptAgreement bool, at time.Time) (model.User, []model.Photo, error)
	SetSelfie(ctx context.Context, chatID int64, objectKey string) (model.User, error)
	ListPhotos(ctx context.Context, chatID int64) ([]model.Photo, error)
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Limiter interface {
	Allow(ctx context.Context, chatID int64) (int64, bool, error)
}

type Config struct {
	MaxDimension int
	JPEGQuality  int
	SignedURLTTL time.Duration
}

type Service struct {
	store   Store
	storage ObjectStorage
	limiter Limiter
	cfg     Config
	now     func() time.Time
	newKey  func(chatID int64, kind enums.MediaKind) string
}

// Upload is one file received from the client, already read into memory.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type UploadResult struct {
	Photos            []model.Photo
	IsProfileComplete bool
	AgreementAccepted bool
}

func NewService(store Store, storage ObjectStorage, limiter Limiter, cfg Config) *Service {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = defaultMaxDimension
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = defaultJPEGQuality
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = defaultSignedURLTTL
	}

	return &Service{
		store:   store,
		storage: storage,
		limiter: limiter,
		cfg:     cfg,
		now:     time.Now,
		newKey:  buildObjectKey,
	}
}

// UploadPhotos stores up to three photos for chatID. Either every photo and
// the agreement flag are persisted, or none are and uploaded objects are
// removed again.
func (s *Service) UploadPhotos(ctx context.Context, chatID int64, files []Upload, acceptAgreement bool) (UploadResult, error) {
	if chatID <= 0 || len(files) == 0 {
		return UploadResult{}, ErrValidation
	}
	if len(files) > rules.MaxPhotosPerUpload {
		return UploadResult{}, ErrTooManyPhotos
	}
	if s.store == nil || s.storage == nil {
		return UploadResult{}, fmt.Errorf("media dependencies are not configured")
	}
	if err := s.checkRate(ctx, chatID); err != nil {
		return UploadResult{}, err
	}

	encoded := make([][]byte, 0, len(files))
	for _, file := range files {
		data, err := s.normalize(file)
		if err != nil {
			return UploadResult{}, err
		}
		encoded = append(encoded, data)
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return UploadResult{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objects := make([]model.StoredObject, 0, len(encoded))
	for _, data := range encoded {
		key := s.newKey(chatID, enums.MediaKindPhoto)
		if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), jpegContentType); err != nil {
			s.cleanup(ctx, objects)
			return UploadResult{}, fmt.Errorf("put object: %w", err)
		}
		objects = append(objects, model.StoredObject{ObjectKey: key, ContentType: jpegContentType})
	}

	user, photos, err := s.store.AddPhotos(ctx, chatID, objects, rules.MaxPhotos, acceptAgreement, s.now().UTC())
	if err != nil {
		s.cleanup(ctx, objects)
		switch {
		case errors.Is(err, ErrUserNotFound):
			return UploadResult{}, ErrUserNotFound
		case errors.Is(err, ErrPhotoLimitReached):
			return UploadResult{}, ErrPhotoLimitReached
		default:
			return UploadResult{}, fmt.Errorf("store photos: %w", err)
		}
	}

	if err := s.sign(ctx, photos); err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		Photos:            photos,
		IsProfileComplete: user.IsProfileComplete,
		AgreementAccepted: user.AgreementAccepted,
	}, nil
}

// UploadSelfie stores the verification selfie and marks the user verified.
// Only one selfie is ever accepted.
func (s *Service) UploadSelfie(ctx context.Context, chatID int64, file Upload) (model.User, error) {
	if chatID <= 0 {
		return model.User{}, ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return model.User{}, fmt.Errorf("media dependencies are not configured")
	}
	if err := s.checkRate(ctx, chatID); err != nil {
		return model.User{}, err
	}

	data, err := s.normalize(file)
	if err != nil {
		return model.User{}, err
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return model.User{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key := s.newKey(chatID, enums.MediaKindSelfie)
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), jpegContentType); err != nil {
		return model.User{}, fmt.Errorf("put object: %w", err)
	}

	user, err := s.store.SetSelfie(ctx, chatID, key)
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		switch {
		case errors.Is(err, ErrUserNotFound):
			return model.User{}, ErrUserNotFound
		case errors.Is(err, ErrAlreadyVerified):
			return model.User{}, ErrAlreadyVerified
		default:
			return model.User{}, fmt.Errorf("store selfie: %w", err)
		}
	}

	return user, nil
}

func (s *Service) ListPhotos(ctx context.Context, chatID int64) ([]model.Photo, error) {
	if chatID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return nil, fmt.Errorf("media dependencies are not configured")
	}

	photos, err := s.store.ListPhotos(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	if err := s.sign(ctx, photos); err != nil {
		return nil, err
	}

	return photos, nil
}

func (s *Service) checkRate(ctx context.Context, chatID int64) error {
	if s.limiter == nil {
		return nil
	}
	retryAfter, allowed, err := s.limiter.Allow(ctx, chatID)
	if err != nil {
		return fmt.Errorf("check upload rate: %w", err)
	}
	if !allowed {
		return ratesvc.TooFastError{RetryAfterSec: retryAfter}
	}
	return nil
}

func (s *Service) sign(ctx context.Context, photos []model.Photo) error {
	for i := range photos {
		url, err := s.storage.PresignGet(ctx, photos[i].ObjectKey, s.cfg.SignedURLTTL)
		if err != nil {
			return fmt.Errorf("presign photo url: %w", err)
		}
		photos[i].URL = url
	}
	return nil
}

func (s *Service) cleanup(ctx context.Context, objects []model.StoredObject) {
	for _, obj := range objects {
		_ = s.storage.Delete(ctx, obj.ObjectKey)
	}
}

func buildObjectKey(chatID int64, kind enums.MediaKind) string {
	folder := "photos"
	if kind == enums.MediaKindSelfie {
		folder = "selfie"
	}
	return fmt.Sprintf("users/%d/%s/%s.jpg", chatID, folder, uuid.NewString())
}
