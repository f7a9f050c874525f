package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/enums"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/rules"
)

const defaultSignedURLTTL = 5 * time.Minute

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

type Store interface {
	Get(ctx context.Context, chatID int64) (model.User, error)
	Mutate(ctx context.Context, chatID int64, create bool, fn func(*model.User) error) (model.User, error)
}

type PhotoStore interface {
	ListPhotos(ctx context.Context, chatID int64) ([]model.Photo, error)
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	store  Store
	photos PhotoStore
	signer URLSigner
	ttl    time.Duration
	now    func() time.Time
}

type Status struct {
	Exists            bool `json:"exists"`
	IsProfileComplete bool `json:"is_profile_complete"`
	IsVerified        bool `json:"is_verified"`
}

type Profile struct {
	User      model.User
	Age       int
	Photos    []model.Photo
	HasSelfie bool
	Missing   []string
}

func NewService(store Store, photos PhotoStore, signer URLSigner, signedURLTTL time.Duration) *Service {
	if signedURLTTL <= 0 {
		signedURLTTL = defaultSignedURLTTL
	}
	return &Service{
		store:  store,
		photos: photos,
		signer: signer,
		ttl:    signedURLTTL,
		now:    time.Now,
	}
}

// CheckUser reports whether chatID is registered. An unknown user is not an
// error.
func (s *Service) CheckUser(ctx context.Context, chatID int64) (Status, error) {
	if chatID <= 0 {
		return Status{}, ErrValidation
	}
	if s.store == nil {
		return Status{}, fmt.Errorf("user store is nil")
	}

	user, err := s.store.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("get user: %w", err)
	}

	return Status{
		Exists:            true,
		IsProfileComplete: user.IsProfileComplete,
		IsVerified:        user.IsVerified,
	}, nil
}

// SetLanguage records the UI language and creates the user on first contact.
func (s *Service) SetLanguage(ctx context.Context, chatID int64, language string) (model.User, error) {
	if chatID <= 0 {
		return model.User{}, ErrValidation
	}
	lang := enums.Language(strings.ToLower(strings.TrimSpace(language)))
	if !lang.Supported() {
		return model.User{}, fmt.Errorf("unsupported language %q: %w", language, ErrValidation)
	}
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	user, err := s.store.Mutate(ctx, chatID, true, func(u *model.User) error {
		u.Language = lang
		return nil
	})
	if err != nil {
		return model.User{}, fmt.Errorf("save language: %w", err)
	}

	return user, nil
}

func (s *Service) GetProfile(ctx context.Context, chatID int64) (Profile, error) {
	if chatID <= 0 {
		return Profile{}, ErrValidation
	}
	if s.store == nil {
		return Profile{}, fmt.Errorf("user store is nil")
	}

	user, err := s.store.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get user: %w", err)
	}

	profile := Profile{
		User:      user,
		HasSelfie: user.SelfieKey != "",
		Missing:   rules.EvaluateProfile(user).Missing,
	}
	if user.BirthDate != nil {
		profile.Age = rules.AgeYears(*user.BirthDate, s.now())
	}

	if s.photos == nil {
		return profile, nil
	}
	photos, err := s.photos.ListPhotos(ctx, chatID)
	if err != nil {
		return Profile{}, fmt.Errorf("list photos: %w", err)
	}
	if s.signer != nil {
		for i := range photos {
			url, err := s.signer.PresignGet(ctx, photos[i].ObjectKey, s.ttl)
			if err != nil {
				return Profile{}, fmt.Errorf("presign photo url: %w", err)
			}
			photos[i].URL = url
		}
	}
	profile.Photos = photos

	return profile, nil
}
