package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/enums"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/rules"
	"github.com/Sardor018/Dating-bot-backend/internal/pkg/validate"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrAgeRejected = fmt.Errorf("%w: age below %d", ErrValidation, rules.MinAge)
)

const (
	maxNameRunes    = 64
	maxBioRunes     = 500
	maxCountryRunes = 64
	maxCityRunes    = 64
)

// FieldError names the offending field. It matches ErrValidation with
// errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e FieldError) Is(target error) bool {
	return target == ErrValidation
}

type Store interface {
	Mutate(ctx context.Context, chatID int64, create bool, fn func(*model.User) error) (model.User, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

// Patch carries only the fields the client submitted. Nil means "keep".
type Patch struct {
	Name          *string
	Instagram     *string
	Bio           *string
	Country       *string
	City          *string
	BirthDate     *string
	Gender        *string
	MinPartnerAge *int
}

type normalizedPatch struct {
	Patch
	birthDate *time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// UpdateProfile validates the patch, then applies it and re-evaluates
// completeness in one store transaction. The user row is created on first
// write.
func (s *Service) UpdateProfile(ctx context.Context, chatID int64, patch Patch) (model.User, error) {
	if chatID <= 0 {
		return model.User{}, fmt.Errorf("invalid chat id: %w", ErrValidation)
	}
	if s.store == nil {
		return model.User{}, fmt.Errorf("profile store is nil")
	}

	normalized, err := normalizePatch(s.now(), patch)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.store.Mutate(ctx, chatID, true, func(u *model.User) error {
		applyPatch(u, normalized)
		rules.ApplyDerivedFlags(u)
		return nil
	})
	if err != nil {
		return model.User{}, fmt.Errorf("save profile: %w", err)
	}

	return user, nil
}

func normalizePatch(now time.Time, in Patch) (normalizedPatch, error) {
	out := normalizedPatch{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if !validate.Required(name) {
			return normalizedPatch{}, FieldError{Field: rules.FieldName, Reason: "must not be empty"}
		}
		if !validate.MaxRunes(name, maxNameRunes) {
			return normalizedPatch{}, FieldError{Field: rules.FieldName, Reason: "too long"}
		}
		out.Name = &name
	}

	if in.Country != nil {
		country := strings.TrimSpace(*in.Country)
		if !validate.Required(country) {
			return normalizedPatch{}, FieldError{Field: rules.FieldCountry, Reason: "must not be empty"}
		}
		if !validate.MaxRunes(country, maxCountryRunes) {
			return normalizedPatch{}, FieldError{Field: rules.FieldCountry, Reason: "too long"}
		}
		out.Country = &country
	}

	if in.BirthDate != nil {
		check := rules.CheckBirthDate(*in.BirthDate, now)
		switch check.Problem {
		case rules.BirthDateOK:
			date := check.Date
			out.birthDate = &date
		case rules.BirthDateUnderage:
			return normalizedPatch{}, ErrAgeRejected
		case rules.BirthDateInFuture:
			return normalizedPatch{}, FieldError{Field: rules.FieldBirthDate, Reason: "is in the future"}
		default:
			return normalizedPatch{}, FieldError{Field: rules.FieldBirthDate, Reason: "must be YYYY-MM-DD"}
		}
	}

	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if !validate.MaxRunes(bio, maxBioRunes) {
			return normalizedPatch{}, FieldError{Field: "bio", Reason: "too long"}
		}
		out.Bio = &bio
	}

	if in.City != nil {
		city := strings.TrimSpace(*in.City)
		if !validate.MaxRunes(city, maxCityRunes) {
			return normalizedPatch{}, FieldError{Field: "city", Reason: "too long"}
		}
		out.City = &city
	}

	if in.Instagram != nil {
		handle, ok := validate.InstagramHandle(*in.Instagram)
		if !ok {
			return normalizedPatch{}, FieldError{Field: "instagram", Reason: "invalid handle"}
		}
		out.Instagram = &handle
	}

	if in.Gender != nil {
		gender := strings.ToLower(strings.TrimSpace(*in.Gender))
		if gender != "" && !enums.Gender(gender).Valid() {
			return normalizedPatch{}, FieldError{Field: "gender", Reason: "unsupported value"}
		}
		out.Gender = &gender
	}

	if in.MinPartnerAge != nil {
		age := *in.MinPartnerAge
		if age < rules.MinAge || age > rules.MaxPartnerAge {
			return normalizedPatch{}, FieldError{Field: "min_partner_age", Reason: fmt.Sprintf("must be between %d and %d", rules.MinAge, rules.MaxPartnerAge)}
		}
		out.MinPartnerAge = &age
	}

	return out, nil
}

func applyPatch(u *model.User, p normalizedPatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Country != nil {
		u.Country = *p.Country
	}
	if p.birthDate != nil {
		date := *p.birthDate
		u.BirthDate = &date
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Instagram != nil {
		u.Instagram = *p.Instagram
	}
	if p.Gender != nil {
		u.Gender = enums.Gender(*p.Gender)
	}
	if p.MinPartnerAge != nil {
		age := *p.MinPartnerAge
		u.MinPartnerAge = &age
	}
}
