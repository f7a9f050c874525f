package model

import (
	"time"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/enums"
)

// User is a participant identified by the Telegram chat id. Photos live in a
// separate table; PhotoCount mirrors how many are stored.
type User struct {
	ChatID              int64          `json:"chat_id"`
	Language            enums.Language `json:"language"`
	Name                string         `json:"name"`
	Instagram           string         `json:"instagram"`
	Bio                 string         `json:"bio"`
	Country             string         `json:"country"`
	City                string         `json:"city"`
	BirthDate           *time.Time     `json:"birth_date,omitempty"`
	Gender              enums.Gender   `json:"gender"`
	MinPartnerAge       *int           `json:"min_partner_age,omitempty"`
	IsProfileComplete   bool           `json:"is_profile_complete"`
	IsVerified          bool           `json:"is_verified"`
	AgreementAccepted   bool           `json:"agreement_accepted"`
	AgreementAcceptedAt *time.Time     `json:"agreement_accepted_at,omitempty"`
	SelfieKey           string         `json:"-"`
	PhotoCount          int            `json:"photo_count"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}
