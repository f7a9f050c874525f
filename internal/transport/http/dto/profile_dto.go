package dto

// UpdateProfileRequest fields are pointers so that omitted keys leave the
// stored value untouched.
type UpdateProfileRequest struct {
	ChatID        int64   `json:"chat_id"`
	Name          *string `json:"name"`
	Instagram     *string `json:"instagram"`
	Bio           *string `json:"bio"`
	Country       *string `json:"country"`
	City          *string `json:"city"`
	BirthDate     *string `json:"birth_date"`
	Gender        *string `json:"gender"`
	MinPartnerAge *int    `json:"min_partner_age"`
}

type UpdateProfileResponse struct {
	ChatID            int64    `json:"chat_id"`
	IsProfileComplete bool     `json:"is_profile_complete"`
	IsVerified        bool     `json:"is_verified"`
	Missing           []string `json:"missing"`
}

type ProfileResponse struct {
	ChatID            int64                `json:"chat_id"`
	Language          string               `json:"language,omitempty"`
	Name              string               `json:"name"`
	Instagram         string               `json:"instagram,omitempty"`
	Bio               string               `json:"bio"`
	Country           string               `json:"country"`
	City              string               `json:"city"`
	BirthDate         string               `json:"birth_date,omitempty"`
	Age               int                  `json:"age,omitempty"`
	Gender            string               `json:"gender,omitempty"`
	MinPartnerAge     *int                 `json:"min_partner_age,omitempty"`
	Photos            []MediaPhotoResponse `json:"photos"`
	HasSelfie         bool                 `json:"has_selfie"`
	AgreementAccepted bool                 `json:"agreement_accepted"`
	IsProfileComplete bool                 `json:"is_profile_complete"`
	IsVerified        bool                 `json:"is_verified"`
	Missing           []string             `json:"missing"`
}
