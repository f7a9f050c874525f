package dto

type UserStatusResponse struct {
	Exists            bool `json:"exists"`
	IsProfileComplete bool `json:"is_profile_complete"`
	IsVerified        bool `json:"is_verified"`
}

type LanguageRequest struct {
	ChatID   int64  `json:"chat_id"`
	Language string `json:"language"`
}

type LanguageResponse struct {
	ChatID   int64  `json:"chat_id"`
	Language string `json:"language"`
}
