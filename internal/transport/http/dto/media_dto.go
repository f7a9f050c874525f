package dto

type MediaPhotoResponse struct {
	ID       int64  `json:"id"`
	Position int    `json:"position"`
	URL      string `json:"url"`
}

type PhotosUploadResponse struct {
	Items             []MediaPhotoResponse `json:"items"`
	AgreementAccepted bool                 `json:"agreement_accepted"`
	IsProfileComplete bool                 `json:"is_profile_complete"`
}

type SelfieUploadResponse struct {
	IsVerified        bool `json:"is_verified"`
	IsProfileComplete bool `json:"is_profile_complete"`
}
