package dto

type LikeRequest struct {
	ChatID       int64 `json:"chat_id"`
	TargetChatID int64 `json:"target_chat_id"`
}

type LikeResponse struct {
	Match bool `json:"match"`
}

type CandidateResponse struct {
	ChatID int64  `json:"chat_id"`
	Name   string `json:"name"`
	Bio    string `json:"bio"`
	Photo  string `json:"photo,omitempty"`
}

type CandidatesResponse struct {
	Items      []CandidateResponse `json:"items"`
	NextCursor *int64              `json:"next_cursor,omitempty"`
}

type MatchesResponse struct {
	Items []CandidateResponse `json:"items"`
}
