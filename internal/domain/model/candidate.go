package model

// Candidate is the minimal projection of another user shown for browsing and
// in the match list.
type Candidate struct {
	ChatID   int64  `json:"chat_id"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	PhotoKey string `json:"-"`
	PhotoURL string `json:"photo,omitempty"`
}
