package model

import "time"

type Photo struct {
	ID          int64     `json:"id"`
	ChatID      int64     `json:"chat_id"`
	Position    int       `json:"position"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoredObject is an uploaded object that still needs a database row.
type StoredObject struct {
	ObjectKey   string
	ContentType string
}
