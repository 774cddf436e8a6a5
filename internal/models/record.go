package models

import "time"

// Record is a user-created journal entry. A record with an empty ChapterID is
// a free-floating pregnancy journal entry; the mode-switch manager moves such
// records into the synthetic "Before Birth" chapter and back.
type Record struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	ChapterID string    `json:"chapter_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
