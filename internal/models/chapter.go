package models

import "time"

// Chapter is a named, date-bounded timeline segment. Template-derived
// chapters carry the TemplateID they were created from; user-created custom
// chapters have an empty TemplateID and are never touched by the rebase or
// archival logic.
type Chapter struct {
	ID          string     `json:"id"`
	ProfileID   string     `json:"profile_id"`
	TemplateID  string     `json:"template_id,omitempty"`
	Title       string     `json:"title"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// IsActive reports whether the chapter has not been archived.
func (c Chapter) IsActive() bool {
	return c.ArchivedAt == nil
}

// Contains reports whether the given date falls inside the chapter's
// [StartDate, EndDate) window. Chapters without an end date never contain.
func (c Chapter) Contains(d time.Time) bool {
	if c.EndDate == nil {
		return false
	}
	return !d.Before(c.StartDate) && d.Before(*c.EndDate)
}
