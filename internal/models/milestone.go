package models

import "time"

type MilestoneStatus string

const (
	MilestoneStatusPending  MilestoneStatus = "pending"  // expected, no record linked yet
	MilestoneStatusFilled   MilestoneStatus = "filled"   // a user record is linked
	MilestoneStatusArchived MilestoneStatus = "archived" // soft-deleted via the archival manager
)

// MilestoneInstance is a per-profile expected event derived from a static
// milestone template. At most one non-archived instance exists per
// (profile, template) pair.
type MilestoneInstance struct {
	ID           string          `json:"id"`
	ProfileID    string          `json:"profile_id"`
	ChapterID    string          `json:"chapter_id,omitempty"`
	TemplateID   string          `json:"template_id"`
	RecordID     string          `json:"record_id,omitempty"`
	ExpectedDate time.Time       `json:"expected_date"`
	FilledDate   *time.Time      `json:"filled_date,omitempty"`
	Status       MilestoneStatus `json:"status"`
}

// IsArchived reports whether the instance has been archived.
func (m MilestoneInstance) IsArchived() bool {
	return m.Status == MilestoneStatusArchived
}

// RestoredStatus returns the status an archived instance goes back to when
// unarchived: filled when a record is still linked, pending otherwise.
func (m MilestoneInstance) RestoredStatus() MilestoneStatus {
	if m.RecordID != "" {
		return MilestoneStatusFilled
	}
	return MilestoneStatusPending
}
