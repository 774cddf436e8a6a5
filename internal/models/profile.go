package models

import "time"

type Mode string

const (
	ModeBorn     Mode = "born"
	ModePregnant Mode = "pregnant"
)

// Profile is the owner of a timeline. Exactly one reference date is
// authoritative for the current mode: Birthdate for born, EstimatedDueDate
// for pregnant.
type Profile struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Mode             Mode       `json:"mode"`
	Birthdate        *time.Time `json:"birthdate,omitempty"`
	EstimatedDueDate *time.Time `json:"estimated_due_date,omitempty"`

	// Undo tracking for the last mode switch. Set by SwitchToBorn, cleared
	// by UndoSwitchToBorn (or once undo is no longer offered).
	PreviousMode   Mode       `json:"previous_mode,omitempty"`
	PreviousEDD    *time.Time `json:"previous_edd,omitempty"`
	ModeSwitchedAt *time.Time `json:"mode_switched_at,omitempty"`

	// Display-only flag, never touched by the engine.
	ShowArchivedChapters bool `json:"show_archived_chapters"`

	CreatedAt time.Time `json:"created_at"`
}

// ReferenceDate returns the date all windows and expected dates are computed
// from. The second return value is false when the profile has no reference
// date for its current mode.
func (p Profile) ReferenceDate() (time.Time, bool) {
	switch p.Mode {
	case ModeBorn:
		if p.Birthdate != nil {
			return *p.Birthdate, true
		}
	case ModePregnant:
		if p.EstimatedDueDate != nil {
			return *p.EstimatedDueDate, true
		}
	}
	return time.Time{}, false
}
