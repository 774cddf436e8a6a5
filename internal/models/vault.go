package models

import "time"

type VaultStatus string

const (
	VaultStatusLocked   VaultStatus = "locked"
	VaultStatusUnlocked VaultStatus = "unlocked"
)

// Vault is a time-locked memory container. Its unlock date is the reference
// date plus the target age and is recalculated whenever the reference date
// changes.
type Vault struct {
	ID             string      `json:"id"`
	ProfileID      string      `json:"profile_id"`
	TargetAgeYears int         `json:"target_age_years"`
	UnlockDate     *time.Time  `json:"unlock_date,omitempty"`
	Status         VaultStatus `json:"status"`
}
