// Package vault manages time-locked memory vaults. A vault unlocks once the
// child reaches its target age; unlock dates share the timeline's reference
// date and are recalculated whenever it changes.
package vault

import (
	"fmt"
	"time"

	"github.com/julianstephens/sproutbook/internal/catalog"
	"github.com/julianstephens/sproutbook/internal/logger"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage"
)

// Clock abstracts time.Now() to allow deterministic testing.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type Scheduler struct {
	store storage.Provider
	clock Clock
}

func NewScheduler(store storage.Provider) *Scheduler {
	return &Scheduler{store: store, clock: RealClock{}}
}

// NewSchedulerWithClock is used by tests to control "now".
func NewSchedulerWithClock(store storage.Provider, clock Clock) *Scheduler {
	return &Scheduler{store: store, clock: clock}
}

// Recalculate recomputes every vault's unlock date from the reference date
// and flips lock status where the unlock date has passed. Returns the number
// of vaults updated.
func (s *Scheduler) Recalculate(profileID string, ref time.Time) (int, error) {
	vaults, err := s.store.GetVaults(profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load vaults: %w", err)
	}

	updated := 0
	for _, v := range vaults {
		unlock := catalog.DateOnly(ref).AddDate(v.TargetAgeYears, 0, 0)
		status := statusFor(unlock, s.clock.Now())

		if v.UnlockDate != nil && v.UnlockDate.Equal(unlock) && v.Status == status {
			continue
		}
		v.UnlockDate = &unlock
		v.Status = status
		if err := s.store.UpdateVault(v); err != nil {
			return updated, fmt.Errorf("failed to update vault %s: %w", v.ID, err)
		}
		updated++
	}

	if updated > 0 {
		logger.Info("recalculated vault unlock dates", "profile", profileID, "updated", updated)
	}
	return updated, nil
}

// RefreshStatuses flips the status of vaults whose stored unlock date has
// passed, without recomputing dates. Intended for app-resume hooks.
func (s *Scheduler) RefreshStatuses(profileID string) (int, error) {
	vaults, err := s.store.GetVaults(profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load vaults: %w", err)
	}

	updated := 0
	for _, v := range vaults {
		if v.UnlockDate == nil {
			continue
		}
		status := statusFor(*v.UnlockDate, s.clock.Now())
		if v.Status == status {
			continue
		}
		v.Status = status
		if err := s.store.UpdateVault(v); err != nil {
			return updated, fmt.Errorf("failed to update vault %s: %w", v.ID, err)
		}
		updated++
	}
	return updated, nil
}

func statusFor(unlock, now time.Time) models.VaultStatus {
	if !catalog.DateOnly(now).Before(unlock) {
		return models.VaultStatusUnlocked
	}
	return models.VaultStatusLocked
}
