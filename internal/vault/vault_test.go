package vault

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setupVaults(t *testing.T, ages ...int) *storage.JSONStore {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	require.NoError(t, store.Init())
	for i, age := range ages {
		require.NoError(t, store.AddVault(models.Vault{
			ID:             string(rune('a' + i)),
			ProfileID:      "p1",
			TargetAgeYears: age,
			Status:         models.VaultStatusLocked,
		}))
	}
	return store
}

func TestRecalculate_SetsUnlockDates(t *testing.T) {
	store := setupVaults(t, 5, 18)
	s := NewSchedulerWithClock(store, fixedClock{now: date(2026, time.June, 1)})

	birthdate := date(2026, time.January, 1)
	n, err := s.Recalculate("p1", birthdate)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	vaults, err := store.GetVaults("p1")
	require.NoError(t, err)
	require.Len(t, vaults, 2)

	assert.Equal(t, date(2031, time.January, 1), *vaults[0].UnlockDate)
	assert.Equal(t, models.VaultStatusLocked, vaults[0].Status)
	assert.Equal(t, date(2044, time.January, 1), *vaults[1].UnlockDate)
}

func TestRecalculate_TracksReferenceDateChanges(t *testing.T) {
	store := setupVaults(t, 5)
	s := NewSchedulerWithClock(store, fixedClock{now: date(2026, time.June, 1)})

	_, err := s.Recalculate("p1", date(2026, time.June, 5))
	require.NoError(t, err)

	// Birth came early; unlock dates follow the new reference date.
	_, err = s.Recalculate("p1", date(2026, time.June, 2))
	require.NoError(t, err)

	vaults, err := store.GetVaults("p1")
	require.NoError(t, err)
	assert.Equal(t, date(2031, time.June, 2), *vaults[0].UnlockDate)
}

func TestRecalculate_NoChangesWritesNothing(t *testing.T) {
	store := setupVaults(t, 5)
	s := NewSchedulerWithClock(store, fixedClock{now: date(2026, time.June, 1)})

	ref := date(2026, time.January, 1)
	_, err := s.Recalculate("p1", ref)
	require.NoError(t, err)

	n, err := s.Recalculate("p1", ref)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRefreshStatuses_UnlocksPassedVaults(t *testing.T) {
	store := setupVaults(t, 1)
	birthdate := date(2026, time.January, 1)

	before := NewSchedulerWithClock(store, fixedClock{now: date(2026, time.June, 1)})
	_, err := before.Recalculate("p1", birthdate)
	require.NoError(t, err)

	vaults, err := store.GetVaults("p1")
	require.NoError(t, err)
	require.Equal(t, models.VaultStatusLocked, vaults[0].Status)

	// A year later the same vault reads as unlocked.
	after := NewSchedulerWithClock(store, fixedClock{now: date(2027, time.January, 1)})
	n, err := after.RefreshStatuses("p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	vaults, err = store.GetVaults("p1")
	require.NoError(t, err)
	assert.Equal(t, models.VaultStatusUnlocked, vaults[0].Status)
}
