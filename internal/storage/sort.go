package storage

import (
	"sort"
	"time"

	"github.com/julianstephens/sproutbook/internal/models"
)

// Map iteration order is random; the JSON store sorts query results the same
// way the SQLite store's ORDER BY clauses do.

func sortByCreated[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).Before(created(items[j]))
	})
}

func sortByStart(chapters []models.Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		if !chapters[i].StartDate.Equal(chapters[j].StartDate) {
			return chapters[i].StartDate.Before(chapters[j].StartDate)
		}
		return chapters[i].CreatedAt.Before(chapters[j].CreatedAt)
	})
}

func sortByExpected(milestones []models.MilestoneInstance) {
	sort.SliceStable(milestones, func(i, j int) bool {
		return milestones[i].ExpectedDate.Before(milestones[j].ExpectedDate)
	})
}

func sortVaults(vaults []models.Vault) {
	sort.SliceStable(vaults, func(i, j int) bool {
		return vaults[i].TargetAgeYears < vaults[j].TargetAgeYears
	})
}
