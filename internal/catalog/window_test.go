package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/sproutbook/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestChapterWindow_BornMonths(t *testing.T) {
	ref := date(2026, time.January, 1)

	m1, ok := ChapterByID("chapter_month_1")
	require.True(t, ok)
	start, end := ChapterWindow(ref, m1)
	assert.Equal(t, date(2026, time.January, 1), start)
	assert.Equal(t, date(2026, time.January, 29), end)

	m2, ok := ChapterByID("chapter_month_2")
	require.True(t, ok)
	start, end = ChapterWindow(ref, m2)
	assert.Equal(t, date(2026, time.January, 29), start)
	assert.Equal(t, date(2026, time.February, 26), end)
}

func TestChapterWindow_PregnancyWeeks(t *testing.T) {
	edd := date(2026, time.June, 5)

	w40, ok := ChapterByID("pregnancy_week_40")
	require.True(t, ok)
	start, end := ChapterWindow(edd, w40)
	assert.Equal(t, edd.AddDate(0, 0, -7), start)
	assert.Equal(t, edd, end, "week 40 should end exactly on the due date")

	w1, ok := ChapterByID("pregnancy_week_1")
	require.True(t, ok)
	start, _ = ChapterWindow(edd, w1)
	assert.Equal(t, edd.AddDate(0, 0, -40*7), start)
}

// Every chapter's window must begin exactly where the previous one ends, for
// both regimes, so no date between the first start and the last end falls
// outside every chapter.
func TestChapterWindows_Contiguous(t *testing.T) {
	ref := date(2026, time.March, 15)

	for _, mode := range []models.Mode{models.ModeBorn, models.ModePregnant} {
		templates := Chapters(mode)
		require.NotEmpty(t, templates)

		for i := 1; i < len(templates); i++ {
			_, prevEnd := ChapterWindow(ref, templates[i-1])
			start, _ := ChapterWindow(ref, templates[i])
			assert.Equal(t, prevEnd, start,
				"%s: %s should start where %s ends", mode, templates[i].ID, templates[i-1].ID)
		}
	}
}

func TestChapterWindow_DSTImmunity(t *testing.T) {
	// A reference date just before a DST transition; day-based math must
	// still yield exact 28-day windows.
	ref := time.Date(2026, time.March, 7, 15, 30, 0, 0, time.UTC)

	m1, ok := ChapterByID("chapter_month_1")
	require.True(t, ok)
	start, end := ChapterWindow(ref, m1)
	assert.Equal(t, date(2026, time.March, 7), start, "windows are computed from midnight UTC")
	assert.Equal(t, 28*24*time.Hour, end.Sub(start))
}

func TestMilestoneExpectedDate_BornMidpoint(t *testing.T) {
	birthdate := date(2026, time.January, 1)

	latch, ok := MilestoneByID("first_latch")
	require.True(t, ok)

	expected, ok := MilestoneExpectedDate(birthdate, models.ModeBorn, latch)
	require.True(t, ok)
	assert.Equal(t, date(2026, time.January, 4), expected,
		"0-1 week window resolves to the midpoint, 3 days after birth")
}

func TestMilestoneExpectedDate_Pregnancy(t *testing.T) {
	edd := date(2026, time.June, 5)

	scan, ok := MilestoneByID("anatomy_scan")
	require.True(t, ok)

	expected, ok := MilestoneExpectedDate(edd, models.ModePregnant, scan)
	require.True(t, ok)
	assert.Equal(t, edd.AddDate(0, 0, -(40-18)*7), expected)
}

func TestMilestoneExpectedDate_ModeMismatch(t *testing.T) {
	ref := date(2026, time.January, 1)

	latch, ok := MilestoneByID("first_latch")
	require.True(t, ok)
	_, ok = MilestoneExpectedDate(ref, models.ModePregnant, latch)
	assert.False(t, ok, "born template must not resolve in pregnant mode")

	scan, ok := MilestoneByID("anatomy_scan")
	require.True(t, ok)
	_, ok = MilestoneExpectedDate(ref, models.ModeBorn, scan)
	assert.False(t, ok, "pregnancy template must not resolve in born mode")
}
