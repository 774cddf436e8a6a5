package catalog

import (
	"time"

	"github.com/julianstephens/sproutbook/internal/models"
)

// DateOnly truncates a time to midnight UTC. All window math is done on
// calendar days via AddDate so windows stay contiguous across daylight-saving
// transitions.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ChapterWindow computes the concrete [start, end) window for a template
// against a reference date.
func ChapterWindow(ref time.Time, t ChapterTemplate) (time.Time, time.Time) {
	day := DateOnly(ref)
	return day.AddDate(0, 0, t.StartWeekOffset*7), day.AddDate(0, 0, t.EndWeekOffset*7)
}

// MilestoneExpectedDate computes the single expected instant for a milestone
// template. Born templates resolve to the midpoint of their age window;
// pregnancy templates count back from the due date (gestation week 40). The
// second return value is false when the template's window type does not match
// the profile's mode.
func MilestoneExpectedDate(ref time.Time, mode models.Mode, t MilestoneTemplate) (time.Time, bool) {
	if !t.AppliesTo(mode) {
		return time.Time{}, false
	}
	day := DateOnly(ref)
	switch mode {
	case models.ModeBorn:
		return day.AddDate(0, 0, (t.WeeksMin+t.WeeksMax)*7/2), true
	case models.ModePregnant:
		return day.AddDate(0, 0, -(40-t.WeeksMin)*7), true
	}
	return time.Time{}, false
}
