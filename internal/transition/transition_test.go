package transition

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/sproutbook/internal/catalog"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage"
	"github.com/julianstephens/sproutbook/internal/timeline"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setupPregnantProfile(t *testing.T) (*storage.JSONStore, models.Profile) {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	require.NoError(t, store.Init())

	edd := date(2026, time.June, 5)
	p := models.Profile{
		ID:               "p1",
		Name:             "Junie",
		Mode:             models.ModePregnant,
		EstimatedDueDate: &edd,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, store.SaveProfile(p))
	require.NoError(t, timeline.NewGenerator(store).Generate(p))
	return store, p
}

func TestSwitchToBorn(t *testing.T) {
	store, p := setupPregnantProfile(t)

	// A free-floating journal entry written during pregnancy.
	require.NoError(t, store.AddRecord(models.Record{
		ID: "r1", ProfileID: p.ID, Title: "Felt a kick today", CreatedAt: time.Now().UTC(),
	}))

	birthdate := date(2026, time.June, 2)
	mgr := NewManagerWithClock(store, fixedClock{now: date(2026, time.June, 3)})
	require.NoError(t, mgr.SwitchToBorn(p.ID, birthdate))

	updated, err := store.GetProfile(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModeBorn, updated.Mode)
	require.NotNil(t, updated.Birthdate)
	assert.Equal(t, birthdate, *updated.Birthdate)
	assert.Equal(t, models.ModePregnant, updated.PreviousMode)
	require.NotNil(t, updated.PreviousEDD)
	assert.Equal(t, date(2026, time.June, 5), *updated.PreviousEDD)

	// All pregnancy chapters archived, never deleted.
	chapters, err := store.GetChapters(p.ID)
	require.NoError(t, err)
	pregnancyCount, bornCount := 0, 0
	var beforeBirth models.Chapter
	for _, c := range chapters {
		switch {
		case catalog.IsPregnancyChapter(c):
			pregnancyCount++
			assert.False(t, c.IsActive(), "pregnancy chapter %s must be archived", c.Title)
		case c.TemplateID == catalog.BeforeBirthTemplateID:
			beforeBirth = c
		case catalog.IsBornChapter(c):
			bornCount++
			assert.True(t, c.IsActive())
		}
	}
	assert.Equal(t, 42, pregnancyCount)
	assert.Equal(t, 16, bornCount, "born timeline generated in the same pass")

	// The synthetic chapter is anchored on the old due date and holds the
	// free-floating record.
	require.NotEmpty(t, beforeBirth.ID)
	require.NotNil(t, beforeBirth.EndDate)
	assert.Equal(t, date(2026, time.June, 5), *beforeBirth.EndDate)
	assert.Equal(t, date(2026, time.June, 5).AddDate(0, 0, -42*7), beforeBirth.StartDate)

	record, err := store.GetRecord("r1")
	require.NoError(t, err)
	assert.Equal(t, beforeBirth.ID, record.ChapterID)
}

func TestSwitchToBorn_AlreadyBorn(t *testing.T) {
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	require.NoError(t, store.Init())

	birthdate := date(2026, time.January, 1)
	p := models.Profile{ID: "p1", Name: "Junie", Mode: models.ModeBorn, Birthdate: &birthdate, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.SaveProfile(p))

	err := NewManager(store).SwitchToBorn(p.ID, birthdate)
	assert.Error(t, err)
}

func TestUndoSwitchToBorn_RoundTrip(t *testing.T) {
	store, p := setupPregnantProfile(t)
	require.NoError(t, store.AddRecord(models.Record{
		ID: "r1", ProfileID: p.ID, Title: "Felt a kick today", CreatedAt: time.Now().UTC(),
	}))

	mgr := NewManagerWithClock(store, fixedClock{now: date(2026, time.June, 3)})
	require.NoError(t, mgr.SwitchToBorn(p.ID, date(2026, time.June, 2)))
	require.NoError(t, mgr.UndoSwitchToBorn(p.ID))

	restored, err := store.GetProfile(p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModePregnant, restored.Mode)
	assert.Nil(t, restored.Birthdate)
	require.NotNil(t, restored.EstimatedDueDate)
	assert.Equal(t, date(2026, time.June, 5), *restored.EstimatedDueDate)
	assert.Empty(t, restored.PreviousMode, "undo is one-level only")

	chapters, err := store.GetChapters(p.ID)
	require.NoError(t, err)
	pregnancyActive, bornLeft, syntheticLeft := 0, 0, 0
	for _, c := range chapters {
		switch {
		case catalog.IsPregnancyChapter(c):
			if c.IsActive() {
				pregnancyActive++
			}
		case c.TemplateID == catalog.BeforeBirthTemplateID:
			syntheticLeft++
		case catalog.IsBornChapter(c):
			bornLeft++
		}
	}
	assert.Equal(t, 42, pregnancyActive, "every pregnancy chapter restored")
	assert.Zero(t, bornLeft, "content-free born chapters are pruned")
	assert.Zero(t, syntheticLeft, "the synthetic chapter dissolves")

	// The journal entry is free-floating again.
	record, err := store.GetRecord("r1")
	require.NoError(t, err)
	assert.Empty(t, record.ChapterID)

	// Born milestone instances went with their pruned chapters.
	milestones, err := store.GetMilestones(p.ID)
	require.NoError(t, err)
	for _, m := range milestones {
		tmpl, ok := catalog.MilestoneByID(m.TemplateID)
		require.True(t, ok)
		assert.True(t, tmpl.AppliesTo(models.ModePregnant),
			"born milestone instance %s should have been pruned", m.TemplateID)
		assert.False(t, m.IsArchived())
	}
}

func TestUndoSwitchToBorn_KeepsBornChaptersWithRecords(t *testing.T) {
	store, p := setupPregnantProfile(t)

	mgr := NewManagerWithClock(store, fixedClock{now: date(2026, time.June, 3)})
	require.NoError(t, mgr.SwitchToBorn(p.ID, date(2026, time.June, 2)))

	// A photo note filed into the first born chapter before the undo.
	chapters, err := store.GetActiveChapters(p.ID)
	require.NoError(t, err)
	var monthOne models.Chapter
	for _, c := range chapters {
		if c.TemplateID == "chapter_month_1" {
			monthOne = c
		}
	}
	require.NotEmpty(t, monthOne.ID)
	require.NoError(t, store.AddRecord(models.Record{
		ID: "r2", ProfileID: p.ID, ChapterID: monthOne.ID, Title: "First photo", CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, mgr.UndoSwitchToBorn(p.ID))

	kept, err := store.GetChapter(monthOne.ID)
	require.NoError(t, err)
	assert.Equal(t, monthOne.ID, kept.ID, "born chapters holding records survive the undo")
}

func TestUndoSwitchToBorn_KeepsFilledMilestones(t *testing.T) {
	store, p := setupPregnantProfile(t)
	require.NoError(t, store.AddRecord(models.Record{
		ID: "r3", ProfileID: p.ID, Title: "She latched!", CreatedAt: time.Now().UTC(),
	}))

	mgr := NewManagerWithClock(store, fixedClock{now: date(2026, time.June, 3)})
	require.NoError(t, mgr.SwitchToBorn(p.ID, date(2026, time.June, 2)))

	// Link the journal entry to a generated born milestone. The record stays
	// in the synthetic chapter, so the milestone's own chapter holds no
	// records of its own.
	milestones, err := store.GetMilestones(p.ID)
	require.NoError(t, err)
	var latch models.MilestoneInstance
	for _, m := range milestones {
		if m.TemplateID == "first_latch" {
			latch = m
		}
	}
	require.NotEmpty(t, latch.ID)
	filled := date(2026, time.June, 4)
	latch.RecordID = "r3"
	latch.FilledDate = &filled
	latch.Status = models.MilestoneStatusFilled
	require.NoError(t, store.UpdateMilestone(latch))

	require.NoError(t, mgr.UndoSwitchToBorn(p.ID))

	kept, err := store.GetMilestone(latch.ID)
	require.NoError(t, err, "filled milestone instances survive the undo")
	assert.Equal(t, models.MilestoneStatusFilled, kept.Status)
	assert.Equal(t, "r3", kept.RecordID)
	require.NotNil(t, kept.FilledDate)
	assert.Equal(t, filled, *kept.FilledDate)

	_, err = store.GetChapter(latch.ChapterID)
	require.NoError(t, err, "the chapter holding the filled milestone is not pruned")
}

func TestUndoSwitchToBorn_NothingToUndo(t *testing.T) {
	store, p := setupPregnantProfile(t)

	err := NewManager(store).UndoSwitchToBorn(p.ID)
	assert.ErrorIs(t, err, ErrNothingToUndo)
}
