package storage

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/sproutbook/internal/models"
)

func setupTestSQLiteStore(t *testing.T) (*SQLiteStore, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}

	cleanup := func() {
		store.Close()
	}

	return store, cleanup
}

func testProfile(t *testing.T, store Provider) models.Profile {
	t.Helper()
	birthdate := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	p := models.Profile{
		ID:        "profile-1",
		Name:      "Junie",
		Mode:      models.ModeBorn,
		Birthdate: &birthdate,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.SaveProfile(p); err != nil {
		t.Fatalf("failed to save profile: %v", err)
	}
	return p
}

func testChapter(t *testing.T, store Provider, id string) models.Chapter {
	t.Helper()
	end := time.Date(2026, time.January, 29, 0, 0, 0, 0, time.UTC)
	c := models.Chapter{
		ID:         id,
		ProfileID:  "profile-1",
		TemplateID: "chapter_month_1",
		Title:      "Month 1",
		StartDate:  time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    &end,
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.AddChapter(c); err != nil {
		t.Fatalf("failed to add chapter: %v", err)
	}
	return c
}

func TestDefaultSettings(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	settings, err := store.GetSettings()
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if len(settings.DefaultVaultAges) == 0 {
		t.Error("expected default vault ages to be seeded on init")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	p := testProfile(t, store)

	got, err := store.GetProfile(p.ID)
	if err != nil {
		t.Fatalf("failed to get profile: %v", err)
	}
	if got.Name != p.Name || got.Mode != p.Mode {
		t.Errorf("profile mismatch: got %+v", got)
	}
	if got.Birthdate == nil || !got.Birthdate.Equal(*p.Birthdate) {
		t.Errorf("expected birthdate %v, got %v", p.Birthdate, got.Birthdate)
	}
	if got.EstimatedDueDate != nil {
		t.Errorf("expected nil due date, got %v", got.EstimatedDueDate)
	}
}

func TestChapterArchive(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	testProfile(t, store)
	c := testChapter(t, store, "chapter-1")

	if err := store.ArchiveChapter(c.ID); err != nil {
		t.Fatalf("failed to archive chapter: %v", err)
	}

	// Archived chapters stay queryable but drop out of the active set.
	got, err := store.GetChapter(c.ID)
	if err != nil {
		t.Fatalf("failed to get archived chapter: %v", err)
	}
	if got.IsActive() {
		t.Error("archived chapter should not be active")
	}

	active, err := store.GetActiveChapters("profile-1")
	if err != nil {
		t.Fatalf("failed to get active chapters: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active chapters, got %d", len(active))
	}

	all, err := store.GetChapters("profile-1")
	if err != nil {
		t.Fatalf("failed to get all chapters: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected archived chapter in GetChapters, got %d chapters", len(all))
	}

	// Double archive is an error.
	if err := store.ArchiveChapter(c.ID); err == nil {
		t.Error("expected error when archiving an already-archived chapter")
	}

	if err := store.UnarchiveChapter(c.ID); err != nil {
		t.Fatalf("failed to unarchive chapter: %v", err)
	}
	got, err = store.GetChapter(c.ID)
	if err != nil {
		t.Fatalf("failed to get chapter: %v", err)
	}
	if !got.IsActive() {
		t.Error("unarchived chapter should be active")
	}

	if err := store.UnarchiveChapter(c.ID); err == nil {
		t.Error("expected error when unarchiving an active chapter")
	}
}

func TestDeleteRecordRevertsMilestone(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	testProfile(t, store)
	r := models.Record{
		ID: "record-1", ProfileID: "profile-1", Title: "First feed!",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.AddRecord(r); err != nil {
		t.Fatalf("failed to add record: %v", err)
	}

	filled := time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC)
	m := models.MilestoneInstance{
		ID: "milestone-1", ProfileID: "profile-1", TemplateID: "first_latch",
		RecordID: r.ID, ExpectedDate: filled, FilledDate: &filled,
		Status: models.MilestoneStatusFilled,
	}
	if err := store.AddMilestone(m); err != nil {
		t.Fatalf("failed to add milestone: %v", err)
	}

	if err := store.DeleteRecord(r.ID); err != nil {
		t.Fatalf("failed to delete record: %v", err)
	}

	got, err := store.GetMilestone(m.ID)
	if err != nil {
		t.Fatalf("failed to get milestone: %v", err)
	}
	if got.Status != models.MilestoneStatusPending {
		t.Errorf("expected milestone reverted to pending, got %s", got.Status)
	}
	if got.RecordID != "" {
		t.Errorf("expected record link cleared, got %q", got.RecordID)
	}
	if got.FilledDate != nil {
		t.Errorf("expected filled date cleared, got %v", got.FilledDate)
	}
}

func TestApplyRebaseAtomicity(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	testProfile(t, store)
	c := testChapter(t, store, "chapter-1")

	newStart := c.StartDate.AddDate(0, 0, 7)
	newEnd := c.EndDate.AddDate(0, 0, 7)
	cs := models.RebaseChangeSet{
		ProfileID: "profile-1",
		Chapters: []models.ChapterWindowUpdate{
			{ChapterID: c.ID, StartDate: newStart, EndDate: &newEnd},
		},
		Milestones: []models.MilestoneRebaseUpdate{
			{MilestoneID: "missing-milestone", ChapterID: c.ID, ExpectedDate: newStart},
		},
	}

	err := store.ApplyRebase(cs)
	if err == nil {
		t.Fatal("expected error for missing milestone")
	}
	if !strings.Contains(err.Error(), "missing-milestone") {
		t.Errorf("expected error to name the missing row, got: %v", err)
	}

	// The chapter update in the same change set must have been rolled back.
	got, err := store.GetChapter(c.ID)
	if err != nil {
		t.Fatalf("failed to get chapter: %v", err)
	}
	if !got.StartDate.Equal(c.StartDate) {
		t.Errorf("expected chapter window unchanged after failed rebase, got start %v", got.StartDate)
	}
}

func TestApplyRebaseUpdatesRows(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	testProfile(t, store)
	c := testChapter(t, store, "chapter-1")
	m := models.MilestoneInstance{
		ID: "milestone-1", ProfileID: "profile-1", TemplateID: "first_latch",
		ExpectedDate: time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC),
		Status:       models.MilestoneStatusPending,
	}
	if err := store.AddMilestone(m); err != nil {
		t.Fatalf("failed to add milestone: %v", err)
	}

	newStart := c.StartDate.AddDate(0, 0, 7)
	newEnd := c.EndDate.AddDate(0, 0, 7)
	newExpected := m.ExpectedDate.AddDate(0, 0, 7)
	cs := models.RebaseChangeSet{
		ProfileID: "profile-1",
		Chapters: []models.ChapterWindowUpdate{
			{ChapterID: c.ID, StartDate: newStart, EndDate: &newEnd},
		},
		Milestones: []models.MilestoneRebaseUpdate{
			{MilestoneID: m.ID, ChapterID: c.ID, ExpectedDate: newExpected},
		},
	}
	if err := store.ApplyRebase(cs); err != nil {
		t.Fatalf("failed to apply rebase: %v", err)
	}

	gotChapter, err := store.GetChapter(c.ID)
	if err != nil {
		t.Fatalf("failed to get chapter: %v", err)
	}
	if !gotChapter.StartDate.Equal(newStart) {
		t.Errorf("expected start %v, got %v", newStart, gotChapter.StartDate)
	}

	gotMilestone, err := store.GetMilestone(m.ID)
	if err != nil {
		t.Fatalf("failed to get milestone: %v", err)
	}
	if !gotMilestone.ExpectedDate.Equal(newExpected) {
		t.Errorf("expected date %v, got %v", newExpected, gotMilestone.ExpectedDate)
	}
	if gotMilestone.ChapterID != c.ID {
		t.Errorf("expected milestone assigned to %s, got %s", c.ID, gotMilestone.ChapterID)
	}
}

func TestApplyModeSwitchAndUndo(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	edd := time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC)
	p := models.Profile{
		ID: "profile-1", Name: "Junie", Mode: models.ModePregnant,
		EstimatedDueDate: &edd, CreatedAt: time.Now().UTC(),
	}
	if err := store.SaveProfile(p); err != nil {
		t.Fatalf("failed to save profile: %v", err)
	}

	end := edd
	pregnancyChapter := models.Chapter{
		ID: "chapter-w40", ProfileID: p.ID, TemplateID: "pregnancy_week_40",
		Title: "Week 40", StartDate: edd.AddDate(0, 0, -7), EndDate: &end,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.AddChapter(pregnancyChapter); err != nil {
		t.Fatalf("failed to add chapter: %v", err)
	}
	record := models.Record{ID: "record-1", ProfileID: p.ID, Title: "Waiting", CreatedAt: time.Now().UTC()}
	if err := store.AddRecord(record); err != nil {
		t.Fatalf("failed to add record: %v", err)
	}

	birthdate := time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	switched := p
	switched.Mode = models.ModeBorn
	switched.Birthdate = &birthdate
	switched.PreviousMode = models.ModePregnant
	switched.PreviousEDD = &edd
	switched.ModeSwitchedAt = &now

	synthetic := models.Chapter{
		ID: "chapter-bb", ProfileID: p.ID, TemplateID: "before_birth",
		Title: "Before Birth", StartDate: edd.AddDate(0, 0, -42*7), EndDate: &end,
		CreatedAt: now,
	}
	err := store.ApplyModeSwitch(models.ModeSwitchChangeSet{
		Profile:           switched,
		ArchiveChapterIDs: []string{pregnancyChapter.ID},
		NewChapter:        &synthetic,
		MoveRecordIDs:     []string{record.ID},
		ArchivedAt:        now,
	})
	if err != nil {
		t.Fatalf("failed to apply mode switch: %v", err)
	}

	gotRecord, err := store.GetRecord(record.ID)
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if gotRecord.ChapterID != synthetic.ID {
		t.Errorf("expected record moved into synthetic chapter, got %q", gotRecord.ChapterID)
	}

	restored := p
	err = store.ApplyModeSwitchUndo(models.ModeSwitchUndoChangeSet{
		Profile:             restored,
		UnarchiveChapterIDs: []string{pregnancyChapter.ID},
		DissolveChapterID:   synthetic.ID,
	})
	if err != nil {
		t.Fatalf("failed to apply undo: %v", err)
	}

	gotRecord, err = store.GetRecord(record.ID)
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if gotRecord.ChapterID != "" {
		t.Errorf("expected record free-floating after dissolution, got %q", gotRecord.ChapterID)
	}

	if _, err := store.GetChapter(synthetic.ID); err == nil {
		t.Error("expected synthetic chapter deleted")
	}

	gotChapter, err := store.GetChapter(pregnancyChapter.ID)
	if err != nil {
		t.Fatalf("failed to get chapter: %v", err)
	}
	if !gotChapter.IsActive() {
		t.Error("expected pregnancy chapter restored")
	}
}

func TestApplyModeSwitchRollsBackOnMissingRow(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	p := testProfile(t, store)
	c := testChapter(t, store, "chapter-1")

	now := time.Now().UTC()
	err := store.ApplyModeSwitch(models.ModeSwitchChangeSet{
		Profile:           p,
		ArchiveChapterIDs: []string{c.ID, "missing-chapter"},
		ArchivedAt:        now,
	})
	if err == nil {
		t.Fatal("expected error for missing chapter")
	}

	got, err := store.GetChapter(c.ID)
	if err != nil {
		t.Fatalf("failed to get chapter: %v", err)
	}
	if !got.IsActive() {
		t.Error("expected archival rolled back with the failed change set")
	}
}
