// Package transition coordinates the switch between the pregnancy and born
// schedule regimes, with one-level undo. The regime flip itself is one store
// transaction; the follow-up rebase is transactional on its own, and the
// follow-up generation pass is best-effort and self-healing on the next
// resume.
package transition

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/sproutbook/internal/archive"
	"github.com/julianstephens/sproutbook/internal/catalog"
	"github.com/julianstephens/sproutbook/internal/logger"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/rebase"
	"github.com/julianstephens/sproutbook/internal/storage"
	"github.com/julianstephens/sproutbook/internal/timeline"
	"github.com/julianstephens/sproutbook/internal/vault"
)

// ErrNothingToUndo is returned by UndoSwitchToBorn when no prior mode is
// recorded. An expected condition, not an exceptional one.
var ErrNothingToUndo = errors.New("no previous mode to restore")

// BeforeBirthTitle names the synthetic chapter that holds pregnancy journal
// entries after a birth event.
const BeforeBirthTitle = "Before Birth"

type Manager struct {
	store     storage.Provider
	archive   *archive.Manager
	rebase    *rebase.Engine
	generator *timeline.Generator
	vaults    *vault.Scheduler
	clock     vault.Clock
}

func NewManager(store storage.Provider) *Manager {
	return &Manager{
		store:     store,
		archive:   archive.NewManager(store),
		rebase:    rebase.New(store),
		generator: timeline.NewGenerator(store),
		vaults:    vault.NewScheduler(store),
		clock:     vault.RealClock{},
	}
}

// NewManagerWithClock is used by tests to control "now".
func NewManagerWithClock(store storage.Provider, clock vault.Clock) *Manager {
	m := NewManager(store)
	m.clock = clock
	m.vaults = vault.NewSchedulerWithClock(store, clock)
	return m
}

// SwitchToBorn flips a pregnant profile to born mode: pregnancy chapters and
// milestones are archived (never deleted), free-floating journal entries move
// into a synthetic "Before Birth" chapter, and the born timeline is
// materialized against the entered birthdate.
func (m *Manager) SwitchToBorn(profileID string, birthdate time.Time) error {
	profile, err := m.store.GetProfile(profileID)
	if err != nil {
		return err
	}
	if profile.Mode == models.ModeBorn {
		return fmt.Errorf("profile %s is already in born mode", profileID)
	}

	chapters, err := m.store.GetChapters(profileID)
	if err != nil {
		return fmt.Errorf("failed to load chapters: %w", err)
	}
	milestones, err := m.store.GetMilestones(profileID)
	if err != nil {
		return fmt.Errorf("failed to load milestones: %w", err)
	}
	records, err := m.store.GetRecords(profileID)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	now := m.clock.Now().UTC()
	birthday := catalog.DateOnly(birthdate)
	prevEDD := profile.EstimatedDueDate

	updated := profile
	updated.Mode = models.ModeBorn
	updated.Birthdate = &birthday
	updated.PreviousMode = models.ModePregnant
	updated.PreviousEDD = prevEDD
	updated.ModeSwitchedAt = &now

	cs := models.ModeSwitchChangeSet{
		Profile:    updated,
		ArchivedAt: now,
	}

	pregnancy := m.archive.PregnancyChapters(chapters)
	for _, c := range pregnancy {
		if c.IsActive() {
			cs.ArchiveChapterIDs = append(cs.ArchiveChapterIDs, c.ID)
		}
	}
	for _, mi := range m.archive.PregnancyMilestones(milestones, pregnancy) {
		if !mi.IsArchived() {
			cs.ArchiveMilestoneIDs = append(cs.ArchiveMilestoneIDs, mi.ID)
		}
	}

	// The synthetic chapter is anchored at the old due date so the pregnancy
	// journal keeps its place on the timeline.
	anchor := birthday
	if prevEDD != nil {
		anchor = catalog.DateOnly(*prevEDD)
	}
	start := anchor.AddDate(0, 0, -42*7)
	cs.NewChapter = &models.Chapter{
		ID:          uuid.New().String(),
		ProfileID:   profileID,
		TemplateID:  catalog.BeforeBirthTemplateID,
		Title:       BeforeBirthTitle,
		StartDate:   start,
		EndDate:     &anchor,
		Description: "The journey before the big day",
		CreatedAt:   now,
	}
	for _, r := range records {
		if r.ChapterID == "" {
			cs.MoveRecordIDs = append(cs.MoveRecordIDs, r.ID)
		}
	}

	if err := m.store.ApplyModeSwitch(cs); err != nil {
		return fmt.Errorf("failed to apply mode switch: %w", err)
	}
	logger.Info("switched to born mode", "profile", profileID,
		"archived_chapters", len(cs.ArchiveChapterIDs), "moved_records", len(cs.MoveRecordIDs))

	// Re-window any pre-existing born chapters against the real birthdate,
	// then materialize the ones that don't exist yet.
	if err := m.rebase.Rebase(profileID, birthday, prevEDD); err != nil {
		return fmt.Errorf("failed to rebase timeline: %w", err)
	}
	if err := m.generator.Generate(updated); err != nil {
		logger.Warn("born timeline generation incomplete, will retry on next resume",
			"profile", profileID, "error", err)
	}

	if _, err := m.vaults.Recalculate(profileID, birthday); err != nil {
		return fmt.Errorf("failed to recalculate vaults: %w", err)
	}

	return nil
}

// UndoSwitchToBorn reverses the last SwitchToBorn: pregnancy data is
// unarchived, the synthetic chapter dissolves back into free-floating journal
// entries, and born chapters that accumulated no content are pruned rather
// than left as archival clutter. Returns ErrNothingToUndo when there is no
// prior mode to restore.
func (m *Manager) UndoSwitchToBorn(profileID string) error {
	profile, err := m.store.GetProfile(profileID)
	if err != nil {
		return err
	}
	if profile.PreviousMode == "" {
		return ErrNothingToUndo
	}

	chapters, err := m.store.GetChapters(profileID)
	if err != nil {
		return fmt.Errorf("failed to load chapters: %w", err)
	}
	milestones, err := m.store.GetMilestones(profileID)
	if err != nil {
		return fmt.Errorf("failed to load milestones: %w", err)
	}
	records, err := m.store.GetRecords(profileID)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	restored := profile
	restored.Mode = models.ModePregnant
	restored.EstimatedDueDate = profile.PreviousEDD
	restored.Birthdate = nil
	restored.PreviousMode = ""
	restored.PreviousEDD = nil
	restored.ModeSwitchedAt = nil

	cs := models.ModeSwitchUndoChangeSet{Profile: restored}

	pregnancy := m.archive.PregnancyChapters(chapters)
	for _, c := range pregnancy {
		if !c.IsActive() {
			cs.UnarchiveChapterIDs = append(cs.UnarchiveChapterIDs, c.ID)
		}
	}
	for _, mi := range m.archive.PregnancyMilestones(milestones, pregnancy) {
		if mi.IsArchived() {
			cs.UnarchiveMilestoneIDs = append(cs.UnarchiveMilestoneIDs, mi.ID)
		}
	}

	hasContent := make(map[string]bool)
	for _, r := range records {
		if r.ChapterID != "" {
			hasContent[r.ChapterID] = true
		}
	}
	// A filled milestone is content too, even when its linked record lives in
	// another chapter.
	for _, mi := range milestones {
		if mi.ChapterID != "" && mi.RecordID != "" {
			hasContent[mi.ChapterID] = true
		}
	}

	for _, c := range chapters {
		if c.TemplateID == catalog.BeforeBirthTemplateID ||
			(c.TemplateID == "" && c.Title == BeforeBirthTitle) {
			cs.DissolveChapterID = c.ID
			continue
		}
		// Cheap generated born chapters with no content are pruned together
		// with their generated milestone instances; born chapters holding
		// records or filled milestones stay put.
		if catalog.IsBornChapter(c) && !hasContent[c.ID] {
			cs.DeleteChapterIDs = append(cs.DeleteChapterIDs, c.ID)
			for _, mi := range milestones {
				if mi.ChapterID == c.ID {
					cs.DeleteMilestoneIDs = append(cs.DeleteMilestoneIDs, mi.ID)
				}
			}
		}
	}

	if err := m.store.ApplyModeSwitchUndo(cs); err != nil {
		return fmt.Errorf("failed to apply undo: %w", err)
	}
	logger.Info("undid switch to born mode", "profile", profileID,
		"restored_chapters", len(cs.UnarchiveChapterIDs), "pruned_chapters", len(cs.DeleteChapterIDs))

	if restored.EstimatedDueDate != nil {
		if _, err := m.vaults.Recalculate(profileID, *restored.EstimatedDueDate); err != nil {
			return fmt.Errorf("failed to recalculate vaults: %w", err)
		}
	}

	return nil
}
