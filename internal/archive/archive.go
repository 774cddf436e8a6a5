// Package archive implements soft deletion for chapters and milestone
// instances. Archiving is always non-destructive: archived data stays
// queryable and linked records are never touched.
package archive

import (
	"fmt"

	"github.com/julianstephens/sproutbook/internal/catalog"
	"github.com/julianstephens/sproutbook/internal/logger"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage"
)

type Manager struct {
	store storage.Provider
}

func NewManager(store storage.Provider) *Manager {
	return &Manager{store: store}
}

// Archive soft-deletes a single chapter. Milestone instances and records
// linked to it are left intact.
func (m *Manager) Archive(chapterID string) error {
	return m.store.ArchiveChapter(chapterID)
}

// Unarchive restores a single archived chapter.
func (m *Manager) Unarchive(chapterID string) error {
	return m.store.UnarchiveChapter(chapterID)
}

// PregnancyChapters selects the chapters belonging to the pregnancy regime.
// Template ids are authoritative; exact legacy titles ("Week N", the old
// "Trimester N" scheme) match only rows created before template ids existed.
func (m *Manager) PregnancyChapters(chapters []models.Chapter) []models.Chapter {
	var out []models.Chapter
	for _, c := range chapters {
		if !catalog.IsPregnancyChapter(c) {
			continue
		}
		if c.TemplateID == "" {
			logger.Debug("pregnancy chapter matched by legacy title", "chapter", c.ID, "title", c.Title)
		}
		out = append(out, c)
	}
	return out
}

// PregnancyMilestones selects the milestone instances belonging to the
// pregnancy regime: instances of pregnancy templates plus instances assigned
// to any of the given pregnancy chapters.
func (m *Manager) PregnancyMilestones(milestones []models.MilestoneInstance, pregnancyChapters []models.Chapter) []models.MilestoneInstance {
	inChapters := make(map[string]bool, len(pregnancyChapters))
	for _, c := range pregnancyChapters {
		inChapters[c.ID] = true
	}

	var out []models.MilestoneInstance
	for _, mi := range milestones {
		if t, ok := catalog.MilestoneByID(mi.TemplateID); ok && t.AppliesTo(models.ModePregnant) {
			out = append(out, mi)
			continue
		}
		if mi.ChapterID != "" && inChapters[mi.ChapterID] {
			out = append(out, mi)
		}
	}
	return out
}

// ArchivePregnancyChapters archives every active pregnancy chapter of a
// profile and the milestone instances tied to them. Best-effort: individual
// failures are logged and the sweep continues. Returns the number of chapters
// archived.
func (m *Manager) ArchivePregnancyChapters(profileID string) (int, error) {
	chapters, err := m.store.GetChapters(profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load chapters: %w", err)
	}
	milestones, err := m.store.GetMilestones(profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load milestones: %w", err)
	}

	pregnancy := m.PregnancyChapters(chapters)
	archived := 0
	for _, c := range pregnancy {
		if !c.IsActive() {
			continue
		}
		if err := m.store.ArchiveChapter(c.ID); err != nil {
			logger.Warn("failed to archive pregnancy chapter", "chapter", c.ID, "error", err)
			continue
		}
		archived++
	}

	for _, mi := range m.PregnancyMilestones(milestones, pregnancy) {
		if mi.IsArchived() {
			continue
		}
		if err := m.store.ArchiveMilestone(mi.ID); err != nil {
			logger.Warn("failed to archive pregnancy milestone", "milestone", mi.ID, "error", err)
		}
	}

	return archived, nil
}

// UnarchivePregnancyChapters restores previously archived pregnancy chapters
// and milestones, used when a profile re-enters pregnancy mode. Returns the
// number of chapters restored.
func (m *Manager) UnarchivePregnancyChapters(profileID string) (int, error) {
	chapters, err := m.store.GetChapters(profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load chapters: %w", err)
	}
	milestones, err := m.store.GetMilestones(profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load milestones: %w", err)
	}

	pregnancy := m.PregnancyChapters(chapters)
	restored := 0
	for _, c := range pregnancy {
		if c.IsActive() {
			continue
		}
		if err := m.store.UnarchiveChapter(c.ID); err != nil {
			logger.Warn("failed to restore pregnancy chapter", "chapter", c.ID, "error", err)
			continue
		}
		restored++
	}

	for _, mi := range m.PregnancyMilestones(milestones, pregnancy) {
		if !mi.IsArchived() {
			continue
		}
		if err := m.store.UnarchiveMilestone(mi.ID); err != nil {
			logger.Warn("failed to restore pregnancy milestone", "milestone", mi.ID, "error", err)
		}
	}

	return restored, nil
}
