// Package timeline derives a profile's chapter and milestone schedule from
// its reference date. Generation is idempotent and best-effort: every pass
// re-evaluates what already exists, so a failed item is simply retried on the
// next invocation.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/sproutbook/internal/archive"
	"github.com/julianstephens/sproutbook/internal/catalog"
	"github.com/julianstephens/sproutbook/internal/logger"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage"
)

type Generator struct {
	store   storage.Provider
	archive *archive.Manager
}

func NewGenerator(store storage.Provider) *Generator {
	return &Generator{
		store:   store,
		archive: archive.NewManager(store),
	}
}

// Generate materializes the chapters and pending milestone instances the
// profile's catalog expects. Safe to call on every app resume: existing data
// is never duplicated, and per-template failures are logged and skipped.
func (g *Generator) Generate(profile models.Profile) error {
	ref, ok := profile.ReferenceDate()
	if !ok {
		logger.Debug("no reference date for mode, skipping generation",
			"profile", profile.ID, "mode", profile.Mode)
		return nil
	}

	// A user may re-enter pregnancy mode after having left it; clear the
	// archived state before reconciling against the catalog.
	if profile.Mode == models.ModePregnant {
		if _, err := g.archive.UnarchivePregnancyChapters(profile.ID); err != nil {
			return err
		}
	}

	survivors, err := g.resolveChapters(profile.ID)
	if err != nil {
		return err
	}

	// Create chapters for templates not yet represented.
	for _, t := range catalog.Chapters(profile.Mode) {
		if _, ok := survivors[t.ID]; ok {
			continue
		}
		start, end := catalog.ChapterWindow(ref, t)
		c := models.Chapter{
			ID:          uuid.New().String(),
			ProfileID:   profile.ID,
			TemplateID:  t.ID,
			Title:       t.Title,
			StartDate:   start,
			EndDate:     &end,
			Description: t.Description,
			CreatedAt:   time.Now().UTC(),
		}
		if err := g.store.AddChapter(c); err != nil {
			logger.Warn("failed to create chapter", "profile", profile.ID, "template", t.ID, "error", err)
			continue
		}
		survivors[t.ID] = c
	}

	return g.generateMilestones(profile, ref, survivors)
}

// resolveChapters loads the active chapters, archives duplicate survivors of
// earlier retried generations (keeping the earliest-created), and returns the
// remaining template-derived chapters keyed by template id.
func (g *Generator) resolveChapters(profileID string) (map[string]models.Chapter, error) {
	active, err := g.store.GetActiveChapters(profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active chapters: %w", err)
	}

	byTitle := make(map[string][]models.Chapter)
	for _, c := range active {
		byTitle[c.Title] = append(byTitle[c.Title], c)
	}

	survivors := make(map[string]models.Chapter)
	for _, group := range byTitle {
		keep := group[0]
		for _, c := range group[1:] {
			if c.CreatedAt.Before(keep.CreatedAt) {
				keep = c
			}
		}
		for _, c := range group {
			if c.ID == keep.ID {
				continue
			}
			if err := g.store.ArchiveChapter(c.ID); err != nil {
				logger.Warn("failed to archive duplicate chapter", "chapter", c.ID, "error", err)
			}
		}
		if t, ok := catalog.MatchChapterAnyMode(keep); ok {
			survivors[t.ID] = keep
		}
	}

	return survivors, nil
}

// CleanupDuplicateChapters archives all but the earliest-created chapter of
// every group of active chapters sharing a title. Returns the number of
// chapters archived.
func (g *Generator) CleanupDuplicateChapters(profileID string) (int, error) {
	active, err := g.store.GetActiveChapters(profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to load active chapters: %w", err)
	}

	byTitle := make(map[string][]models.Chapter)
	for _, c := range active {
		byTitle[c.Title] = append(byTitle[c.Title], c)
	}

	archived := 0
	for title, group := range byTitle {
		if len(group) < 2 {
			continue
		}
		keep := group[0]
		for _, c := range group[1:] {
			if c.CreatedAt.Before(keep.CreatedAt) {
				keep = c
			}
		}
		for _, c := range group {
			if c.ID == keep.ID {
				continue
			}
			if err := g.store.ArchiveChapter(c.ID); err != nil {
				logger.Warn("failed to archive duplicate chapter", "chapter", c.ID, "title", title, "error", err)
				continue
			}
			archived++
		}
	}

	return archived, nil
}

func (g *Generator) generateMilestones(profile models.Profile, ref time.Time, chapters map[string]models.Chapter) error {
	existing, err := g.store.GetMilestones(profile.ID)
	if err != nil {
		return fmt.Errorf("failed to load milestones: %w", err)
	}

	// At most one non-archived instance per template.
	have := make(map[string]bool)
	for _, m := range existing {
		if !m.IsArchived() {
			have[m.TemplateID] = true
		}
	}

	// Windows from the two catalogs can overlap (a premature birth leaves
	// born chapters alongside restored pregnancy ones), so scan in a fixed
	// order: earliest window wins.
	ordered := make([]models.Chapter, 0, len(chapters))
	for _, c := range chapters {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].StartDate.Equal(ordered[j].StartDate) {
			return ordered[i].StartDate.Before(ordered[j].StartDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, t := range catalog.Milestones(profile.Mode) {
		if have[t.ID] {
			continue
		}
		expected, ok := catalog.MilestoneExpectedDate(ref, profile.Mode, t)
		if !ok {
			continue
		}

		// Assign to the chapter whose window contains the expected date;
		// instances outside every window are created unassigned.
		var chapterID string
		for _, c := range ordered {
			if c.Contains(expected) {
				chapterID = c.ID
				break
			}
		}

		m := models.MilestoneInstance{
			ID:           uuid.New().String(),
			ProfileID:    profile.ID,
			ChapterID:    chapterID,
			TemplateID:   t.ID,
			ExpectedDate: expected,
			Status:       models.MilestoneStatusPending,
		}
		if err := g.store.AddMilestone(m); err != nil {
			logger.Warn("failed to create milestone", "profile", profile.ID, "template", t.ID, "error", err)
			continue
		}
		have[t.ID] = true
	}

	return nil
}
