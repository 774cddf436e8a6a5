// Package rebase recomputes every derived date of a timeline after the
// reference date changes. Planning is pure; the resulting change set is
// applied by the store in one transaction, so a rebase either fully applies
// or has no effect.
package rebase

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/sproutbook/internal/catalog"
	"github.com/julianstephens/sproutbook/internal/logger"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage"
)

type Engine struct {
	store storage.Provider
}

func New(store storage.Provider) *Engine {
	return &Engine{store: store}
}

// Rebase recomputes all chapter windows and milestone expected dates and
// chapter assignments for the profile against newRef. prevRef, when known,
// enables the shift-by-delta fallback for fully user-renamed timelines. A
// rebase that changes nothing writes nothing.
func (e *Engine) Rebase(profileID string, newRef time.Time, prevRef *time.Time) error {
	profile, err := e.store.GetProfile(profileID)
	if err != nil {
		return err
	}
	chapters, err := e.store.GetChapters(profileID)
	if err != nil {
		return fmt.Errorf("failed to load chapters: %w", err)
	}
	milestones, err := e.store.GetMilestones(profileID)
	if err != nil {
		return fmt.Errorf("failed to load milestones: %w", err)
	}

	cs := Compute(profile.Mode, chapters, milestones, newRef, prevRef)
	cs.ProfileID = profileID
	if cs.IsEmpty() {
		logger.Debug("rebase is a fixpoint, nothing to write", "profile", profileID)
		return nil
	}

	logger.Info("rebasing timeline", "profile", profileID,
		"chapters", len(cs.Chapters), "milestones", len(cs.Milestones))
	return e.store.ApplyRebase(cs)
}

// window is a resolved [start, end) span for chapter assignment.
type window struct {
	chapterID string
	start     time.Time
	end       time.Time
}

// Compute builds the rebase change set. Chapters matching a template of the
// current mode's catalog get freshly computed windows; when no chapter
// matches any template and the previous reference date is known, every
// chapter's existing window is shifted by the day delta instead, preserving
// the user's structure. Milestones are then reassigned to whichever resolved
// window contains their recomputed expected date.
func Compute(mode models.Mode, chapters []models.Chapter, milestones []models.MilestoneInstance, newRef time.Time, prevRef *time.Time) models.RebaseChangeSet {
	var cs models.RebaseChangeSet
	var windows []window
	matched := 0

	for _, c := range chapters {
		// Archived chapters keep the windows they were archived with, and
		// the synthetic pre-birth chapter is pinned to the old due date.
		if !c.IsActive() || c.TemplateID == catalog.BeforeBirthTemplateID {
			continue
		}
		t, ok := catalog.MatchChapter(c, mode)
		if !ok {
			continue
		}
		matched++
		start, end := catalog.ChapterWindow(newRef, t)
		if !start.Equal(c.StartDate) || c.EndDate == nil || !end.Equal(*c.EndDate) {
			endCopy := end
			cs.Chapters = append(cs.Chapters, models.ChapterWindowUpdate{
				ChapterID: c.ID,
				StartDate: start,
				EndDate:   &endCopy,
			})
		}
		windows = append(windows, window{chapterID: c.ID, start: start, end: end})
	}

	if matched == 0 && prevRef != nil {
		days := dayDelta(*prevRef, newRef)
		if days != 0 {
			for _, c := range chapters {
				if !c.IsActive() || c.TemplateID == catalog.BeforeBirthTemplateID {
					continue
				}
				start := c.StartDate.AddDate(0, 0, days)
				var end *time.Time
				if c.EndDate != nil {
					e := c.EndDate.AddDate(0, 0, days)
					end = &e
				}
				cs.Chapters = append(cs.Chapters, models.ChapterWindowUpdate{
					ChapterID: c.ID,
					StartDate: start,
					EndDate:   end,
				})
				if end != nil {
					windows = append(windows, window{chapterID: c.ID, start: start, end: *end})
				}
			}
		}
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].start.Before(windows[j].start)
	})

	for _, m := range milestones {
		if m.IsArchived() {
			continue
		}
		t, ok := catalog.MilestoneByID(m.TemplateID)
		if !ok {
			continue
		}
		expected, ok := catalog.MilestoneExpectedDate(newRef, mode, t)
		if !ok {
			continue
		}

		// Reassign to the containing window; keep the current chapter when
		// no window matches.
		chapterID := m.ChapterID
		for _, w := range windows {
			if !expected.Before(w.start) && expected.Before(w.end) {
				chapterID = w.chapterID
				break
			}
		}

		if !expected.Equal(m.ExpectedDate) || chapterID != m.ChapterID {
			cs.Milestones = append(cs.Milestones, models.MilestoneRebaseUpdate{
				MilestoneID:  m.ID,
				ChapterID:    chapterID,
				ExpectedDate: expected,
			})
		}
	}

	return cs
}

func dayDelta(from, to time.Time) int {
	return int(catalog.DateOnly(to).Sub(catalog.DateOnly(from)).Hours() / 24)
}
