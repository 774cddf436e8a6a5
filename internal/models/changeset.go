package models

import "time"

// The change-set types below describe multi-row mutations that the store must
// apply inside a single transaction: a half-applied rebase or mode switch
// would leave chapters and milestones internally inconsistent.

// ChapterWindowUpdate moves a chapter to a recomputed [start, end) window.
type ChapterWindowUpdate struct {
	ChapterID string
	StartDate time.Time
	EndDate   *time.Time
}

// MilestoneRebaseUpdate moves a milestone instance to a recomputed expected
// date and chapter assignment.
type MilestoneRebaseUpdate struct {
	MilestoneID  string
	ChapterID    string
	ExpectedDate time.Time
}

// RebaseChangeSet is the full output of a rebase pass. Empty slices mean the
// rebase was a fixpoint and nothing needs to be written.
type RebaseChangeSet struct {
	ProfileID  string
	Chapters   []ChapterWindowUpdate
	Milestones []MilestoneRebaseUpdate
}

// IsEmpty reports whether applying the change set would write nothing.
func (cs RebaseChangeSet) IsEmpty() bool {
	return len(cs.Chapters) == 0 && len(cs.Milestones) == 0
}

// ModeSwitchChangeSet captures the pregnancy-to-born transition: the updated
// profile row, the pregnancy data to archive, the synthetic "Before Birth"
// chapter, and the free-floating records to move into it.
type ModeSwitchChangeSet struct {
	Profile             Profile
	ArchiveChapterIDs   []string
	ArchiveMilestoneIDs []string
	NewChapter          *Chapter
	MoveRecordIDs       []string
	ArchivedAt          time.Time
}

// ModeSwitchUndoChangeSet captures the one-level undo: the restored profile,
// the pregnancy data to unarchive, the synthetic chapter to dissolve (its
// records return to free-floating status), and the content-free born chapters
// to prune outright.
type ModeSwitchUndoChangeSet struct {
	Profile               Profile
	UnarchiveChapterIDs   []string
	UnarchiveMilestoneIDs []string
	DissolveChapterID     string
	DeleteChapterIDs      []string
	DeleteMilestoneIDs    []string
}
