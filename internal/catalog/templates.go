package catalog

import (
	"fmt"
	"regexp"

	"github.com/julianstephens/sproutbook/internal/models"
)

// ChapterTemplate is an immutable catalog entry. Offsets are in whole weeks
// relative to the reference date (birthdate for born, estimated due date for
// pregnant), so a pregnancy week N spans [N-41, N-40) weeks.
type ChapterTemplate struct {
	ID              string
	Title           string
	StartWeekOffset int
	EndWeekOffset   int
	Order           int
	Description     string
}

// BeforeBirthTemplateID marks the synthetic chapter the mode-switch manager
// creates to hold pregnancy journal entries after a birth event. It is not
// part of either catalog and is never generated or rebased.
const BeforeBirthTemplateID = "before_birth"

var bornChapters []ChapterTemplate
var pregnancyChapters []ChapterTemplate

func init() {
	// Born: 12 monthly chapters of four weeks each, then four yearly
	// chapters continuing contiguously from week 48.
	for m := 1; m <= 12; m++ {
		bornChapters = append(bornChapters, ChapterTemplate{
			ID:              fmt.Sprintf("chapter_month_%d", m),
			Title:           fmt.Sprintf("Month %d", m),
			StartWeekOffset: (m - 1) * 4,
			EndWeekOffset:   m * 4,
			Order:           m,
			Description:     fmt.Sprintf("The %s four weeks", ordinal(m)),
		})
	}
	for y := 2; y <= 5; y++ {
		bornChapters = append(bornChapters, ChapterTemplate{
			ID:              fmt.Sprintf("chapter_year_%d", y),
			Title:           fmt.Sprintf("Year %d", y),
			StartWeekOffset: 48 + (y-2)*52,
			EndWeekOffset:   48 + (y-1)*52,
			Order:           11 + y,
			Description:     fmt.Sprintf("Year %d", y),
		})
	}

	// Pregnancy: one chapter per gestation week, 1 through 42. The due date
	// sits at the end of week 40, so week N starts (41-N) weeks before it.
	for w := 1; w <= 42; w++ {
		pregnancyChapters = append(pregnancyChapters, ChapterTemplate{
			ID:              fmt.Sprintf("pregnancy_week_%d", w),
			Title:           fmt.Sprintf("Week %d", w),
			StartWeekOffset: w - 41,
			EndWeekOffset:   w - 40,
			Order:           w,
			Description:     fmt.Sprintf("Gestation week %d", w),
		})
	}
}

// Chapters returns the ordered chapter catalog for the given mode.
func Chapters(mode models.Mode) []ChapterTemplate {
	if mode == models.ModePregnant {
		return pregnancyChapters
	}
	return bornChapters
}

// ChapterByID looks a template up in either catalog.
func ChapterByID(id string) (ChapterTemplate, bool) {
	for _, t := range bornChapters {
		if t.ID == id {
			return t, true
		}
	}
	for _, t := range pregnancyChapters {
		if t.ID == id {
			return t, true
		}
	}
	return ChapterTemplate{}, false
}

// MatchChapter resolves a chapter to a template of the given mode's catalog.
// The template id set at creation time is authoritative; the exact title is a
// legacy fallback for rows created before the template_id column existed.
func MatchChapter(c models.Chapter, mode models.Mode) (ChapterTemplate, bool) {
	for _, t := range Chapters(mode) {
		if c.TemplateID != "" {
			if c.TemplateID == t.ID {
				return t, true
			}
			continue
		}
		if c.Title == t.Title {
			return t, true
		}
	}
	return ChapterTemplate{}, false
}

// MatchChapterAnyMode resolves a chapter against both catalogs.
func MatchChapterAnyMode(c models.Chapter) (ChapterTemplate, bool) {
	if t, ok := MatchChapter(c, models.ModeBorn); ok {
		return t, true
	}
	return MatchChapter(c, models.ModePregnant)
}

// Legacy title patterns for pregnancy chapters created before template ids
// existed: the weekly scheme and the older trimester scheme.
var legacyPregnancyTitle = regexp.MustCompile(`^(Week ([1-9]|[1-3][0-9]|4[0-2])|Trimester [1-3])$`)

// IsPregnancyChapter reports whether a chapter belongs to the pregnancy
// regime, for the bulk archival sweep. Template id is authoritative;
// title-pattern matching only applies to rows without one.
func IsPregnancyChapter(c models.Chapter) bool {
	if c.TemplateID != "" {
		_, ok := chapterInCatalog(c.TemplateID, pregnancyChapters)
		return ok
	}
	return legacyPregnancyTitle.MatchString(c.Title)
}

// IsBornChapter reports whether a chapter was derived from the born catalog.
func IsBornChapter(c models.Chapter) bool {
	if c.TemplateID != "" {
		_, ok := chapterInCatalog(c.TemplateID, bornChapters)
		return ok
	}
	_, ok := MatchChapter(c, models.ModeBorn)
	return ok
}

func chapterInCatalog(id string, catalog []ChapterTemplate) (ChapterTemplate, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return ChapterTemplate{}, false
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	default:
		return fmt.Sprintf("%dth", n)
	}
}
