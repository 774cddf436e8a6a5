package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/julianstephens/sproutbook/internal/models"
)

type ChapterListCmd struct {
	Profile  string `short:"p" help:"Profile ID (defaults to active profile)."`
	Archived bool   `short:"a" help:"Include archived chapters."`
}

func (c *ChapterListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	showArchived := c.Archived || profile.ShowArchivedChapters

	var chapters []models.Chapter
	if showArchived {
		chapters, err = ctx.Store.GetChapters(profile.ID)
	} else {
		chapters, err = ctx.Store.GetActiveChapters(profile.ID)
	}
	if err != nil {
		return err
	}

	if len(chapters) == 0 {
		fmt.Println("No chapters yet. Run 'sproutbook generate' to build the timeline.")
		return nil
	}

	for _, ch := range chapters {
		end := "open"
		if ch.EndDate != nil {
			end = formatDate(*ch.EndDate)
		}
		state := ""
		if !ch.IsActive() {
			state = "  [archived]"
		}
		fmt.Printf("%-22s %s .. %s%s  (ID: %s)\n", ch.Title, formatDate(ch.StartDate), end, state, ch.ID)
	}
	return nil
}

type ChapterAddCmd struct {
	Title       string `arg:"" help:"Chapter title."`
	Start       string `short:"s" help:"Start date (YYYY-MM-DD)." required:""`
	End         string `short:"e" help:"End date, exclusive (YYYY-MM-DD)."`
	Description string `short:"d" help:"Chapter description."`
	Profile     string `short:"p" help:"Profile ID (defaults to active profile)."`
}

// Run creates a custom chapter. Custom chapters carry no template ID, so the
// generator and rebase engine leave them alone.
func (c *ChapterAddCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	start, err := parseDate(c.Start)
	if err != nil {
		return err
	}

	chapter := models.Chapter{
		ID:          uuid.New().String(),
		ProfileID:   profile.ID,
		Title:       c.Title,
		StartDate:   start,
		Description: c.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if c.End != "" {
		end, err := parseDate(c.End)
		if err != nil {
			return err
		}
		if !start.Before(end) {
			return fmt.Errorf("end date must be after start date")
		}
		chapter.EndDate = &end
	}

	if err := ctx.Store.AddChapter(chapter); err != nil {
		return err
	}

	fmt.Printf("Added chapter: %s (ID: %s)\n", chapter.Title, chapter.ID)
	return nil
}

type ChapterRenameCmd struct {
	ID    string `arg:"" help:"Chapter ID to rename."`
	Title string `arg:"" help:"New chapter title."`
}

// Run renames a chapter. Template chapters stay matched to their template
// through the template ID, so a renamed "Month 3" keeps tracking birthdate
// changes under its new name.
func (c *ChapterRenameCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	chapter, err := ctx.Store.GetChapter(c.ID)
	if err != nil {
		return err
	}

	old := chapter.Title
	chapter.Title = c.Title
	if err := ctx.Store.UpdateChapter(chapter); err != nil {
		return err
	}

	fmt.Printf("Renamed %q to %q.\n", old, chapter.Title)
	return nil
}

type ChapterArchiveCmd struct {
	ID string `arg:"" help:"Chapter ID to archive."`
}

func (c *ChapterArchiveCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if err := ctx.Store.ArchiveChapter(c.ID); err != nil {
		return err
	}

	fmt.Println("Chapter archived. Its records and milestones are preserved.")
	return nil
}

type ChapterUnarchiveCmd struct {
	ID string `arg:"" help:"Chapter ID to restore."`
}

func (c *ChapterUnarchiveCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if err := ctx.Store.UnarchiveChapter(c.ID); err != nil {
		return err
	}

	fmt.Println("Chapter restored.")
	return nil
}
