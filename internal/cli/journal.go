package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/julianstephens/sproutbook/internal/models"
)

type JournalAddCmd struct {
	Title   string `arg:"" help:"Entry title."`
	Body    string `short:"b" help:"Entry body text."`
	Chapter string `short:"c" help:"Chapter ID to file the entry under (free-floating if omitted)."`
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *JournalAddCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	if c.Chapter != "" {
		if _, err := ctx.Store.GetChapter(c.Chapter); err != nil {
			return err
		}
	}

	record := models.Record{
		ID:        uuid.New().String(),
		ProfileID: profile.ID,
		ChapterID: c.Chapter,
		Title:     c.Title,
		Body:      c.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := ctx.Store.AddRecord(record); err != nil {
		return err
	}

	fmt.Printf("Added journal entry: %s (ID: %s)\n", record.Title, record.ID)
	return nil
}

type JournalListCmd struct {
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
	Chapter string `short:"c" help:"Only entries in this chapter."`
}

func (c *JournalListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	records, err := ctx.Store.GetRecords(profile.ID)
	if err != nil {
		return err
	}

	chapterTitles := make(map[string]string)
	chapters, err := ctx.Store.GetChapters(profile.ID)
	if err != nil {
		return err
	}
	for _, ch := range chapters {
		chapterTitles[ch.ID] = ch.Title
	}

	shown := 0
	for _, r := range records {
		if c.Chapter != "" && r.ChapterID != c.Chapter {
			continue
		}
		shown++

		where := "(unfiled)"
		if title, ok := chapterTitles[r.ChapterID]; ok {
			where = title
		}
		fmt.Printf("%s  %-28s in %-20s (ID: %s)\n", r.CreatedAt.Format("2006-01-02"), r.Title, where, r.ID)
	}

	if shown == 0 {
		fmt.Println("No journal entries.")
	}
	return nil
}

type JournalDeleteCmd struct {
	ID string `arg:"" help:"Record ID to delete."`
}

func (c *JournalDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	// The store reverts any milestone linked to this record back to pending.
	if err := ctx.Store.DeleteRecord(c.ID); err != nil {
		return err
	}

	fmt.Println("Journal entry deleted.")
	return nil
}
