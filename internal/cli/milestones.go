package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/julianstephens/sproutbook/internal/catalog"
	"github.com/julianstephens/sproutbook/internal/models"
)

type MilestoneListCmd struct {
	Profile  string `short:"p" help:"Profile ID (defaults to active profile)."`
	Archived bool   `short:"a" help:"Include archived milestone instances."`
}

func (c *MilestoneListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	milestones, err := ctx.Store.GetMilestones(profile.ID)
	if err != nil {
		return err
	}

	shown := 0
	for _, m := range milestones {
		if m.IsArchived() && !c.Archived {
			continue
		}
		shown++

		label := m.TemplateID
		if tmpl, ok := catalog.MilestoneByID(m.TemplateID); ok {
			label = tmpl.Label
		}
		fmt.Printf("%-28s %-8s expected %s  (ID: %s)\n", label, m.Status, formatDate(m.ExpectedDate), m.ID)
	}

	if shown == 0 {
		fmt.Println("No milestones yet. Run 'sproutbook generate' to build the timeline.")
	}
	return nil
}

type MilestoneFillCmd struct {
	ID     string `arg:"" help:"Milestone instance ID."`
	Record string `short:"r" help:"Existing journal record ID to link instead of creating one."`
	Title  string `short:"t" help:"Record title (defaults to the milestone label)."`
	Body   string `short:"b" help:"Record body text."`
	Date   string `short:"d" help:"Date it happened (YYYY-MM-DD, defaults to today)."`
}

// Run records a milestone as happened: links an existing journal record, or
// creates one in the milestone's chapter.
func (c *MilestoneFillCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	m, err := ctx.Store.GetMilestone(c.ID)
	if err != nil {
		return err
	}
	if m.IsArchived() {
		return fmt.Errorf("milestone is archived; unarchive its chapter first")
	}
	if m.RecordID != "" {
		return fmt.Errorf("milestone already has a linked record; clear it first")
	}

	filled := time.Now().UTC()
	if c.Date != "" {
		d, err := parseDate(c.Date)
		if err != nil {
			return err
		}
		filled = d
	}

	var record models.Record
	if c.Record != "" {
		record, err = ctx.Store.GetRecord(c.Record)
		if err != nil {
			return err
		}
		if record.ProfileID != m.ProfileID {
			return fmt.Errorf("record belongs to a different profile")
		}
	} else {
		title := c.Title
		if title == "" {
			if tmpl, ok := catalog.MilestoneByID(m.TemplateID); ok {
				title = tmpl.Label
			} else {
				title = m.TemplateID
			}
		}
		record = models.Record{
			ID:        uuid.New().String(),
			ProfileID: m.ProfileID,
			ChapterID: m.ChapterID,
			Title:     title,
			Body:      c.Body,
			CreatedAt: time.Now().UTC(),
		}
		if err := ctx.Store.AddRecord(record); err != nil {
			return err
		}
	}

	m.RecordID = record.ID
	m.FilledDate = &filled
	m.Status = models.MilestoneStatusFilled
	if err := ctx.Store.UpdateMilestone(m); err != nil {
		return err
	}

	fmt.Printf("Filled milestone: %s (record ID: %s)\n", record.Title, record.ID)
	return nil
}

type MilestoneClearCmd struct {
	ID           string `arg:"" help:"Milestone instance ID."`
	DeleteRecord bool   `help:"Also delete the linked journal record."`
}

func (c *MilestoneClearCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	m, err := ctx.Store.GetMilestone(c.ID)
	if err != nil {
		return err
	}
	if m.RecordID == "" {
		fmt.Println("Milestone has no linked record.")
		return nil
	}

	recordID := m.RecordID
	m.RecordID = ""
	m.FilledDate = nil
	m.Status = models.MilestoneStatusPending
	if err := ctx.Store.UpdateMilestone(m); err != nil {
		return err
	}

	if c.DeleteRecord {
		if err := ctx.Store.DeleteRecord(recordID); err != nil {
			return err
		}
		fmt.Println("Milestone cleared and record deleted.")
	} else {
		fmt.Println("Milestone cleared; the record remains as a journal entry.")
	}
	return nil
}
