package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/rebase"
	"github.com/julianstephens/sproutbook/internal/vault"
)

type ProfileAddCmd struct {
	Name      string `arg:"" help:"Profile name."`
	Mode      string `short:"m" help:"Starting mode (pregnant|born)." default:"pregnant"`
	DueDate   string `short:"d" help:"Estimated due date (YYYY-MM-DD), for pregnant mode."`
	Birthdate string `short:"b" help:"Birthdate (YYYY-MM-DD), for born mode."`
	Select    bool   `short:"s" help:"Make this the active profile." default:"true" negatable:""`
}

func (c *ProfileAddCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile := models.Profile{
		ID:        uuid.New().String(),
		Name:      c.Name,
		CreatedAt: time.Now().UTC(),
	}

	switch c.Mode {
	case "pregnant":
		profile.Mode = models.ModePregnant
		if c.DueDate != "" {
			d, err := parseDate(c.DueDate)
			if err != nil {
				return err
			}
			profile.EstimatedDueDate = &d
		}
	case "born":
		profile.Mode = models.ModeBorn
		if c.Birthdate == "" {
			return fmt.Errorf("born mode requires --birthdate")
		}
		d, err := parseDate(c.Birthdate)
		if err != nil {
			return err
		}
		profile.Birthdate = &d
	default:
		return fmt.Errorf("invalid mode: %s", c.Mode)
	}

	if err := ctx.Store.SaveProfile(profile); err != nil {
		return err
	}

	if c.Select {
		settings, err := ctx.Store.GetSettings()
		if err != nil {
			return err
		}
		settings.ActiveProfileID = profile.ID
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return err
		}
	}

	// Seed default vaults so the unlock dates track reference-date changes
	// from day one.
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	for _, age := range settings.DefaultVaultAges {
		v := models.Vault{
			ID:             uuid.New().String(),
			ProfileID:      profile.ID,
			TargetAgeYears: age,
			Status:         models.VaultStatusLocked,
		}
		if err := ctx.Store.AddVault(v); err != nil {
			return err
		}
	}

	fmt.Printf("Added profile: %s (ID: %s)\n", profile.Name, profile.ID)

	if ref, ok := profile.ReferenceDate(); ok {
		if err := regenerate(ctx, profile); err != nil {
			return err
		}
		if _, err := vault.NewScheduler(ctx.Store).Recalculate(profile.ID, ref); err != nil {
			return err
		}
		fmt.Println("Generated initial timeline.")
	} else {
		fmt.Println("No due date set; run 'sproutbook profile set-edd' to generate the timeline.")
	}
	return nil
}

type ProfileListCmd struct{}

func (c *ProfileListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profiles, err := ctx.Store.GetAllProfiles()
	if err != nil {
		return err
	}
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		fmt.Println("No profiles. Create one with 'sproutbook profile add'.")
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p.ID == settings.ActiveProfileID {
			marker = "*"
		}
		ref := "-"
		if d, ok := p.ReferenceDate(); ok {
			ref = formatDate(d)
		}
		fmt.Printf("%s %-20s %-9s ref=%s  (ID: %s)\n", marker, p.Name, p.Mode, ref, p.ID)
	}
	return nil
}

type ProfileShowCmd struct {
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *ProfileShowCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	fmt.Printf("Name:      %s\n", profile.Name)
	fmt.Printf("Mode:      %s\n", profile.Mode)
	fmt.Printf("Birthdate: %s\n", formatDatePtr(profile.Birthdate))
	fmt.Printf("Due date:  %s\n", formatDatePtr(profile.EstimatedDueDate))
	if profile.PreviousMode != "" {
		fmt.Printf("Undo:      switch from %s on %s can be undone\n",
			profile.PreviousMode, formatDatePtr(profile.ModeSwitchedAt))
	}
	fmt.Printf("ID:        %s\n", profile.ID)
	return nil
}

type ProfileSelectCmd struct {
	ID string `arg:"" help:"Profile ID to make active."`
}

func (c *ProfileSelectCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := ctx.Store.GetProfile(c.ID)
	if err != nil {
		return err
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	settings.ActiveProfileID = profile.ID
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return err
	}

	fmt.Printf("Active profile: %s\n", profile.Name)
	return nil
}

type ProfileSetEDDCmd struct {
	Date    string `arg:"" help:"Estimated due date (YYYY-MM-DD)."`
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *ProfileSetEDDCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}
	if profile.Mode != models.ModePregnant {
		return fmt.Errorf("due date only applies in pregnant mode; use 'sproutbook profile set-birthdate'")
	}

	return setReferenceDate(ctx, profile, c.Date, func(p *models.Profile, d time.Time) {
		p.EstimatedDueDate = &d
	})
}

type ProfileSetBirthdateCmd struct {
	Date    string `arg:"" help:"Birthdate (YYYY-MM-DD)."`
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *ProfileSetBirthdateCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}
	if profile.Mode != models.ModeBorn {
		return fmt.Errorf("birthdate only applies in born mode; use 'sproutbook birth record' to switch modes")
	}

	return setReferenceDate(ctx, profile, c.Date, func(p *models.Profile, d time.Time) {
		p.Birthdate = &d
	})
}

// setReferenceDate is the shared path for due-date and birthdate corrections:
// save the profile, rebase the existing timeline off the new date, fill any
// gaps, and recalculate vault unlock dates.
func setReferenceDate(ctx *Context, profile models.Profile, dateStr string, set func(*models.Profile, time.Time)) error {
	newRef, err := parseDate(dateStr)
	if err != nil {
		return err
	}

	var prevRef *time.Time
	if d, ok := profile.ReferenceDate(); ok {
		prev := d
		prevRef = &prev
	}

	set(&profile, newRef)
	if err := ctx.Store.SaveProfile(profile); err != nil {
		return err
	}

	if err := rebase.New(ctx.Store).Rebase(profile.ID, newRef, prevRef); err != nil {
		return err
	}
	if err := regenerate(ctx, profile); err != nil {
		return err
	}
	moved, err := vault.NewScheduler(ctx.Store).Recalculate(profile.ID, newRef)
	if err != nil {
		return err
	}

	fmt.Printf("Reference date set to %s; timeline rebased.\n", formatDate(newRef))
	if moved > 0 {
		fmt.Printf("Updated %d vault unlock date(s).\n", moved)
	}
	return nil
}

type ProfileToggleArchivedCmd struct {
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *ProfileToggleArchivedCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	profile.ShowArchivedChapters = !profile.ShowArchivedChapters
	if err := ctx.Store.SaveProfile(profile); err != nil {
		return err
	}

	if profile.ShowArchivedChapters {
		fmt.Println("Archived chapters are now shown.")
	} else {
		fmt.Println("Archived chapters are now hidden.")
	}
	return nil
}
