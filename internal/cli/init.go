package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/vault"
)

type InitCmd struct {
	NoProfile bool `help:"Skip the initial profile prompt."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized sproutbook storage at: %s\n", ctx.Store.GetConfigPath())

	if c.NoProfile {
		return nil
	}

	existing, err := ctx.Store.GetAllProfiles()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	var (
		name    string
		mode    string
		refDate string
	)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name for the first profile").
				Value(&name),
			huh.NewSelect[string]().
				Title("Where are you in the journey?").
				Options(
					huh.NewOption("Expecting (pregnancy)", string(models.ModePregnant)),
					huh.NewOption("Baby is here (born)", string(models.ModeBorn)),
				).
				Value(&mode),
			huh.NewInput().
				Title("Due date or birthdate (YYYY-MM-DD, empty to skip)").
				Value(&refDate),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if name == "" {
		fmt.Println("No profile created. Add one later with 'sproutbook profile add'.")
		return nil
	}

	profile := models.Profile{
		ID:        uuid.New().String(),
		Name:      name,
		Mode:      models.Mode(mode),
		CreatedAt: time.Now().UTC(),
	}
	if refDate != "" {
		ref, err := parseDate(refDate)
		if err != nil {
			return err
		}
		if profile.Mode == models.ModeBorn {
			profile.Birthdate = &ref
		} else {
			profile.EstimatedDueDate = &ref
		}
	}
	if err := ctx.Store.SaveProfile(profile); err != nil {
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

	if ref, ok := profile.ReferenceDate(); ok {
		if err := regenerate(ctx, profile); err != nil {
			return err
		}
		if _, err := vault.NewScheduler(ctx.Store).Recalculate(profile.ID, ref); err != nil {
			return err
		}
	}

	fmt.Printf("Created profile %s (%s mode).\n", profile.Name, profile.Mode)
	return nil
}
