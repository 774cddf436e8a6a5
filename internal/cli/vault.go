package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/vault"
)

type VaultAddCmd struct {
	Age     int    `arg:"" help:"Target age in years to unlock at."`
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *VaultAddCmd) Validate() error {
	if c.Age < 1 {
		return fmt.Errorf("target age must be at least 1")
	}
	return nil
}

func (c *VaultAddCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	v := models.Vault{
		ID:             uuid.New().String(),
		ProfileID:      profile.ID,
		TargetAgeYears: c.Age,
		Status:         models.VaultStatusLocked,
	}
	if err := ctx.Store.AddVault(v); err != nil {
		return err
	}

	if ref, ok := profile.ReferenceDate(); ok {
		if _, err := vault.NewScheduler(ctx.Store).Recalculate(profile.ID, ref); err != nil {
			return err
		}
	}

	fmt.Printf("Added vault unlocking at age %d (ID: %s)\n", c.Age, v.ID)
	return nil
}

type VaultListCmd struct {
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *VaultListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	// Lock states may have flipped since the last write.
	if _, err := vault.NewScheduler(ctx.Store).RefreshStatuses(profile.ID); err != nil {
		return err
	}

	vaults, err := ctx.Store.GetVaults(profile.ID)
	if err != nil {
		return err
	}

	if len(vaults) == 0 {
		fmt.Println("No vaults. Create one with 'sproutbook vault add <age>'.")
		return nil
	}

	for _, v := range vaults {
		unlock := "unscheduled (no reference date)"
		if v.UnlockDate != nil {
			unlock = formatDate(*v.UnlockDate)
		}
		fmt.Printf("Age %-3d %-9s unlocks %s  (ID: %s)\n", v.TargetAgeYears, v.Status, unlock, v.ID)
	}
	return nil
}

type VaultRecalcCmd struct {
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *VaultRecalcCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	ref, ok := profile.ReferenceDate()
	if !ok {
		return fmt.Errorf("profile has no reference date; set one before scheduling vaults")
	}

	changed, err := vault.NewScheduler(ctx.Store).Recalculate(profile.ID, ref)
	if err != nil {
		return err
	}

	fmt.Printf("Recalculated %d vault(s).\n", changed)
	return nil
}

type VaultDeleteCmd struct {
	ID string `arg:"" help:"Vault ID to delete."`
}

func (c *VaultDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if err := ctx.Store.DeleteVault(c.ID); err != nil {
		return err
	}

	fmt.Println("Vault deleted.")
	return nil
}
