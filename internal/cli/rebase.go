package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/rebase"
	"github.com/julianstephens/sproutbook/internal/vault"
)

// RebaseCmd re-derives all windows from a reference date. With no argument it
// rebases against the profile's current reference date, which recovers from
// partial writes or hand-edited stores. With a date argument it moves the
// reference date and shifts the timeline, like set-edd/set-birthdate do.
type RebaseCmd struct {
	Date     string `arg:"" optional:"" help:"New reference date (YYYY-MM-DD). Defaults to the profile's current reference date."`
	Previous string `help:"Reference date the existing timeline was generated from (YYYY-MM-DD). Defaults to the profile's current reference date."`
	Profile  string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *RebaseCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	currentRef, hasRef := profile.ReferenceDate()

	newRef := currentRef
	if c.Date != "" {
		newRef, err = parseDate(c.Date)
		if err != nil {
			return err
		}
	} else if !hasRef {
		return fmt.Errorf("profile has no reference date to rebase against")
	}

	var prevRef *time.Time
	if c.Previous != "" {
		prev, err := parseDate(c.Previous)
		if err != nil {
			return err
		}
		prevRef = &prev
	} else if hasRef && !currentRef.Equal(newRef) {
		prev := currentRef
		prevRef = &prev
	}

	if c.Date != "" && !newRef.Equal(currentRef) {
		if profile.Mode == models.ModeBorn {
			profile.Birthdate = &newRef
		} else {
			profile.EstimatedDueDate = &newRef
		}
		if err := ctx.Store.SaveProfile(profile); err != nil {
			return err
		}
	}

	if err := rebase.New(ctx.Store).Rebase(profile.ID, newRef, prevRef); err != nil {
		return err
	}
	if err := regenerate(ctx, profile); err != nil {
		return err
	}
	if _, err := vault.NewScheduler(ctx.Store).Recalculate(profile.ID, newRef); err != nil {
		return err
	}

	fmt.Printf("Timeline rebased against %s.\n", formatDate(newRef))
	return nil
}
