package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/sproutbook/internal/transition"
)

type BirthCmd struct {
	Date    string `arg:"" help:"Birthdate (YYYY-MM-DD)."`
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
	Yes     bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BirthCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	birthdate, err := parseDate(c.Date)
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Record birth on %s?", formatDate(birthdate))).
					Description("Pregnancy chapters will be archived (not deleted) and the born timeline generated. This can be undone with 'sproutbook birth undo'.").
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive form error: %w", err)
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := transition.NewManager(ctx.Store).SwitchToBorn(profile.ID, birthdate); err != nil {
		return err
	}

	fmt.Printf("Welcome to the world! Timeline switched to born mode (birthdate %s).\n", formatDate(birthdate))
	fmt.Println("Pregnancy chapters were archived; undo with 'sproutbook birth undo'.")
	return nil
}

type BirthUndoCmd struct {
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *BirthUndoCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	err = transition.NewManager(ctx.Store).UndoSwitchToBorn(profile.ID)
	if errors.Is(err, transition.ErrNothingToUndo) {
		fmt.Println("Nothing to undo: no recorded mode switch for this profile.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("Switched back to pregnancy mode; archived chapters restored.")
	return nil
}
