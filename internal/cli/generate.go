package cli

import (
	"fmt"

	"github.com/julianstephens/sproutbook/internal/timeline"
)

type GenerateCmd struct {
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *GenerateCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	if _, ok := profile.ReferenceDate(); !ok {
		fmt.Println("Profile has no reference date; nothing to generate.")
		return nil
	}

	if err := regenerate(ctx, profile); err != nil {
		return err
	}

	fmt.Println("Timeline is up to date.")
	return nil
}

type CleanupCmd struct {
	Profile string `short:"p" help:"Profile ID (defaults to active profile)."`
}

func (c *CleanupCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	profile, err := activeProfile(ctx, c.Profile)
	if err != nil {
		return err
	}

	n, err := timeline.NewGenerator(ctx.Store).CleanupDuplicateChapters(profile.ID)
	if err != nil {
		return err
	}

	if n == 0 {
		fmt.Println("No duplicate chapters found.")
	} else {
		fmt.Printf("Archived %d duplicate chapter(s); kept the oldest of each title.\n", n)
	}
	return nil
}
