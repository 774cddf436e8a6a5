package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/sproutbook/internal/cli"
	"github.com/julianstephens/sproutbook/internal/errors"
	"github.com/julianstephens/sproutbook/internal/logger"
	"github.com/julianstephens/sproutbook/internal/storage"
	"github.com/julianstephens/sproutbook/internal/timeline"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Store file path." type:"path" default:"~/.config/sproutbook/sproutbook.db"`
	Debug   bool   `help:"Enable debug logging."`

	Init    cli.InitCmd `cmd:"" help:"Initialize sproutbook storage."`
	Profile struct {
		Add            cli.ProfileAddCmd            `cmd:"" help:"Create a profile."`
		List           cli.ProfileListCmd           `cmd:"" help:"List profiles."`
		Show           cli.ProfileShowCmd           `cmd:"" help:"Show profile details."`
		Select         cli.ProfileSelectCmd         `cmd:"" help:"Set the active profile."`
		SetEdd         cli.ProfileSetEDDCmd         `cmd:"" name:"set-edd" help:"Set the estimated due date and rebase the timeline."`
		SetBirthdate   cli.ProfileSetBirthdateCmd   `cmd:"" name:"set-birthdate" help:"Correct the birthdate and rebase the timeline."`
		ToggleArchived cli.ProfileToggleArchivedCmd `cmd:"" name:"toggle-archived" help:"Toggle visibility of archived chapters."`
	} `cmd:"" help:"Manage profiles."`
	Generate cli.GenerateCmd `cmd:"" help:"Generate missing chapters and milestones."`
	Cleanup  cli.CleanupCmd  `cmd:"" help:"Archive duplicate chapters."`
	Rebase   cli.RebaseCmd   `cmd:"" help:"Recompute all windows from a reference date."`
	Birth    struct {
		Record cli.BirthCmd     `cmd:"" help:"Record a birth and switch to born mode."`
		Undo   cli.BirthUndoCmd `cmd:"" help:"Undo the last switch to born mode."`
	} `cmd:"" help:"Record or undo a birth event."`
	Chapter struct {
		List      cli.ChapterListCmd      `cmd:"" help:"List chapters."`
		Add       cli.ChapterAddCmd       `cmd:"" help:"Add a custom chapter."`
		Rename    cli.ChapterRenameCmd    `cmd:"" help:"Rename a chapter."`
		Archive   cli.ChapterArchiveCmd   `cmd:"" help:"Archive a chapter."`
		Unarchive cli.ChapterUnarchiveCmd `cmd:"" help:"Restore an archived chapter."`
	} `cmd:"" help:"Manage chapters."`
	Milestone struct {
		List  cli.MilestoneListCmd  `cmd:"" help:"List milestone instances."`
		Fill  cli.MilestoneFillCmd  `cmd:"" help:"Record a milestone as happened."`
		Clear cli.MilestoneClearCmd `cmd:"" help:"Unlink a milestone's record."`
	} `cmd:"" help:"Manage milestones."`
	Journal struct {
		Add    cli.JournalAddCmd    `cmd:"" help:"Add a journal entry."`
		List   cli.JournalListCmd   `cmd:"" help:"List journal entries."`
		Delete cli.JournalDeleteCmd `cmd:"" help:"Delete a journal entry."`
	} `cmd:"" help:"Manage journal entries."`
	Vault struct {
		Add    cli.VaultAddCmd    `cmd:"" help:"Add a time-locked vault."`
		List   cli.VaultListCmd   `cmd:"" help:"List vaults."`
		Recalc cli.VaultRecalcCmd `cmd:"" help:"Recalculate vault unlock dates."`
		Delete cli.VaultDeleteCmd `cmd:"" help:"Delete a vault."`
	} `cmd:"" help:"Manage time-locked vaults."`
	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a backup of the store."`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore the store from a backup."`
	} `cmd:"" help:"Manage backups."`
	Doctor cli.DoctorCmd `cmd:"" help:"Run health checks on the store and timeline."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sproutbook"),
		kong.Description("Life timeline companion for pregnancy and early childhood"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: filepath.Dir(CLI.Config),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Storage backend follows the file extension.
	var store storage.Provider
	if filepath.Ext(CLI.Config) == ".json" {
		store = storage.NewJSONStore(CLI.Config)
	} else {
		store = storage.NewSQLiteStore(CLI.Config)
	}

	appCtx := &cli.Context{
		Store:  store,
		Runner: timeline.NewRunner(),
		Debug:  CLI.Debug,
	}

	errors.Fatal(ctx.Run(appCtx))
}
