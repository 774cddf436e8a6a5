package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/sproutbook/internal/backup"
	"github.com/julianstephens/sproutbook/internal/catalog"
	"github.com/julianstephens/sproutbook/internal/migration"
	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage"
	"github.com/julianstephens/sproutbook/internal/storage/migrations"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	storeReachable := false

	if err := checkStoreReachable(ctx); err != nil {
		fmt.Printf("❌ Store reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Store reachable: OK\n")
		storeReachable = true
	}

	if err := checkSchemaVersion(ctx); err != nil {
		fmt.Printf("❌ Schema version: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Schema version: OK\n")
	}

	if err := checkBackupsPresent(ctx); err != nil {
		fmt.Printf("⚠ Backups present: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Backups present: OK\n")
	}

	if storeReachable {
		if err := checkTimelineInvariants(ctx); err != nil {
			fmt.Printf("❌ Timeline invariants: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Timeline invariants: OK\n")
		}
	} else {
		fmt.Printf("⊘ Timeline invariants: SKIPPED (store not reachable)\n")
	}

	if err := checkClockTimezone(); err != nil {
		fmt.Printf("❌ Clock/timezone: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	if sqliteStore, ok := ctx.Store.(*storage.SQLiteStore); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}

	return nil
}

func checkSchemaVersion(ctx *Context) error {
	sqliteStore, ok := ctx.Store.(*storage.SQLiteStore)
	if !ok {
		// JSON store has no schema version
		return nil
	}

	db := sqliteStore.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	return migration.NewRunner(db, migrations.FS).ValidateVersion()
}

func checkBackupsPresent(ctx *Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'sproutbook backup create'")
	}

	return nil
}

// checkTimelineInvariants verifies the structural invariants the engine
// maintains: at most one active template chapter per title, at most one
// non-archived milestone instance per template, filled milestones linked to
// a record, and windows consistent with the profile's reference date.
func checkTimelineInvariants(ctx *Context) error {
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	profiles, err := ctx.Store.GetAllProfiles()
	if err != nil {
		return fmt.Errorf("failed to get profiles: %w", err)
	}

	for _, p := range profiles {
		if err := checkProfileInvariants(ctx, p); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}
	return nil
}

func checkProfileInvariants(ctx *Context, p models.Profile) error {
	chapters, err := ctx.Store.GetChapters(p.ID)
	if err != nil {
		return err
	}
	milestones, err := ctx.Store.GetMilestones(p.ID)
	if err != nil {
		return err
	}

	activeTitles := make(map[string]bool)
	for _, c := range chapters {
		if !c.IsActive() || c.TemplateID == "" {
			continue
		}
		if activeTitles[c.Title] {
			return fmt.Errorf("duplicate active chapter %q - run 'sproutbook cleanup'", c.Title)
		}
		activeTitles[c.Title] = true

		if c.EndDate != nil && !c.StartDate.Before(*c.EndDate) {
			return fmt.Errorf("chapter %q has an empty or inverted window", c.Title)
		}
	}

	liveTemplates := make(map[string]bool)
	for _, m := range milestones {
		if m.IsArchived() {
			continue
		}
		if liveTemplates[m.TemplateID] {
			return fmt.Errorf("duplicate live milestone instance for template %s", m.TemplateID)
		}
		liveTemplates[m.TemplateID] = true

		if m.Status == models.MilestoneStatusFilled && m.RecordID == "" {
			return fmt.Errorf("milestone %s is filled but has no linked record", m.ID)
		}
	}

	// Windows must agree with the reference date when one is set.
	if ref, ok := p.ReferenceDate(); ok {
		for _, c := range chapters {
			if !c.IsActive() {
				continue
			}
			tmpl, ok := catalog.MatchChapter(c, p.Mode)
			if !ok {
				continue
			}
			start, end := catalog.ChapterWindow(ref, tmpl)
			if !c.StartDate.Equal(start) || c.EndDate == nil || !c.EndDate.Equal(end) {
				return fmt.Errorf("chapter %q window is stale - run 'sproutbook rebase'", c.Title)
			}
		}
	}

	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if _, err := time.LoadLocation("UTC"); err != nil {
		return fmt.Errorf("failed to load UTC location: %w", err)
	}
	return nil
}
