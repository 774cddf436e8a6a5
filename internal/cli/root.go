package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/sproutbook/internal/models"
	"github.com/julianstephens/sproutbook/internal/storage"
	"github.com/julianstephens/sproutbook/internal/timeline"
)

type Context struct {
	Store  storage.Provider
	Runner *timeline.Runner
	Debug  bool
}

// generateKey scopes singleflight coalescing per profile.
func generateKey(profileID string) string {
	return "generate:" + profileID
}

// activeProfile loads the profile commands operate on: the --profile flag
// value when given, the stored active profile otherwise.
func activeProfile(ctx *Context, profileID string) (models.Profile, error) {
	if profileID != "" {
		return ctx.Store.GetProfile(profileID)
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return models.Profile{}, err
	}
	if settings.ActiveProfileID == "" {
		return models.Profile{}, fmt.Errorf("no active profile; create one with 'sproutbook profile add' or pass --profile")
	}
	return ctx.Store.GetProfile(settings.ActiveProfileID)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}

// regenerate runs a coalesced generation pass for the profile. Concurrent
// callers fold into the in-flight pass.
func regenerate(ctx *Context, profile models.Profile) error {
	gen := timeline.NewGenerator(ctx.Store)
	return ctx.Runner.Do(generateKey(profile.ID), func() error {
		return gen.Generate(profile)
	})
}
