package app

import (
	"context"

	"github.com/lezoo/keep/internal/prefs"
	"github.com/lezoo/keep/internal/ui"
)

// RunTUI starts the background poller and blocks in the TUI until the user
// quits or ctx is cancelled.
func RunTUI(ctx context.Context, a *App, prefsPath string) error {
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		a.Log.WithError(err).Warn("using default preferences")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Populate the store before the first frame.
	if err := a.Sync(ctx); err != nil {
		a.Log.WithError(err).Warn("initial sync failed")
	}
	StartPoller(ctx, a, a.PollInterval())

	account := ""
	if u, ok := a.Session.User(); ok {
		account = u.Email
	}

	return ui.Run(ui.Options{
		Context:    ctx,
		Store:      a.State,
		Notes:      a.Notes,
		Tasks:      a.Tasks,
		Categories: a.Categories,
		Sync:       a.Sync,
		Publish:    a.Publish,
		Account:    account,
		ThemeName:  userPrefs.Theme,
		StartTab:   userPrefs.StartTab,
		PrefsPath:  prefsPath,
	})
}
