// Package app is the composition root of keep.
//
// # Overview
//
// New loads configuration, builds the logger, opens the snapshot store,
// creates the API client and the session, and wires the three resource
// managers to them. The CLI and the TUI both work through an *App.
//
// # Components
//
//   - app.go: New, Close, Sync and Publish
//   - poller.go: background sync loop with exponential backoff
//   - run.go: RunTUI, which starts the poller and the Bubble Tea program
//
// # Sync Order
//
//	Sync(ctx)
//	  ├─> Categories.Refresh
//	  ├─> Notes.Refresh      only when categories are known, or signed out
//	  ├─> Tasks.Refresh
//	  └─> State.Update       collections + error bookkeeping
//
// Notes resolve their category ids against the category collection, so they
// are refreshed after it. When the session is signed out every manager still
// runs so each one applies its own failure policy; the repeated
// resource.ErrNotAuthenticated is reported once.
//
// # Polling
//
// StartPoller syncs every Config.PollInterval (default 30s). Consecutive
// failures double the wait up to five minutes; a success resets it.
//
// # Logging
//
// The logger is a *logrus.Logger configured from log_level and log_format.
// The TUI logs to log_file so output does not corrupt the screen; CLI
// commands log to stderr.
package app
