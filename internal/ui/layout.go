package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutSplitWidth is the minimum width to show the detail pane beside
	// the list.
	LayoutSplitWidth = 100

	// LayoutListRatio is the share of a split layout given to the list.
	LayoutListRatio = 0.45
)

// Timing constants.
const (
	// DefaultUIInterval is how often the UI re-reads the shared snapshot.
	DefaultUIInterval = time.Second

	// ActionTimeout bounds a single write or manual sync.
	ActionTimeout = 15 * time.Second
)
