// Package ui implements keep's terminal interface with Bubble Tea.
//
// The model never talks to the API directly for reads: a tick re-reads the
// shared state.Store, which the background poller fills. Writes (toggle,
// create, delete) and manual refresh run as tea.Cmds against the resource
// managers, then publish the managers' collections back into the store.
//
// Layout, top to bottom: a one-line header (account, counts, sync state), the
// tab bar, the list with an optional detail pane on wide terminals, and a
// footer carrying prompts, status messages and the short key help.
package ui
