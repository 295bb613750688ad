// Package state holds the snapshot shared by the background sync loop and
// the TUI.
//
// The poller is the only writer: after each sync it calls Store.Update with
// the collections the resource managers hold. Readers call Store.Snapshot and
// receive a copy, so rendering never races a sync in flight.
//
// ConsecutiveFailures counts syncs that ended in error and resets on the
// first success. IsOffline reports two or more in a row, which the TUI uses to
// switch its header to an offline banner while still showing cached data.
package state
