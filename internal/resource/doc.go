// Package resource holds the cached collections of categories, notes and
// tasks. Each manager keeps an in-memory slice, mirrors it into a kv.Store
// snapshot, and talks to the API through a narrow interface so tests can run
// against httptest servers.
package resource
