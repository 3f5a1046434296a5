// Package cache holds reference data lookups for a bounded time.
//
// Cache is the storage contract ({Get, Set, Has} over opaque bytes) with
// in-memory, file and Redis backends. Store wraps a factors.ReferenceStore
// and serves repeated factor, utility and lookup reads from a Cache; it is
// injected by the CLI wiring only, so the resolution code never sees it.
package cache
