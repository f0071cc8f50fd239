// Package flagstore provides the shared key/value store backing the request
// pipeline: maintenance-mode flags and rate-limit counters.
//
// Two primitives are exposed. Store is a typed TTL key/value store used for
// maintenance state. Counter is an atomic increment-with-expiry used for
// rate-limit windows; its atomicity is what prevents lost updates under
// concurrent bursts, so backends must implement it with a single atomic
// operation (a mutex-guarded map in memory, a Lua script on Redis).
//
// Both interfaces are injected; nothing in this module holds process-global
// state.
package flagstore
