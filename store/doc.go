// Package store is the Redis-backed credential store for the two durable
// record kinds of the auth core: pending login codes and active refresh
// tokens. Records are keyed by credential value with a per-user owner
// pointer, so issuing a new credential atomically invalidates the user's
// previous one.
//
// All state transitions run as Lua scripts: "overwrite prior record for this
// user" is a single transactional write, and "find-then-delete" (consume,
// renew-after-expiry) is a single read-modify-delete. Expired records are
// reaped lazily at lookup time; no background eviction runs.
package store
