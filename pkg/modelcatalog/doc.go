// Package modelcatalog caches per-provider model enumerations.
//
// Backends enumerate models on a best-effort basis, so the catalog keeps
// the last good snapshot per provider together with its refresh
// timestamp. An empty enumeration never overwrites a non-empty snapshot;
// a degraded backend answer must not wipe a usable cache.
//
// Two stores are provided: an in-memory store for ephemeral use and a
// SQLite-backed store that survives restarts. Refreshes are triggered
// three ways: by the availability poller when a provider recovers, by
// error classification when a model is reported missing, and on a cron
// schedule via Scheduler.
package modelcatalog
