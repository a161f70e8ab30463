// Package availability polls provider reachability and publishes
// transition events.
//
// Each watched provider gets its own control goroutine, which is the sole
// mutator of that provider's state (available flag, attempt count, backoff
// multiplier). The loop performs one synchronous probe on start, then
// polls while the provider is unavailable at baseInterval scaled by the
// backoff multiplier. Three kinds of events reach subscribers:
//
//   - availability_changed: the provider's observed status changed
//   - advisory: the provider has stayed unreachable past the
//     early-warning threshold (emitted once per outage)
//   - exhausted: the attempt budget ran out; polling stopped and will
//     only resume on an explicit Recheck
//
// The poller never selects providers; it only observes them. Timing
// thresholds are policy, not constants, and come from a Policy value.
package availability
