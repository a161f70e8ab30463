package availability

import "time"

// EventType discriminates poller events.
type EventType string

const (
	// EventAvailabilityChanged reports that a provider's observed
	// availability flipped.
	EventAvailabilityChanged EventType = "availability_changed"

	// EventAdvisory reports that a provider has stayed unreachable past
	// the early-warning threshold. Emitted at most once per outage.
	EventAdvisory EventType = "advisory"

	// EventExhausted reports that the attempt budget ran out. Terminal
	// until an explicit Recheck.
	EventExhausted EventType = "exhausted"
)

// Event is a single poller observation delivered to subscribers.
type Event struct {
	ProviderID   string
	Type         EventType
	Available    bool
	AttemptCount int
	Message      string
	Timestamp    time.Time
}

// State is a snapshot of a watched provider's availability.
type State struct {
	// Available is the last observed probe result.
	Available bool

	// AttemptCount is the number of failed probe ticks in the current
	// outage. Zero while available.
	AttemptCount int

	// BackoffMultiplier scales the base poll interval. One until the
	// backoff threshold is crossed.
	BackoffMultiplier int

	// Exhausted reports whether the attempt budget ran out. An exhausted
	// watch does not poll until Recheck is called.
	Exhausted bool
}
