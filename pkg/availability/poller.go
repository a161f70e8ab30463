package availability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/providers"
)

const eventBufferSize = 64

// RefreshFunc is called when a watched provider becomes available, so the
// caller can warm its model catalog. It runs on the watch goroutine and
// should return promptly.
type RefreshFunc func(ctx context.Context, provider providers.Provider)

// Poller watches provider availability. One goroutine per watched
// provider owns that provider's state; everything else only reads
// snapshots.
type Poller struct {
	policy  Policy
	logger  *slog.Logger
	refresh RefreshFunc
	events  chan Event

	mu      sync.Mutex
	watches map[string]*watch
	closed  bool
}

// watch is one provider's polling state. Its state field is mutated only
// by the run goroutine; the mutex guards snapshot reads.
type watch struct {
	provider providers.Provider
	cancel   context.CancelFunc
	stopped  chan struct{}
	recheck  chan struct{}

	mu    sync.Mutex
	state State
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the poller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// WithModelRefresh installs a hook invoked each time a watched provider
// becomes available.
func WithModelRefresh(fn RefreshFunc) Option {
	return func(p *Poller) { p.refresh = fn }
}

// NewPoller creates a poller with the given policy.
func NewPoller(policy Policy, opts ...Option) (*Poller, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid polling policy: %w", err)
	}

	p := &Poller{
		policy:  policy,
		logger:  slog.Default(),
		events:  make(chan Event, eventBufferSize),
		watches: make(map[string]*watch),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Events returns the stream of poller events. Subscribers should drain it
// continuously; events are dropped when the buffer is full.
func (p *Poller) Events() <-chan Event {
	return p.events
}

// Watch starts polling a provider. It fails if the provider is already
// watched or the poller is closed. The initial probe runs asynchronously;
// its result arrives as an availability_changed event.
func (p *Poller) Watch(provider providers.Provider) error {
	id := provider.Name()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("poller is closed")
	}
	if _, ok := p.watches[id]; ok {
		return fmt.Errorf("provider %q already watched", id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &watch{
		provider: provider,
		cancel:   cancel,
		stopped:  make(chan struct{}),
		recheck:  make(chan struct{}, 1),
		state:    State{BackoffMultiplier: 1},
	}
	p.watches[id] = w

	go p.run(ctx, w)

	p.logger.Info("availability watch started", "provider", id)
	return nil
}

// Unwatch stops polling a provider and waits for its goroutine to exit.
func (p *Poller) Unwatch(id string) error {
	p.mu.Lock()
	w, ok := p.watches[id]
	if ok {
		delete(p.watches, id)
	}
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("provider %q not watched", id)
	}

	w.cancel()
	<-w.stopped

	p.logger.Info("availability watch stopped", "provider", id)
	return nil
}

// State returns a snapshot of a watched provider's availability.
func (p *Poller) State(id string) (State, bool) {
	p.mu.Lock()
	w, ok := p.watches[id]
	p.mu.Unlock()

	if !ok {
		return State{}, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, true
}

// Recheck asks a watch to probe immediately. It is the only way to resume
// an exhausted watch: counters reset and the loop starts over as if the
// watch had just begun.
func (p *Poller) Recheck(id string) error {
	p.mu.Lock()
	w, ok := p.watches[id]
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("provider %q not watched", id)
	}

	select {
	case w.recheck <- struct{}{}:
	default:
		// A recheck is already pending.
	}
	return nil
}

// Close stops all watches and waits for their goroutines to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	watches := make([]*watch, 0, len(p.watches))
	for _, w := range p.watches {
		watches = append(watches, w)
	}
	p.watches = make(map[string]*watch)
	p.mu.Unlock()

	for _, w := range watches {
		w.cancel()
		<-w.stopped
	}
}

// run is the control loop for one provider. It is the sole mutator of the
// watch state. Probes are issued strictly one at a time, so a slow probe
// can never overlap the next tick.
func (p *Poller) run(ctx context.Context, w *watch) {
	defer close(w.stopped)

	// The initial synchronous check does not count against the attempt
	// budget.
	available := w.provider.IsAvailable(ctx)
	if ctx.Err() != nil {
		return
	}
	p.setInitial(ctx, w, available)

	for {
		w.mu.Lock()
		state := w.state
		w.mu.Unlock()

		switch {
		case state.Exhausted:
			if !p.waitForRecheck(ctx, w) {
				return
			}
			p.restart(ctx, w)

		case state.Available:
			if !p.waitAvailable(ctx, w) {
				return
			}
			p.tickAvailable(ctx, w)

		default:
			interval := p.policy.BaseInterval * time.Duration(state.BackoffMultiplier)
			fired, ok := p.waitUnavailable(ctx, w, interval)
			if !ok {
				return
			}
			if fired {
				p.tickUnavailable(ctx, w)
			} else {
				p.restart(ctx, w)
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}

// setInitial records the result of the first probe and announces the
// provider's starting status.
func (p *Poller) setInitial(ctx context.Context, w *watch, available bool) {
	w.mu.Lock()
	w.state = State{Available: available, BackoffMultiplier: 1}
	w.mu.Unlock()

	id := w.provider.Name()
	p.logger.Info("initial availability check",
		"provider", id,
		"available", available,
	)
	p.emit(Event{
		ProviderID: id,
		Type:       EventAvailabilityChanged,
		Available:  available,
	})
	if available {
		p.refreshModels(ctx, w)
	}
}

// restart handles an explicit recheck: counters reset and one uncounted
// probe runs immediately, exactly like the watch starting over.
func (p *Poller) restart(ctx context.Context, w *watch) {
	w.mu.Lock()
	wasAvailable := w.state.Available
	w.state = State{Available: wasAvailable, BackoffMultiplier: 1}
	w.mu.Unlock()

	available := w.provider.IsAvailable(ctx)
	if ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	changed := available != w.state.Available
	w.state = State{Available: available, BackoffMultiplier: 1}
	w.mu.Unlock()

	p.logger.Info("availability recheck",
		"provider", w.provider.Name(),
		"available", available,
	)
	if changed {
		p.emit(Event{
			ProviderID: w.provider.Name(),
			Type:       EventAvailabilityChanged,
			Available:  available,
		})
		if available {
			p.refreshModels(ctx, w)
		}
	}
}

// waitForRecheck parks an exhausted watch. Returns false when the watch
// is being shut down.
func (p *Poller) waitForRecheck(ctx context.Context, w *watch) bool {
	select {
	case <-ctx.Done():
		return false
	case <-w.recheck:
		return true
	}
}

// waitAvailable parks a healthy watch until the gentle recheck timer
// fires or an explicit recheck arrives. With RecheckInterval zero there
// is no timer: a healthy provider is not polled at all.
func (p *Poller) waitAvailable(ctx context.Context, w *watch) bool {
	if p.policy.RecheckInterval <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-w.recheck:
			return true
		}
	}

	timer := time.NewTimer(p.policy.RecheckInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-w.recheck:
		return true
	case <-timer.C:
		return true
	}
}

// waitUnavailable sleeps one poll interval during an outage. The first
// return value is true when the tick timer fired, false when an explicit
// recheck arrived instead; the second is false on shutdown.
func (p *Poller) waitUnavailable(ctx context.Context, w *watch, interval time.Duration) (bool, bool) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, false
	case <-w.recheck:
		return false, true
	case <-timer.C:
		return true, true
	}
}

// tickAvailable probes a healthy provider and handles the
// available→unavailable transition.
func (p *Poller) tickAvailable(ctx context.Context, w *watch) {
	available := w.provider.IsAvailable(ctx)
	if ctx.Err() != nil {
		return
	}
	if available {
		return
	}

	w.mu.Lock()
	w.state = State{Available: false, BackoffMultiplier: 1}
	w.mu.Unlock()

	p.logger.Warn("provider became unavailable", "provider", w.provider.Name())
	p.emit(Event{
		ProviderID: w.provider.Name(),
		Type:       EventAvailabilityChanged,
		Available:  false,
	})
}

// tickUnavailable runs one counted probe during an outage.
func (p *Poller) tickUnavailable(ctx context.Context, w *watch) {
	id := w.provider.Name()

	available := w.provider.IsAvailable(ctx)
	if ctx.Err() != nil {
		return
	}

	if available {
		// attemptCount and backoffMultiplier reset atomically with the
		// transition.
		w.mu.Lock()
		failures := w.state.AttemptCount
		w.state = State{Available: true, BackoffMultiplier: 1}
		w.mu.Unlock()

		p.logger.Info("provider became available",
			"provider", id,
			"previous_failures", failures,
		)
		p.emit(Event{
			ProviderID: id,
			Type:       EventAvailabilityChanged,
			Available:  true,
		})
		p.refreshModels(ctx, w)
		return
	}

	w.mu.Lock()
	w.state.AttemptCount++
	attempt := w.state.AttemptCount
	if attempt == p.policy.BackoffThreshold {
		w.state.BackoffMultiplier *= p.policy.BackoffFactor
	}
	exhausted := attempt >= p.policy.MaxAttempts
	if exhausted {
		w.state.Exhausted = true
	}
	multiplier := w.state.BackoffMultiplier
	w.mu.Unlock()

	p.logger.Debug("availability probe failed",
		"provider", id,
		"attempt", attempt,
		"backoff_multiplier", multiplier,
	)

	if attempt == p.policy.EarlyWarningThreshold {
		p.emit(Event{
			ProviderID:   id,
			Type:         EventAdvisory,
			Available:    false,
			AttemptCount: attempt,
			Message:      fmt.Sprintf("provider %q has been unreachable for %d checks; configure it now or keep waiting", id, attempt),
		})
	}
	if attempt == p.policy.BackoffThreshold {
		p.logger.Info("poll interval backed off",
			"provider", id,
			"attempt", attempt,
			"new_interval", p.policy.BaseInterval*time.Duration(multiplier),
		)
	}
	if exhausted {
		p.logger.Warn("availability attempts exhausted",
			"provider", id,
			"attempts", attempt,
		)
		p.emit(Event{
			ProviderID:   id,
			Type:         EventExhausted,
			Available:    false,
			AttemptCount: attempt,
			Message:      fmt.Sprintf("provider %q is still unreachable after %d checks; check the backend and request a manual recheck", id, attempt),
		})
	}
}

// refreshModels invokes the model refresh hook, if any.
func (p *Poller) refreshModels(ctx context.Context, w *watch) {
	if p.refresh == nil {
		return
	}
	p.refresh(ctx, w.provider)
}

// emit delivers an event without blocking the control loop. Events are
// advisory; when nobody drains the channel, the incoming event is dropped
// and logged rather than stalling a probe loop.
func (p *Poller) emit(ev Event) {
	ev.Timestamp = time.Now()
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("event buffer full, dropping event",
			"provider", ev.ProviderID,
			"type", ev.Type,
		)
	}
}
