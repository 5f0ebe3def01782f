package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for connectivity monitoring.
var (
	networkUsable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "townsq_network_usable",
		Help: "Whether connectivity is currently usable (1) or not (0)",
	})

	networkTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "townsq_network_transitions_total",
		Help: "Total connectivity state transitions by resulting usability",
	}, []string{"usable"})

	subscriberPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "townsq_network_subscriber_panics_total",
		Help: "Total subscriber callbacks that panicked during fan-out",
	})
)

// subscription pairs a callback with its registration id so fan-out
// preserves registration order.
type subscription struct {
	id int
	fn func(State)
}

// Monitor tracks the last known connectivity state and notifies
// subscribers on change.
//
// A Monitor is intended to be constructed once at process start,
// injected into its consumers, and kept for the process lifetime; there
// is no teardown. Tests construct isolated instances.
type Monitor struct {
	mu     sync.Mutex
	state  State
	subs   []subscription
	nextID int
	logger zerolog.Logger
}

// NewMonitor creates a monitor in the default (offline) state.
// The platform connectivity adapter feeds it via Apply.
func NewMonitor(logger zerolog.Logger) *Monitor {
	return &Monitor{
		state:  DefaultState(),
		logger: logger.With().Str("component", "netmon").Logger(),
	}
}

// CurrentState returns the last known state. Never blocks on I/O.
func (m *Monitor) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsUsable reports whether connectivity is currently usable.
func (m *Monitor) IsUsable() bool {
	return m.CurrentState().Usable()
}

// IsUnusable reports whether connectivity is currently unusable.
func (m *Monitor) IsUnusable() bool {
	return !m.IsUsable()
}

// Apply feeds a platform connectivity notification into the monitor.
// Redundant no-change events are suppressed; on an actual change every
// current subscriber is invoked synchronously, in registration order,
// with the full new state (not a diff).
func (m *Monitor) Apply(next State) {
	m.mu.Lock()
	if next == m.state {
		m.mu.Unlock()
		return
	}
	m.state = next
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	usable := next.Usable()
	if usable {
		networkUsable.Set(1)
		networkTransitionsTotal.WithLabelValues("true").Inc()
	} else {
		networkUsable.Set(0)
		networkTransitionsTotal.WithLabelValues("false").Inc()
	}

	m.logger.Info().
		Bool("connected", next.Connected).
		Str("reachable", string(next.Reachable)).
		Str("transport", string(next.Transport)).
		Bool("usable", usable).
		Msg("Connectivity state changed")

	for _, sub := range subs {
		m.deliver(sub, next)
	}
}

// deliver invokes one subscriber, isolating its failures so a panicking
// subscriber cannot prevent delivery to its siblings.
func (m *Monitor) deliver(sub subscription, state State) {
	defer func() {
		if r := recover(); r != nil {
			subscriberPanicsTotal.Inc()
			m.logger.Error().
				Int("subscriber_id", sub.id).
				Interface("panic", r).
				Msg("Connectivity subscriber panicked")
		}
	}()
	sub.fn(state)
}

// Subscribe registers a callback invoked on every state change.
// The returned function removes exactly this subscription; calling it
// more than once is a no-op.
func (m *Monitor) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs = append(m.subs, subscription{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, sub := range m.subs {
				if sub.id == id {
					m.subs = append(m.subs[:i], m.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// WaitForUsable blocks until connectivity becomes usable, the timeout
// elapses, or ctx is done. Returns true immediately if already usable.
// Its temporary subscription is always removed before returning.
func (m *Monitor) WaitForUsable(ctx context.Context, timeout time.Duration) bool {
	usable := make(chan struct{})
	var once sync.Once

	// Subscribe before checking the current state so a transition
	// between the check and the wait cannot be missed.
	unsubscribe := m.Subscribe(func(s State) {
		if s.Usable() {
			once.Do(func() { close(usable) })
		}
	})
	defer unsubscribe()

	if m.IsUsable() {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-usable:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// SubscriberCount returns the number of active subscriptions.
// Diagnostic only; used to assert against listener leaks.
func (m *Monitor) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
