package resilience

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrOpenCircuit is returned when the breaker refuses a call.
var ErrOpenCircuit = errors.New("circuit breaker open")

// State is the breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker trips after consecutive failures and probes the dependency again
// after a cool-off period. It protects the payroll integration from hammering
// a dead downstream while approvals keep retrying.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	openFor     time.Duration
	openedAt    time.Time
	target      string
}

// NewBreaker returns a breaker that opens after maxFailures consecutive
// failures and stays open for openFor.
func NewBreaker(target string, maxFailures int, openFor time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{maxFailures: maxFailures, openFor: openFor, target: target}
}

// Allow reports whether a call may proceed. An open breaker lets one probe
// through after the cool-off, moving to half-open.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open {
		if time.Since(b.openedAt) < b.openFor {
			return false
		}
		b.setState(HalfOpen)
	}
	return true
}

// Report records a call outcome.
func (b *Breaker) Report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if success {
		b.failures = 0
		if b.state != Closed {
			b.setState(Closed)
		}
		return
	}
	if b.state == HalfOpen {
		b.failures = b.maxFailures
		b.setState(Open)
		b.openedAt = time.Now()
		return
	}
	b.failures++
	if b.failures >= b.maxFailures && b.state == Closed {
		b.setState(Open)
		b.openedAt = time.Now()
	}
}

// CurrentState returns the breaker state.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) setState(next State) {
	if BreakerState != nil {
		BreakerState.WithLabelValues(b.target).Set(float64(next))
	}
	if next == Open && BreakerOpenedTotal != nil {
		BreakerOpenedTotal.WithLabelValues(b.target).Inc()
	}
	b.state = next
}

// Backoff returns the exponential backoff for attempt (1-based), with jitter
// expressed as a fraction of the computed delay.
func Backoff(base time.Duration, attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if jitter <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * jitter * float64(d)
	return d + time.Duration(delta)
}
