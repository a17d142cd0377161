// Package breaker provides a circuit breaker guarding the expensive
// similarity-search path against a persistently failing backend.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpenState is returned when the breaker rejects a request.
var ErrOpenState = errors.New("circuit breaker is open")

// State is the breaker state machine position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// Settings configures a CircuitBreaker.
type Settings struct {
	Name string
	// MaxRequests bounds concurrent probes in the half-open state.
	MaxRequests uint32
	// Timeout is the cooldown before an open breaker admits a probe.
	Timeout time.Duration
	// ReadyToTrip decides when the closed breaker opens.
	ReadyToTrip   func(counts Counts) bool
	OnStateChange func(name string, from, to State)
}

// Counts holds the request tallies of the current generation.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) onRequest() {
	c.Requests++
}

func (c *Counts) onSuccess() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// CircuitBreaker prevents cascading failures by rejecting requests while a
// downstream dependency keeps failing.
type CircuitBreaker struct {
	name          string
	maxRequests   uint32
	timeout       time.Duration
	readyToTrip   func(counts Counts) bool
	onStateChange func(name string, from, to State)

	mu     sync.Mutex
	state  State
	counts Counts
	expiry time.Time
}

// New creates a CircuitBreaker from st, filling in defaults.
func New(st Settings) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:          st.Name,
		maxRequests:   st.MaxRequests,
		timeout:       st.Timeout,
		readyToTrip:   st.ReadyToTrip,
		onStateChange: st.OnStateChange,
	}
	if cb.maxRequests == 0 {
		cb.maxRequests = 1
	}
	if cb.timeout == 0 {
		cb.timeout = 60 * time.Second
	}
	if cb.readyToTrip == nil {
		cb.readyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures > 5
		}
	}
	return cb
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState(time.Now())
}

// Execute runs fn if the breaker allows it, counting the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	now := time.Now()
	state := cb.currentState(now)
	if state == StateOpen || (state == StateHalfOpen && cb.counts.Requests >= cb.maxRequests) {
		cb.mu.Unlock()
		return ErrOpenState
	}
	cb.counts.onRequest()
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.counts.onFailure()
		switch cb.state {
		case StateClosed:
			if cb.readyToTrip(cb.counts) {
				cb.setState(StateOpen, time.Now())
			}
		case StateHalfOpen:
			cb.setState(StateOpen, time.Now())
		}
		return err
	}

	cb.counts.onSuccess()
	if cb.state == StateHalfOpen {
		cb.setState(StateClosed, time.Now())
	}
	return nil
}

func (cb *CircuitBreaker) currentState(now time.Time) State {
	if cb.state == StateOpen && cb.expiry.Before(now) {
		cb.setState(StateHalfOpen, now)
	}
	return cb.state
}

func (cb *CircuitBreaker) setState(newState State, now time.Time) {
	if cb.state == newState {
		return
	}
	prev := cb.state
	cb.state = newState
	cb.counts = Counts{}
	if newState == StateOpen {
		cb.expiry = now.Add(cb.timeout)
	} else {
		cb.expiry = time.Time{}
	}
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, prev, newState)
	}
}
