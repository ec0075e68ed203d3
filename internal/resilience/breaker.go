// Package resilience provides reliability patterns for calls to the remote journey engine.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the externally visible breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Breaker implements a circuit breaker for command round trips. It counts
// consecutive failures and opens after a threshold, rejecting calls until a
// timeout elapses. Only errors accepted by the failure predicate count: a
// remote that answers "invalid request" is healthy.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	isFailure   func(error) bool
	now         func() time.Time // for testing
}

// NewBreaker creates a circuit breaker that opens after maxFailures consecutive
// failures and stays open for the given timeout before transitioning to half-open.
func NewBreaker(maxFailures int, timeout time.Duration) *Breaker {
	return &Breaker{
		state:       StateClosed,
		maxFailures: maxFailures,
		timeout:     timeout,
		isFailure:   countAll,
		now:         time.Now,
	}
}

// SetFailurePredicate restricts which errors count toward opening the circuit.
// Context cancellation never counts.
func (b *Breaker) SetFailurePredicate(fn func(error) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.isFailure = fn
}

func countAll(error) bool { return true }

// Execute runs fn if the circuit is closed or half-open.
// Returns ErrCircuitOpen if the circuit is open.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case err == nil:
		b.onSuccess()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// The caller gave up; says nothing about the remote.
	case b.isFailure(err):
		b.onFailure()
	default:
		b.onSuccess()
	}
	return err
}

// State reports the current state, promoting open to half-open once the
// timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.timeout {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.timeout {
			b.state = StateHalfOpen
			return true
		}
		return false
	}
	return false
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() {
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() {
	b.failures = 0
	b.state = StateClosed
}
