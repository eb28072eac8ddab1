// Package breaker is a small circuit breaker guarding the notification
// sink. When the broker is down, booking requests should not pay a dial
// timeout on every publish.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker refuses calls.
var ErrOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// Breaker trips open after consecutive failures and probes again after a
// cooldown. Safe for concurrent use.
type Breaker struct {
	maxFailures int
	cooldown    time.Duration

	mu       sync.Mutex
	state    state
	failures int
	openedAt time.Time
}

// New creates a Breaker that opens after maxFailures consecutive failures
// and allows a probe call after cooldown.
func New(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{maxFailures: maxFailures, cooldown: cooldown}
}

// Execute runs fn unless the breaker is open, and feeds the outcome back
// into the breaker state.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case stateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = stateHalfOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.state == stateHalfOpen || b.failures >= b.maxFailures {
			b.state = stateOpen
			b.openedAt = time.Now()
		}
		return err
	}
	b.state = stateClosed
	b.failures = 0
	return nil
}
