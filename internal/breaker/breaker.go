// Package breaker implements a small closed/open/half-open circuit breaker
// guarding calls to the LLM fallback (spec.md §4.8, component C8).
package breaker

import (
	"sync"
	"time"
)

type state int

const (
	closed state = iota
	open
	halfOpen
)

const (
	failureThreshold = 5
	rollingWindow    = 5 * time.Minute
	cooldown         = 60 * time.Second
)

// Breaker tracks recent failures for one downstream collaborator (the LLM
// client) and decides whether a call should be attempted.
type Breaker struct {
	mu           sync.Mutex
	state        state
	failures     []time.Time
	openedAt     time.Time
	halfOpenTrial bool
}

func New() *Breaker {
	return &Breaker{state: closed}
}

// Allow reports whether a call may proceed right now, transitioning
// open->half-open once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case closed:
		return true
	case open:
		if time.Since(b.openedAt) >= cooldown {
			b.state = halfOpen
			b.halfOpenTrial = true // this call is the single trial
			return true
		}
		return false
	case halfOpen:
		if b.halfOpenTrial {
			return false // a trial call is already in flight
		}
		b.halfOpenTrial = true
		return true
	}
	return true
}

// RecordSuccess closes the breaker and clears the failure window.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = closed
	b.failures = nil
	b.halfOpenTrial = false
}

// RecordFailure appends a failure timestamp and opens the breaker once the
// rolling-window failure count reaches the threshold, or immediately
// re-opens it if the failed call was the half-open trial.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if b.state == halfOpen {
		b.state = open
		b.openedAt = now
		b.halfOpenTrial = false
		return
	}

	b.failures = append(b.failures, now)
	cutoff := now.Add(-rollingWindow)
	kept := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.failures = kept

	if len(b.failures) >= failureThreshold {
		b.state = open
		b.openedAt = now
	}
}
