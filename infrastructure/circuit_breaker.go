package infrastructure

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrBreakerOpen is returned when the breaker fails fast without attempting
// the store call
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerState represents the circuit breaker state
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
)

// CircuitBreaker wraps store calls and fails fast after repeated transient
// failures. Only transient errors (timeouts, connectivity loss, pool
// exhaustion) trip it; business-rule and validation errors pass through and
// count as proof the store is reachable. After the backoff window exactly
// one probe call is let through; a failed probe doubles the backoff up to
// the ceiling.
//
// All counters are confined to this process and reset by elapsed time. The
// clock is injected so tests can simulate time instead of sleeping.
type CircuitBreaker struct {
	failureThreshold int
	baseBackoff      time.Duration
	maxBackoff       time.Duration
	now              func() time.Time
	isTransient      func(error) bool

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	backoff             time.Duration
	openedAt            time.Time
	probing             bool
}

// NewCircuitBreaker creates a breaker with the wall clock
func NewCircuitBreaker(failureThreshold int, baseBackoff, maxBackoff time.Duration, isTransient func(error) bool) *CircuitBreaker {
	return NewCircuitBreakerWithClock(failureThreshold, baseBackoff, maxBackoff, isTransient, time.Now)
}

// NewCircuitBreakerWithClock creates a breaker with an injected clock
func NewCircuitBreakerWithClock(failureThreshold int, baseBackoff, maxBackoff time.Duration, isTransient func(error) bool, now func() time.Time) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		baseBackoff:      baseBackoff,
		maxBackoff:       maxBackoff,
		now:              now,
		isTransient:      isTransient,
		state:            BreakerClosed,
		backoff:          baseBackoff,
	}
}

// Do runs fn unless the breaker is open, in which case it returns
// ErrBreakerOpen without attempting the call
func (cb *CircuitBreaker) Do(fn func() error) error {
	if !cb.allow() {
		return ErrBreakerOpen
	}

	err := fn()
	cb.observe(err)
	return err
}

// State returns the current breaker state
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerClosed {
		return true
	}

	// Open: let exactly one probe through once the backoff window elapses
	if !cb.probing && !cb.now().Before(cb.openedAt.Add(cb.backoff)) {
		cb.probing = true
		return true
	}
	return false
}

func (cb *CircuitBreaker) observe(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// A completed round trip is a success for the breaker even when it
	// carries a business error
	if err == nil || !cb.isTransient(err) {
		if cb.state == BreakerOpen {
			log.Info("Circuit breaker closed after successful probe")
		}
		cb.state = BreakerClosed
		cb.consecutiveFailures = 0
		cb.backoff = cb.baseBackoff
		cb.probing = false
		return
	}

	cb.consecutiveFailures++

	if cb.state == BreakerOpen {
		// Failed probe: double the backoff and restart the window
		cb.probing = false
		cb.backoff = cb.backoff * 2
		if cb.backoff > cb.maxBackoff {
			cb.backoff = cb.maxBackoff
		}
		cb.openedAt = cb.now()
		log.WithField("backoff", cb.backoff).Warn("Circuit breaker probe failed")
		return
	}

	if cb.consecutiveFailures >= cb.failureThreshold {
		cb.state = BreakerOpen
		cb.openedAt = cb.now()
		cb.backoff = cb.baseBackoff
		log.WithFields(log.Fields{
			"failures": cb.consecutiveFailures,
			"backoff":  cb.backoff,
		}).Warn("Circuit breaker opened")
	}
}
