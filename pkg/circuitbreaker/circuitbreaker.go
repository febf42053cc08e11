package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

// Settings configures a breaker. MaxRequests is the consecutive-failure
// threshold that trips it; Timeout is how long it stays open before
// admitting a trial call.
type Settings struct {
	Name        string
	MaxRequests int
	Interval    time.Duration
	Timeout     time.Duration
}

// CircuitBreaker sheds calls to a dependency that keeps failing, so a dead
// broker degrades to fast local errors instead of piling up blocked callers.
type CircuitBreaker struct {
	mu sync.Mutex

	name      string
	threshold int
	timeout   time.Duration

	current  state
	failures int
	openedAt time.Time
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	return &CircuitBreaker{
		name:      settings.Name,
		threshold: settings.MaxRequests,
		timeout:   settings.Timeout,
		current:   stateClosed,
	}
}

// Execute runs fn unless the breaker is open. The first call after the open
// timeout elapses is admitted as a trial; its outcome decides whether the
// breaker closes again.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.current == stateOpen {
		if time.Since(cb.openedAt) < cb.timeout {
			return ErrOpen
		}
		cb.current = stateHalfOpen
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		if cb.current == stateHalfOpen || cb.failures >= cb.threshold {
			cb.current = stateOpen
			cb.openedAt = time.Now()
		}
		return
	}

	cb.current = stateClosed
	cb.failures = 0
}
