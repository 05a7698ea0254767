package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards optional upstream calls. After threshold
// consecutive failures it rejects calls for timeout, then lets a single
// probe through; the probe's outcome closes or reopens it.
type CircuitBreaker struct {
	name          string
	mu            sync.Mutex
	state         State
	failureCount  int
	lastErrorTime time.Time
	threshold     int
	timeout       time.Duration
	now           func() time.Time
}

func NewCircuitBreaker(name string, threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:      name,
		state:     StateClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Execute(action func() error) error {
	cb.mu.Lock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastErrorTime) <= cb.timeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
	case StateHalfOpen:
		// a probe is already in flight
		cb.mu.Unlock()
		return ErrCircuitOpen
	}

	cb.mu.Unlock()

	err := action()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastErrorTime = cb.now()

		if cb.failureCount >= cb.threshold || cb.state == StateHalfOpen {
			cb.state = StateOpen
			slog.Warn("Circuit Breaker OPENED", "breaker", cb.name, "failures", cb.failureCount)
		}
		return err
	}

	if cb.state == StateHalfOpen {
		slog.Info("Circuit Breaker RECOVERED", "breaker", cb.name)
	}
	cb.failureCount = 0
	cb.state = StateClosed

	return nil
}
