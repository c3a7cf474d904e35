// Package circuitbreaker guards outbound provider calls. With the expense
// tick firing every minute for every account, a dead provider would otherwise
// be hammered continuously; the breaker converts that into a quiet cooldown.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means the circuit is closed and requests are allowed
	StateClosed State = "closed"
	// StateOpen means the circuit is open and requests are blocked
	StateOpen State = "open"
	// StateHalfOpen means the circuit is testing if the service has recovered
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned when the breaker rejects a call without attempting it
var ErrOpen = errors.New("circuit breaker is open")

// Config configures a circuit breaker
type Config struct {
	Name             string
	MaxFailures      int           // consecutive failures before opening
	Timeout          time.Duration // wait before attempting half-open
	HalfOpenMaxCalls int           // probe calls allowed in half-open state
}

// DefaultConfig returns sensible defaults for an external HTTP API
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxFailures:      5,
		Timeout:          2 * time.Minute,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	cfg Config
	log *logrus.Logger

	mu               sync.Mutex
	state            State
	consecutiveFails int
	halfOpenCalls    int
	openedAt         time.Time
}

// New creates a circuit breaker in the closed state
func New(cfg Config, log *logrus.Logger) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, log: log, state: StateClosed}
}

// Allow reports whether a call may proceed. An open breaker transitions to
// half-open once its timeout has elapsed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.openedAt) < cb.cfg.Timeout {
			return ErrOpen
		}
		cb.setState(StateHalfOpen)
		cb.halfOpenCalls = 1
		return nil
	default: // half-open
		if cb.halfOpenCalls >= cb.cfg.HalfOpenMaxCalls {
			return ErrOpen
		}
		cb.halfOpenCalls++
		return nil
	}
}

// RecordSuccess notes a successful call, closing the breaker
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails = 0
	if cb.state != StateClosed {
		cb.setState(StateClosed)
	}
}

// RecordFailure notes a failed call. A half-open failure reopens immediately;
// closed failures open once the consecutive-failure limit is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	if cb.state == StateHalfOpen || cb.consecutiveFails >= cb.cfg.MaxFailures {
		if cb.state != StateOpen {
			cb.setState(StateOpen)
		}
		cb.openedAt = time.Now()
	}
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) setState(next State) {
	prev := cb.state
	cb.state = next
	if cb.log != nil {
		cb.log.WithFields(logrus.Fields{
			"breaker": cb.cfg.Name,
			"from":    string(prev),
			"to":      string(next),
		}).Info("Circuit breaker state changed")
	}
}
