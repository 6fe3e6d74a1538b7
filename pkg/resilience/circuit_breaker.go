package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError reports which breaker rejected the call and when it may be retried.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	retryAfter := max(e.RetryAfter, 0)
	if e.Name == "" {
		return fmt.Sprintf("%v: retry in %s", ErrCircuitOpen, retryAfter)
	}
	return fmt.Sprintf("%v for %s: retry in %s", ErrCircuitOpen, e.Name, retryAfter)
}

func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

type CircuitBreakerState string

const (
	CircuitClosed   CircuitBreakerState = "closed"
	CircuitOpen     CircuitBreakerState = "open"
	CircuitHalfOpen CircuitBreakerState = "half_open"
)

type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int
	OpenTimeout      time.Duration
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 10 * time.Second
	}
	return c
}

// CircuitBreaker trips after FailureThreshold consecutive failures and lets a
// single probe through once OpenTimeout elapsed.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig
	now func() time.Time

	state     CircuitBreakerState
	failures  int
	openUntil time.Time
	probing   bool
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		state: CircuitClosed,
	}
}

func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked(cb.now())
}

// Execute runs fn unless the breaker is open. Context cancellation is not
// counted as a failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.acquire(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.release(err)
	return err
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.currentLocked(now) {
	case CircuitOpen:
		return &CircuitOpenError{Name: cb.cfg.Name, RetryAfter: cb.openUntil.Sub(now)}
	case CircuitHalfOpen:
		if cb.probing {
			return &CircuitOpenError{Name: cb.cfg.Name}
		}
		cb.probing = true
	}
	return nil
}

func (cb *CircuitBreaker) release(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	halfOpen := cb.state == CircuitHalfOpen
	cb.probing = false

	switch {
	case errors.Is(err, context.Canceled):
		return
	case err == nil:
		cb.state = CircuitClosed
		cb.failures = 0
	case halfOpen:
		cb.tripLocked()
	default:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.tripLocked()
		}
	}
}

func (cb *CircuitBreaker) currentLocked(now time.Time) CircuitBreakerState {
	if cb.state == CircuitOpen && !now.Before(cb.openUntil) {
		cb.state = CircuitHalfOpen
		cb.probing = false
	}
	return cb.state
}

func (cb *CircuitBreaker) tripLocked() {
	cb.state = CircuitOpen
	cb.failures = 0
	cb.openUntil = cb.now().Add(cb.cfg.OpenTimeout)
}

// BreakerGroup lazily keeps one breaker per key, all sharing a config.
type BreakerGroup struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	breakers map[string]*CircuitBreaker
}

func NewBreakerGroup(cfg CircuitBreakerConfig) *BreakerGroup {
	return &BreakerGroup{cfg: cfg, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for key, creating it on first use.
func (g *BreakerGroup) Get(key string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[key]; ok {
		return cb
	}
	cfg := g.cfg
	cfg.Name = key
	cb := NewCircuitBreaker(cfg)
	g.breakers[key] = cb
	return cb
}

func (g *BreakerGroup) Execute(ctx context.Context, key string, fn func(context.Context) error) error {
	return g.Get(key).Execute(ctx, fn)
}
