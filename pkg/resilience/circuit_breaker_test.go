package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "create",
		FailureThreshold: 2,
		OpenTimeout:      200 * time.Millisecond,
	})

	fail := func(context.Context) error { return errors.New("boom") }

	if err := cb.Execute(context.Background(), fail); err == nil {
		t.Fatalf("expected first failure")
	}
	if err := cb.Execute(context.Background(), fail); err == nil {
		t.Fatalf("expected second failure")
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected circuit open, got %s", cb.State())
	}

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open error, got %v", err)
	}
	if called {
		t.Fatalf("expected fn not to run while open")
	}

	var openErr *CircuitOpenError
	if !errors.As(err, &openErr) || openErr.Name != "create" || openErr.RetryAfter <= 0 {
		t.Fatalf("expected named open error with retry delay, got %#v", err)
	}
}

func TestCircuitBreakerHalfOpenClosesOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
	})
	now := time.Now()
	cb.now = func() time.Time { return now }

	_ = cb.Execute(context.Background(), func(context.Context) error {
		return errors.New("boom")
	})
	now = now.Add(2 * time.Minute)

	if cb.State() != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	if err := cb.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected success in half-open, got %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected circuit closed, got %s", cb.State())
	}
}

func TestCircuitBreakerIgnoresCancellation(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})

	_ = cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	if cb.State() != CircuitClosed {
		t.Fatalf("expected cancellation not to trip breaker, got %s", cb.State())
	}
}

func TestBreakerGroupIsolatesKeys(t *testing.T) {
	group := NewBreakerGroup(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})

	_ = group.Execute(context.Background(), "resize", func(context.Context) error { return errors.New("boom") })

	if err := group.Execute(context.Background(), "resize", func(context.Context) error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected resize breaker open, got %v", err)
	}
	if err := group.Execute(context.Background(), "create", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected create breaker closed, got %v", err)
	}
	if group.Get("resize") != group.Get("resize") {
		t.Fatalf("expected breaker to be reused per key")
	}
}
