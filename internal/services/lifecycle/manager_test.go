package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownRunsInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	for _, name := range []string{"store", "cache", "server"} {
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	want := []string{"server", "cache", "store"}
	if len(order) != len(want) {
		t.Fatalf("Expected %d teardowns, got %v", len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected teardown order %v, got %v", want, order)
		}
	}
}

func TestShutdownContinuesPastFailures(t *testing.T) {
	m := New(time.Second, nil)

	failure := errors.New("close failed")
	var storeClosed bool
	m.Register("store", func(context.Context) error {
		storeClosed = true
		return nil
	})
	m.Register("server", func(context.Context) error {
		return failure
	})

	err := m.Shutdown(context.Background())
	if !errors.Is(err, failure) {
		t.Errorf("Expected the teardown failure to surface, got %v", err)
	}
	if !storeClosed {
		t.Error("Later teardowns skipped after a failure")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	m := New(time.Second, nil)

	var calls int
	m.Register("store", func(context.Context) error {
		calls++
		return nil
	})

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Second shutdown failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Teardown ran %d times", calls)
	}
}

func TestRegisterIgnoresNil(t *testing.T) {
	m := New(time.Second, nil)
	m.Register("noop", nil)
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}
