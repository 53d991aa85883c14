// Package oneshot provides a single-resolution synchronization signal.
//
// A Signal is armed once, resolved at most once, and waited on by exactly
// one consumer. It is used to hand the dev-server's bound listener address
// from the engine back to the stackable that armed it before startup.
package oneshot

import (
	"context"
	"sync"
)

// Signal carries a single value from a resolver to a waiter.
// The zero value is not usable; create signals with New.
type Signal[T any] struct {
	once sync.Once
	ch   chan T
}

// New creates an unresolved signal.
func New[T any]() *Signal[T] {
	return &Signal[T]{ch: make(chan T, 1)}
}

// Resolve delivers the value. Only the first call has any effect;
// subsequent calls are ignored.
func (s *Signal[T]) Resolve(v T) {
	s.once.Do(func() {
		s.ch <- v
		close(s.ch)
	})
}

// Wait blocks until the signal is resolved or the context is done.
func (s *Signal[T]) Wait(ctx context.Context) (T, error) {
	select {
	case v := <-s.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
