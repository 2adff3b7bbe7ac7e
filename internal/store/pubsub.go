// Package store holds the in-memory feature stores (categories, filters,
// disabled calendars, display settings), the subscription hub that lets the
// UI react to changes, and the reconciler that applies remote configuration
// to all of them.
package store

import "sync"

// hub fans a value out to subscribers. Cloud-sourced and locally-sourced
// changes go through the same path, so the UI cannot tell them apart.
type hub[T any] struct {
	mu   sync.Mutex
	subs map[int]func(T)
	next int
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[int]func(T))}
}

// subscribe registers fn and returns an unsubscribe func.
func (h *hub[T]) subscribe(fn func(T)) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *hub[T]) publish(v T) {
	h.mu.Lock()
	fns := make([]func(T), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
