// Package events provides the synchronous observer registry the pet
// components publish through.
package events

import (
	"log/slog"
	"slices"
)

// Registry holds listeners for one notification type. Notify dispatches in
// subscription order on the caller's goroutine; a panicking listener is
// recovered and logged without affecting the others.
type Registry[T any] struct {
	name   string
	nextID uint64
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// NewRegistry creates an empty registry. name tags log lines.
func NewRegistry[T any](name string) *Registry[T] {
	return &Registry[T]{name: name}
}

// Subscribe adds fn and returns a function that removes it.
func (r *Registry[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		r.subs = slices.DeleteFunc(r.subs, func(s subscriber[T]) bool { return s.id == id })
	}
}

// Notify delivers v to every listener subscribed at the time of the call.
func (r *Registry[T]) Notify(v T) {
	if len(r.subs) == 0 {
		return
	}
	for _, s := range slices.Clone(r.subs) {
		r.dispatch(s, v)
	}
}

func (r *Registry[T]) dispatch(s subscriber[T], v T) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("listener panicked", "registry", r.name, "listener", s.id, "panic", rec)
		}
	}()
	s.fn(v)
}

// Clear removes every listener.
func (r *Registry[T]) Clear() {
	r.subs = nil
}

// Len returns the number of listeners.
func (r *Registry[T]) Len() int {
	return len(r.subs)
}
