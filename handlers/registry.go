// Package handlers registry.go keeps the local mirror of server entities.
package handlers

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrUnknownIdentity   = errors.New("unknown identity")
	ErrIdentityMismatch  = errors.New("identity mismatch")
)

type entry[K comparable, E any, H any] struct {
	key    K
	entity E
	handle H
}

// Registry pairs entities with their presentation bindings. The identity
// key is captured once at Add and entries are matched by scanning, so a
// mutated entity can never drift away from its key.
type Registry[K comparable, E any, H any] struct {
	keyOf   func(E) K
	entries []entry[K, E, H]
}

func NewRegistry[K comparable, E any, H any](keyOf func(E) K) *Registry[K, E, H] {
	return &Registry[K, E, H]{keyOf: keyOf}
}

func (r *Registry[K, E, H]) indexOf(key K) int {
	for i := range r.entries {
		if r.entries[i].key == key {
			return i
		}
	}
	return -1
}

func (r *Registry[K, E, H]) Add(e E, h H) error {
	key := r.keyOf(e)
	if r.indexOf(key) >= 0 {
		return fmt.Errorf("%w: %v", ErrDuplicateIdentity, key)
	}
	r.entries = append(r.entries, entry[K, E, H]{key: key, entity: e, handle: h})
	return nil
}

// Remove drops the entry for key and hands back its binding so the caller
// can tear it down.
func (r *Registry[K, E, H]) Remove(key K) (H, error) {
	i := r.indexOf(key)
	if i < 0 {
		var zero H
		return zero, fmt.Errorf("%w: %v", ErrUnknownIdentity, key)
	}
	h := r.entries[i].handle
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	return h, nil
}

func (r *Registry[K, E, H]) Find(key K) (E, bool) {
	if i := r.indexOf(key); i >= 0 {
		return r.entries[i].entity, true
	}
	var zero E
	return zero, false
}

// ForEach visits entries in insertion order. fn must not add or remove
// entries.
func (r *Registry[K, E, H]) ForEach(fn func(E, H)) {
	for _, e := range r.entries {
		fn(e.entity, e.handle)
	}
}

func (r *Registry[K, E, H]) Len() int {
	return len(r.entries)
}

// Clear removes every entry, calling fn on each binding first.
func (r *Registry[K, E, H]) Clear(fn func(E, H)) {
	entries := r.entries
	r.entries = nil
	for _, e := range entries {
		if fn != nil {
			fn(e.entity, e.handle)
		}
	}
}
