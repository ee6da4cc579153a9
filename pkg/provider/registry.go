// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider implements a generic factory registry for pluggable backends.
//
// The weather lookup, the audio sink and the dispatch journal each own a
// typed Registry. Implementations self-register from init(), so activating a
// backend is a blank import followed by Registry.New(name, params).
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Params carries backend settings keyed by name (e.g. "base_dir", "dsn").
type Params map[string]string

// Get returns the value for key, or fallback when the key is absent or empty.
func (p Params) Get(key, fallback string) string {
	if v := p[key]; v != "" {
		return v
	}
	return fallback
}

// Factory builds a backend instance from its parameters.
type Factory[T any] func(ctx context.Context, params Params) (T, error)

// Registry is a thread-safe set of named factories for backend type T.
type Registry[T any] struct {
	subsystem string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates a Registry. The subsystem name shows up in errors,
// e.g. "weather", "audio_store", "journal".
func NewRegistry[T any](subsystem string) *Registry[T] {
	return &Registry[T]{
		subsystem: subsystem,
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a named factory. Registering the same name twice panics so
// duplicate init() wiring is caught at startup.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("provider: %s backend %q already registered", r.subsystem, name))
	}
	r.factories[name] = f
}

// Lookup returns the factory registered under name.
func (r *Registry[T]) Lookup(name string) (Factory[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// New instantiates the backend registered under name.
func (r *Registry[T]) New(ctx context.Context, name string, params Params) (T, error) {
	f, ok := r.Lookup(name)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s provider: %q (available: %v)", r.subsystem, name, r.Available())
	}
	if params == nil {
		params = Params{}
	}
	return f(ctx, params)
}

// Available returns the registered backend names in sorted order.
func (r *Registry[T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
