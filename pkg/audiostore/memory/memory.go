// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/leseb/featuregw/pkg/audiostore"
	"github.com/leseb/featuregw/pkg/provider"
)

func init() {
	audiostore.Providers.Register("memory", func(_ context.Context, _ provider.Params) (audiostore.Store, error) {
		return New(), nil
	})
}

// compile-time check
var _ audiostore.Store = (*Store)(nil)

// Store implements audiostore.Store in process memory.
type Store struct {
	mu    sync.RWMutex
	audio map[string][]byte
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{audio: make(map[string][]byte)}
}

// Put stores a copy of data under name.
func (s *Store) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := audiostore.ValidateName(name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio[name] = append([]byte(nil), data...)
	return "memory://" + name, nil
}

// Get returns a copy of the audio stored under name.
func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.audio[name]
	if !ok {
		return nil, fmt.Errorf("audio %s: %w", name, audiostore.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Remove deletes the audio stored under name.
func (s *Store) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.audio[name]; !ok {
		return fmt.Errorf("audio %s: %w", name, audiostore.ErrNotFound)
	}
	delete(s.audio, name)
	return nil
}

// Close is a no-op for the memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
