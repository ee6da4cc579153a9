// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/provider"
)

func init() {
	journal.Providers.Register("memory", func(_ context.Context, _ provider.Params) (journal.Journal, error) {
		return New(), nil
	})
}

// compile-time check
var _ journal.Journal = (*Store)(nil)

// Store is an in-memory implementation of journal.Journal
type Store struct {
	mu      sync.RWMutex
	entries []*journal.Entry
	ids     map[string]struct{}
}

// New creates a new in-memory store
func New() *Store {
	return &Store{ids: make(map[string]struct{})}
}

// Record appends a copy of entry
func (s *Store) Record(_ context.Context, entry *journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[entry.ID]; exists {
		return fmt.Errorf("entry %s already exists", entry.ID)
	}

	e := *entry
	s.entries = append(s.entries, &e)
	s.ids[entry.ID] = struct{}{}
	return nil
}

// List returns up to limit entries, newest first
func (s *Store) List(_ context.Context, limit int) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*journal.Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := *s.entries[i]
		out = append(out, &e)
	}
	// Insertion order breaks ties
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the memory store
func (s *Store) Close() error {
	return nil
}
