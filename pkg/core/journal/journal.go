// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leseb/featuregw/pkg/core/schema"
	"github.com/leseb/featuregw/pkg/provider"
)

// Providers is the registry of journal backends.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/leseb/featuregw/pkg/storage/memory"
//	import _ "github.com/leseb/featuregw/pkg/storage/sqlite"
//	import _ "github.com/leseb/featuregw/pkg/storage/postgres"
var Providers = provider.NewRegistry[Journal]("journal")

// OutcomeSuccess marks a dispatch that produced a response. Failed
// dispatches record the gateway error kind instead.
const OutcomeSuccess = "success"

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Entry is the metadata of one dispatch. It never holds the credential or
// request and response payloads.
type Entry struct {
	ID         string      `json:"id"`
	Kind       schema.Kind `json:"kind"`
	Outcome    string      `json:"outcome"`
	Model      string      `json:"model"`
	DurationMS int64       `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewEntry creates an entry stamped with a fresh ID and the current time.
func NewEntry(kind schema.Kind, outcome, model string, elapsed time.Duration) *Entry {
	return &Entry{
		ID:         uuid.NewString(),
		Kind:       kind,
		Outcome:    outcome,
		Model:      model,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
}

// Journal records dispatch metadata.
type Journal interface {
	Record(ctx context.Context, entry *Entry) error
	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]*Entry, error)
	Close() error
}

// ClampLimit bounds a requested listing size to [1, MaxListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// ListResponse is the JSON listing of journal entries
type ListResponse struct {
	Object string   `json:"object"` // Always "list"
	Data   []*Entry `json:"data"`
}
