// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package journaltest provides a shared conformance test suite for
// journal.Journal implementations.
package journaltest

import (
	"context"
	"testing"
	"time"

	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/core/schema"
)

// RunConformanceTests exercises a Journal implementation against the shared
// contract. The newJournal function is called once per sub-test to provide an
// isolated, empty journal.
func RunConformanceTests(t *testing.T, newJournal func(t *testing.T) journal.Journal) {
	t.Helper()

	t.Run("RecordAndList", func(t *testing.T) {
		j := newJournal(t)
		defer j.Close()
		ctx := context.Background()

		e := &journal.Entry{
			ID:         "5f0c3a52-7d7e-4d1e-9c43-2b7c0b0f8a11",
			Kind:       schema.KindVision,
			Outcome:    "malformed_response",
			Model:      "gpt-4o-mini",
			DurationMS: 321,
			CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		}
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}

		got, err := j.List(ctx, 10)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(got))
		}
		g := got[0]
		if g.ID != e.ID || g.Kind != e.Kind || g.Outcome != e.Outcome ||
			g.Model != e.Model || g.DurationMS != e.DurationMS {
			t.Errorf("List returned unexpected entry: %+v", g)
		}
		if !g.CreatedAt.Equal(e.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", g.CreatedAt, e.CreatedAt)
		}
	})

	t.Run("NewestFirst", func(t *testing.T) {
		j := newJournal(t)
		defer j.Close()
		ctx := context.Background()

		base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		kinds := []schema.Kind{schema.KindChat, schema.KindImage, schema.KindSpeech, schema.KindToolCall}
		for i, k := range kinds {
			e := journal.NewEntry(k, journal.OutcomeSuccess, "m", time.Millisecond)
			e.CreatedAt = base.Add(time.Duration(i) * time.Second)
			if err := j.Record(ctx, e); err != nil {
				t.Fatalf("Record[%d]: %v", i, err)
			}
		}

		got, err := j.List(ctx, 2)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got))
		}
		if got[0].Kind != schema.KindToolCall || got[1].Kind != schema.KindSpeech {
			t.Errorf("expected newest first, got %s then %s", got[0].Kind, got[1].Kind)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		j := newJournal(t)
		defer j.Close()

		got, err := j.List(context.Background(), 5)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty journal, got %d entries", len(got))
		}
	})

	t.Run("DuplicateID", func(t *testing.T) {
		j := newJournal(t)
		defer j.Close()
		ctx := context.Background()

		e := journal.NewEntry(schema.KindChat, journal.OutcomeSuccess, "m", 0)
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("first Record: %v", err)
		}
		if err := j.Record(ctx, e); err == nil {
			t.Error("expected error recording the same ID twice")
		}
	})
}
