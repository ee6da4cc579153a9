// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory_test

import (
	"context"
	"testing"

	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/core/journal/journaltest"
	"github.com/leseb/featuregw/pkg/core/schema"
	"github.com/leseb/featuregw/pkg/storage/memory"
)

func TestMemoryConformance(t *testing.T) {
	journaltest.RunConformanceTests(t, func(t *testing.T) journal.Journal {
		return memory.New()
	})
}

func TestMemory_ListReturnsCopies(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	if err := store.Record(ctx, journal.NewEntry(schema.KindChat, journal.OutcomeSuccess, "m", 0)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, _ := store.List(ctx, 1)
	got[0].Outcome = "tampered"

	again, _ := store.List(ctx, 1)
	if again[0].Outcome != journal.OutcomeSuccess {
		t.Errorf("stored entry was mutated through List result: %q", again[0].Outcome)
	}
}
