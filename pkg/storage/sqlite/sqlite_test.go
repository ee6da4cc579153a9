// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/core/journal/journaltest"
	"github.com/leseb/featuregw/pkg/core/schema"
	"github.com/leseb/featuregw/pkg/provider"
	"github.com/leseb/featuregw/pkg/storage/sqlite"
)

func TestSQLiteConformance(t *testing.T) {
	journaltest.RunConformanceTests(t, func(t *testing.T) journal.Journal {
		store, err := sqlite.New(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("sqlite.New: %v", err)
		}
		return store
	})
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "journal.db")

	j, err := journal.Providers.New(ctx, "sqlite", provider.Params{"dsn": dsn})
	if err != nil {
		t.Fatalf("Providers.New: %v", err)
	}
	e := journal.NewEntry(schema.KindModeration, journal.OutcomeSuccess, "omni-moderation-latest", 0)
	if err := j.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	j.Close()

	reopened, err := sqlite.New(ctx, dsn)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != e.ID {
		t.Errorf("expected persisted entry %s, got %+v", e.ID, got)
	}
}
