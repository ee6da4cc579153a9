// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"testing"

	"github.com/leseb/featuregw/pkg/core/config"
	"github.com/leseb/featuregw/pkg/core/schema"
)

func TestBuild_MockWithSQLiteJournal(t *testing.T) {
	cfg := config.Default()
	cfg.AudioStore.Type = "filesystem"
	cfg.AudioStore.BaseDir = t.TempDir()
	cfg.Journal.Type = "sqlite"
	cfg.Journal.DSN = ":memory:"

	ctx := context.Background()
	rt, err := Build(ctx, cfg, Options{Mock: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer rt.Close(ctx)

	res, err := rt.Gateway.Speech(ctx, "sk-test", schema.AudioSynthesis{Text: "hi"})
	if err != nil {
		t.Fatalf("Speech: %v", err)
	}
	if res.Location == "" {
		t.Error("expected a filesystem location")
	}

	entries, err := rt.Gateway.Dispatches(ctx, 10)
	if err != nil {
		t.Fatalf("Dispatches: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != schema.KindSpeech {
		t.Errorf("entries = %+v", entries)
	}
}

func TestBuild_JournalNone(t *testing.T) {
	cfg := config.Default()
	cfg.AudioStore.Type = "memory"

	rt, err := Build(context.Background(), cfg, Options{Mock: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer rt.Close(context.Background())

	if rt.Journal != nil {
		t.Error("expected no journal")
	}
}

func TestBuild_UnknownBackends(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"weather", func(c *config.Config) { c.Weather.Provider = "accuweather" }},
		{"audio", func(c *config.Config) { c.AudioStore.Type = "tape" }},
		{"journal", func(c *config.Config) { c.Journal.Type = "redis" }},
		{"postgres without dsn", func(c *config.Config) { c.Journal.Type = "postgres"; c.Journal.DSN = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.AudioStore.Type = "memory"
			tt.mutate(cfg)
			if _, err := Build(context.Background(), cfg, Options{Mock: true}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
