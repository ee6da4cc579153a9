// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"context"
	"testing"
)

type stubBackend struct{ dir string }

func newStub(_ context.Context, params Params) (*stubBackend, error) {
	return &stubBackend{dir: params.Get("base_dir", "/tmp")}, nil
}

func TestRegistry_RegisterAndNew(t *testing.T) {
	r := NewRegistry[*stubBackend]("audio_store")
	r.Register("filesystem", newStub)

	b, err := r.New(context.Background(), "filesystem", Params{"base_dir": "/var/audio"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.dir != "/var/audio" {
		t.Errorf("dir = %q, want /var/audio", b.dir)
	}
}

func TestRegistry_NilParamsUseFallback(t *testing.T) {
	r := NewRegistry[*stubBackend]("audio_store")
	r.Register("filesystem", newStub)

	b, err := r.New(context.Background(), "filesystem", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.dir != "/tmp" {
		t.Errorf("dir = %q, want fallback /tmp", b.dir)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry[*stubBackend]("weather")
	r.Register("open-meteo", newStub)

	_, err := r.New(context.Background(), "darksky", nil)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	want := `unknown weather provider: "darksky" (available: [open-meteo])`
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestRegistry_AvailableSorted(t *testing.T) {
	r := NewRegistry[*stubBackend]("journal")
	r.Register("sqlite", newStub)
	r.Register("memory", newStub)
	r.Register("postgres", newStub)

	avail := r.Available()
	want := []string{"memory", "postgres", "sqlite"}
	if len(avail) != len(want) {
		t.Fatalf("Available() = %v, want %v", avail, want)
	}
	for i := range want {
		if avail[i] != want[i] {
			t.Errorf("Available()[%d] = %q, want %q", i, avail[i], want[i])
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry[*stubBackend]("journal")
	r.Register("memory", newStub)

	if _, ok := r.Lookup("memory"); !ok {
		t.Error("expected memory to be registered")
	}
	if _, ok := r.Lookup("redis"); ok {
		t.Error("did not expect redis to be registered")
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry[*stubBackend]("journal")
	r.Register("dup", newStub)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register("dup", newStub)
}

func TestParams_Get(t *testing.T) {
	p := Params{"dsn": "file::memory:", "empty": ""}
	if got := p.Get("dsn", "x"); got != "file::memory:" {
		t.Errorf("Get(dsn) = %q", got)
	}
	if got := p.Get("empty", "fallback"); got != "fallback" {
		t.Errorf("Get(empty) = %q, want fallback", got)
	}
	if got := p.Get("missing", ""); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}
