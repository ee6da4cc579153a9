// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package audiostoretest provides a shared conformance test suite for
// audiostore.Store implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package audiostoretest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/leseb/featuregw/pkg/audiostore"
)

// RunConformanceTests exercises a Store implementation against the shared
// contract. The newStore function is called once per sub-test to provide an
// isolated store instance.
func RunConformanceTests(t *testing.T, newStore func(t *testing.T) audiostore.Store) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		data := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
		loc, err := store.Put(ctx, "speech.wav", "audio/wav", data)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if loc == "" {
			t.Error("Put returned an empty location")
		}

		got, err := store.Get(ctx, "speech.wav")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("content mismatch: got %q, want %q", got, data)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		first, err := store.Put(ctx, "speech.wav", "audio/wav", []byte("first take, longer"))
		if err != nil {
			t.Fatalf("first Put: %v", err)
		}
		second, err := store.Put(ctx, "speech.wav", "audio/wav", []byte("second"))
		if err != nil {
			t.Fatalf("second Put: %v", err)
		}
		if first != second {
			t.Errorf("location changed on overwrite: %q != %q", first, second)
		}

		got, err := store.Get(ctx, "speech.wav")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(got) != "second" {
			t.Errorf("expected overwritten content, got %q", got)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		if _, err := store.Put(ctx, "gone.wav", "audio/wav", []byte("x")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := store.Remove(ctx, "gone.wav"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, err := store.Get(ctx, "gone.wav"); !errors.Is(err, audiostore.ErrNotFound) {
			t.Errorf("expected ErrNotFound after remove, got: %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		if _, err := store.Get(ctx, "missing.wav"); !errors.Is(err, audiostore.ErrNotFound) {
			t.Errorf("Get expected ErrNotFound, got: %v", err)
		}
		if err := store.Remove(ctx, "missing.wav"); !errors.Is(err, audiostore.ErrNotFound) {
			t.Errorf("Remove expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("InvalidName", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		for _, name := range []string{"", "..", "../escape.wav", `dir\file.wav`} {
			if _, err := store.Put(ctx, name, "audio/wav", []byte("x")); !errors.Is(err, audiostore.ErrInvalidName) {
				t.Errorf("Put(%q) expected ErrInvalidName, got: %v", name, err)
			}
		}
	})

	t.Run("ConcurrentPuts", func(t *testing.T) {
		store := newStore(t)
		defer store.Close(context.Background())
		ctx := context.Background()

		const writers = 8
		payloads := make(map[string]bool, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			data := bytes.Repeat([]byte(fmt.Sprintf("w%d", i)), 512)
			payloads[string(data)] = true
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Put(ctx, "speech.wav", "audio/wav", data); err != nil {
					t.Errorf("Put: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, "speech.wav")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !payloads[string(got)] {
			t.Errorf("final content is not any single writer's payload (%d bytes)", len(got))
		}
	})
}
