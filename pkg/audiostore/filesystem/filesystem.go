// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/leseb/featuregw/pkg/audiostore"
	"github.com/leseb/featuregw/pkg/provider"
)

func init() {
	audiostore.Providers.Register("filesystem", func(_ context.Context, params provider.Params) (audiostore.Store, error) {
		return New(params.Get("base_dir", filepath.Join(os.TempDir(), "featuregw")))
	})
}

// compile-time check
var _ audiostore.Store = (*Store)(nil)

// Store implements audiostore.Store on a local directory.
//
// Layout:
//
//	<baseDir>/<name>  raw audio bytes
//
// Writers are serialized and each write lands atomically (temp file + rename),
// so readers never observe a partially written file.
type Store struct {
	baseDir string
	mu      sync.Mutex
}

// New creates a filesystem-backed Store, creating baseDir if it does not exist.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir %s: %w", baseDir, err)
	}
	return &Store{baseDir: abs}, nil
}

// Put writes data to <baseDir>/<name>, replacing any previous file.
func (s *Store) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	if err := audiostore.ValidateName(name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.baseDir, name)
	tmp, err := os.CreateTemp(s.baseDir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename audio: %w", err)
	}
	return path, nil
}

// Get reads the audio stored under name.
func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	if err := audiostore.ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("audio %s: %w", name, audiostore.ErrNotFound)
		}
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return data, nil
}

// Remove deletes the file stored under name.
func (s *Store) Remove(_ context.Context, name string) error {
	if err := audiostore.ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("audio %s: %w", name, audiostore.ErrNotFound)
		}
		return fmt.Errorf("remove audio: %w", err)
	}
	return nil
}

// Close is a no-op for the filesystem store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
