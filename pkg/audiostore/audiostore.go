// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package audiostore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leseb/featuregw/pkg/provider"
)

var (
	// ErrNotFound is returned when no audio is stored under a name.
	ErrNotFound = errors.New("audio not found")
	// ErrInvalidName is returned for names that are empty or contain path separators.
	ErrInvalidName = errors.New("invalid audio name")
)

// Providers is the registry of audio sink backends.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/leseb/featuregw/pkg/audiostore/memory"
//	import _ "github.com/leseb/featuregw/pkg/audiostore/filesystem"
//	import _ "github.com/leseb/featuregw/pkg/audiostore/s3"
var Providers = provider.NewRegistry[Store]("audio_store")

// Store is the transient sink for synthesized speech. Put overwrites any
// previous audio under the same name and returns where it was written.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Remove(ctx context.Context, name string) error
	Close(ctx context.Context) error
}

// ValidateName rejects names that could escape the sink's namespace.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
