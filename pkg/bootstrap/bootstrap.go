// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap assembles a Gateway and its backends from configuration.
// It is shared by the server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/leseb/featuregw/pkg/audiostore"
	"github.com/leseb/featuregw/pkg/core/api"
	"github.com/leseb/featuregw/pkg/core/config"
	"github.com/leseb/featuregw/pkg/core/gateway"
	"github.com/leseb/featuregw/pkg/core/journal"
	"github.com/leseb/featuregw/pkg/observability/logging"
	"github.com/leseb/featuregw/pkg/provider"
	"github.com/leseb/featuregw/pkg/weather"

	// Register backends
	_ "github.com/leseb/featuregw/pkg/audiostore/filesystem"
	_ "github.com/leseb/featuregw/pkg/audiostore/memory"
	_ "github.com/leseb/featuregw/pkg/audiostore/s3"
	_ "github.com/leseb/featuregw/pkg/storage/memory"
	_ "github.com/leseb/featuregw/pkg/storage/postgres"
	_ "github.com/leseb/featuregw/pkg/storage/sqlite"
)

// Options adjusts how the runtime is built
type Options struct {
	// Mock swaps the provider client for the offline api.MockClient
	Mock   bool
	Logger *logging.Logger
}

// Runtime is a built gateway plus the backends it owns
type Runtime struct {
	Gateway *gateway.Gateway
	Audio   audiostore.Store
	Journal journal.Journal // nil when journal.type is "none"
}

// Build creates every backend named in cfg and the gateway on top of them.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	wx, err := weather.Providers.New(ctx, cfg.Weather.Provider, provider.Params{
		"base_url": cfg.Weather.BaseURL,
		"timeout":  cfg.Weather.Timeout.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize weather provider: %w", err)
	}
	logger.Info("Initialized weather provider", "provider", cfg.Weather.Provider)

	audio, err := audiostore.Providers.New(ctx, cfg.AudioStore.Type, provider.Params{
		"base_dir": cfg.AudioStore.BaseDir,
		"bucket":   cfg.AudioStore.S3Bucket,
		"region":   cfg.AudioStore.S3Region,
		"prefix":   cfg.AudioStore.S3Prefix,
		"endpoint": cfg.AudioStore.S3Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio store: %w", err)
	}
	logger.Info("Initialized audio store", "type", cfg.AudioStore.Type)

	rt := &Runtime{Audio: audio}
	if cfg.Journal.Type != "none" {
		j, err := journal.Providers.New(ctx, cfg.Journal.Type, provider.Params{"dsn": cfg.Journal.DSN})
		if err != nil {
			audio.Close(ctx)
			return nil, fmt.Errorf("failed to initialize journal: %w", err)
		}
		rt.Journal = j
		logger.Info("Initialized dispatch journal", "type", cfg.Journal.Type)
	}

	clients := api.NewOpenAIFactory(cfg.Gateway.BaseURL)
	if opts.Mock {
		clients = api.NewMockFactory()
		logger.Warn("Using mock provider client, no upstream calls will be made")
	}

	gw, err := gateway.New(&cfg.Gateway, clients, wx, audio, rt.Journal, logger)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	rt.Gateway = gw
	return rt, nil
}

// Close releases the audio store and journal.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Audio != nil {
		errs = append(errs, r.Audio.Close(ctx))
	}
	if r.Journal != nil {
		errs = append(errs, r.Journal.Close())
	}
	return errors.Join(errs...)
}
