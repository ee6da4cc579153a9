// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli exposes every gateway feature as a cobra subcommand.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leseb/featuregw/pkg/bootstrap"
	"github.com/leseb/featuregw/pkg/core/config"
	"github.com/leseb/featuregw/pkg/observability/logging"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// ErrReported is returned after a failed dispatch has already been
// rendered to the user. Callers should exit non-zero without printing it.
var ErrReported = errors.New("dispatch failed")

// Builder creates the gateway runtime for a command invocation.
type Builder func(ctx context.Context, cfg *config.Config, opts bootstrap.Options) (*bootstrap.Runtime, error)

type app struct {
	apiKey     string
	configPath string
	output     string
	mock       bool
	verbose    bool

	build   Builder
	runtime *bootstrap.Runtime
}

// Closer releases whatever runtime the last invocation built.
type Closer func(ctx context.Context) error

// NewRootCommand builds the featurectl command tree. A nil builder means
// bootstrap.Build. Cobra skips post-run hooks when a command fails, so
// callers must invoke the returned Closer after Execute whatever its result.
func NewRootCommand(version string, build Builder) (*cobra.Command, Closer) {
	if build == nil {
		build = bootstrap.Build
	}
	a := &app{build: build}

	root := &cobra.Command{
		Use:   "featurectl",
		Short: "Call AI features through the feature gateway",
		Long: heredoc.Doc(`
			featurectl sends one request per invocation to an OpenAI-compatible
			provider: text completion, image description, image generation,
			speech synthesis, transcription, moderation, reasoning and a
			weather tool call.

			The API key is read from --api-key or the OPENAI_API_KEY
			environment variable. It must start with "sk-".
		`),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}

	a.bindFlags(root.PersistentFlags())
	root.AddCommand(
		a.chatCommand(),
		a.visionCommand(),
		a.imageCommand(),
		a.speakCommand(),
		a.transcribeCommand(),
		a.moderateCommand(),
		a.reasonCommand(),
		a.weatherCommand(),
	)
	return root, a.close
}

func (a *app) close(ctx context.Context) error {
	if a.runtime == nil {
		return nil
	}
	rt := a.runtime
	a.runtime = nil
	if ctx == nil {
		ctx = context.Background()
	}
	return rt.Close(ctx)
}

func (a *app) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&a.apiKey, "api-key", "", "Provider API key (default $OPENAI_API_KEY)")
	fs.StringVar(&a.configPath, "config", "", "Path to a YAML configuration file")
	fs.StringVarP(&a.output, "output", "o", OutputText, "Output format: text or json")
	fs.BoolVar(&a.mock, "mock", false, "Answer from the offline mock provider")
	fs.BoolVarP(&a.verbose, "verbose", "v", false, "Log gateway activity to stderr")
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.output != OutputText && a.output != OutputJSON {
		return fmt.Errorf("invalid --output %q (want %q or %q)", a.output, OutputText, OutputJSON)
	}
	if a.apiKey == "" {
		a.apiKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := logging.Discard()
	if a.verbose {
		logger = logging.New(logging.Config{
			Level:  cfg.Logging.Level,
			Format: "text",
			Output: cmd.ErrOrStderr(),
		})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := a.build(ctx, cfg, bootstrap.Options{Mock: a.mock, Logger: logger})
	if err != nil {
		return err
	}
	a.runtime = rt
	return nil
}
