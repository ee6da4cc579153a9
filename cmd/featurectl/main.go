// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leseb/featuregw/pkg/adapters/cli"
)

// Version is set via ldflags during build
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, closeRuntime := cli.NewRootCommand(Version, nil)
	err := root.ExecuteContext(ctx)
	if cerr := closeRuntime(context.Background()); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close runtime: %w", cerr)
	}
	if err == nil {
		return
	}
	if !errors.Is(err, cli.ErrReported) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	stop()
	os.Exit(1)
}
