// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the vctl command-line interface (CLI).
package main

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/vctl/cmd"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
	"github.com/matt-FFFFFF/vctl/internal/signalbroker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, cancel, signalbroker.DefaultForce)

	// Exit codes carried by cli.Exit are handled by the cli framework.
	err := cmd.NewRootCmd().Run(ctx, os.Args)

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Info("stopped by signal")
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
