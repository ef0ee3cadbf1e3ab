// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
)

// ForceExitCode is the status passed to the force function by DefaultForce.
const ForceExitCode = 130

// DefaultForce exits the process immediately.
var DefaultForce = func() { os.Exit(ForceExitCode) }

// Watch monitors the signal channel until it is closed.
// The first signal cancels the context. The second signal of a type already seen
// calls force and returns.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc, force func()) {
	sigMap := make(map[os.Signal]struct{})
	for sig := range sigCh {
		if _, ok := sigMap[sig]; ok {
			ctxlog.Logger(ctx).Warn("watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())

			if force != nil {
				force()
			}

			return
		}

		ctxlog.Logger(ctx).Info("watchdog", "detail", "received signal, stopping vehicle", "signal", sig.String())

		sigMap[sig] = struct{}{}

		cancel()
	}
}
