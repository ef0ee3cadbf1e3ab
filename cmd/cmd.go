// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/matt-FFFFFF/vctl"
	"github.com/matt-FFFFFF/vctl/cmd/cmdstate"
	"github.com/matt-FFFFFF/vctl/cmd/config"
	"github.com/matt-FFFFFF/vctl/cmd/drive"
	"github.com/matt-FFFFFF/vctl/cmd/stopsign"
	"github.com/matt-FFFFFF/vctl/cmd/topics"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

// NewRootCmd returns the root command for the CLI. Running it without a
// subcommand drives the vehicle.
func NewRootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			drive.Command(),
			topics.Command(),
			stopsign.Command(),
			config.Command(),
		},
		Flags:     append(cmdstate.Flags(), drive.Flags()...),
		Before:    before,
		Action:    drive.Action,
		Reader:    os.Stdin,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "vctl",
		Version:   fmt.Sprintf("%s (commit: %s)", vctl.Version, vctl.Commit),
		Description: `vctl drives a vehicle forward over ROS by publishing a constant velocity
on /cmd_vel, and stops it when a "stop" message arrives on /stop_sign,
when the operator types 'cl', or when the process is interrupted.`,
		Usage:     "vctl --master 127.0.0.1:11311",
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool(cmdstate.DebugFlag) {
		ctxlog.LevelVar.Set(slog.LevelDebug)
	}

	if cmd.Bool(cmdstate.JSONLogFlag) {
		ctx = ctxlog.New(ctx, ctxlog.JSONLogger)
	}

	return ctx, nil
}
