// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config prints the effective configuration.
package config

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/vctl/cmd/cmdstate"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const cliExitStr = ""

// Command returns the config command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Description: `Print the configuration the controller would run with: the defaults,
overlaid with the file given by --config, overlaid with command line flags.
The output is a valid configuration file.`,
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	cfg, err := cmdstate.Settings(ctx, cmd)
	if err != nil {
		ctxlog.Error(ctx, fmt.Sprintf("Failed to load configuration: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	out, err := cfg.Marshal()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if _, err := cmd.Writer.Write(out); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}
