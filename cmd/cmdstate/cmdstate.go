// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdstate holds the flags and factories shared by every subcommand.
// Flags are declared on the root command and inherited, so the subcommands
// resolve the same settings the same way.
package cmdstate

import (
	"context"

	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/bus/rosbus"
	"github.com/matt-FFFFFF/vctl/internal/config"
	"github.com/urfave/cli/v3"
)

// Flag names.
const (
	ConfigFlag   = "config"
	MasterFlag   = "master"
	NodeNameFlag = "node-name"
	DebugFlag    = "debug"
	JSONLogFlag  = "log-json"
)

// EnvMasterURI is the standard ROS environment variable naming the master.
const EnvMasterURI = "ROS_MASTER_URI"

// Connect opens the middleware transport described by cfg.
var Connect = func(_ context.Context, cfg config.Config) (bus.Transport, error) {
	return rosbus.New(rosbus.Config{
		NodeName:      cfg.NodeName,
		MasterAddress: cfg.MasterAddress,
	})
}

// Flags returns the flags shared by all subcommands.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    ConfigFlag,
			Aliases: []string{"c"},
			Usage: "URL or path of a YAML configuration file. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources.",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     MasterFlag,
			Usage:    "ROS master as host:port or a ROS_MASTER_URI style URL",
			Sources:  cli.EnvVars(EnvMasterURI),
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     NodeNameFlag,
			Usage:    "Name this controller registers with the master",
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        DebugFlag,
			Usage:       "Log at debug level",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        JSONLogFlag,
			Usage:       "Write logs as JSON",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
	}
}

// Settings resolves the effective configuration: defaults, then the config
// file, then flags.
func Settings(ctx context.Context, cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()

	if src := cmd.String(ConfigFlag); src != "" {
		loaded, err := config.Load(ctx, src)
		if err != nil {
			return config.Config{}, err
		}

		cfg = loaded
	}

	if cmd.IsSet(MasterFlag) {
		addr, err := rosbus.MasterAddressFromURI(cmd.String(MasterFlag))
		if err != nil {
			return config.Config{}, err
		}

		cfg.MasterAddress = addr
	}

	if cmd.IsSet(NodeNameFlag) {
		cfg.NodeName = cmd.String(NodeNameFlag)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}
