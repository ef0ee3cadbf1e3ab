// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package topics lists the middleware's topic registry.
package topics

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/matt-FFFFFF/vctl/cmd/cmdstate"
	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/color"
	"github.com/matt-FFFFFF/vctl/internal/controller"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	checkFlag  = "check"
	cliExitStr = ""
)

// Command returns the topics command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "topics",
		Usage: "List the topics known to the master",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        checkFlag,
				Usage:       "Exit with status 1 unless the topics the controller needs are available",
				Value:       false,
				DefaultText: "false",
				OnlyOnce:    true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running topics command")

	cfg, err := cmdstate.Settings(ctx, cmd)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to load configuration: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	transport, err := cmdstate.Connect(ctx, cfg)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to connect to the middleware: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	defer transport.Close() //nolint:errcheck

	registry, err := transport.Topics(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to read the topic registry: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	fmt.Fprintln(cmd.Writer, Table(registry, color.Capable(cmd.Writer))) //nolint:errcheck

	if !cmd.Bool(checkFlag) {
		return nil
	}

	var unavailable *controller.UnavailableTopicError
	if err := controller.CheckTopics(ctx, transport, cfg.Topics); errors.As(err, &unavailable) {
		fmt.Fprintln(cmd.Writer, unavailable.Error()) //nolint:errcheck
		return cli.Exit(cliExitStr, 1)
	} else if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// Table renders the registry sorted by topic name. Topics with no endpoints
// on one side are highlighted when colour is on.
func Table(registry []bus.TopicInfo, colour bool) *uitable.Table {
	bus.SortTopics(registry)

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow(
		color.Paint(colour, "TOPIC", color.Bold),
		color.Paint(colour, "TYPE", color.Bold),
		color.Paint(colour, "PUBLISHERS", color.Bold),
		color.Paint(colour, "SUBSCRIBERS", color.Bold),
	)

	for _, t := range registry {
		name := t.Name
		if len(t.Publishers) == 0 || len(t.Subscribers) == 0 {
			name = color.Paint(colour, name, color.FgYellow)
		}

		table.AddRow(name, t.Type, len(t.Publishers), len(t.Subscribers))
	}

	return table
}
