// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package stopsign publishes a single stop sign message, standing in for a detector.
package stopsign

import (
	"context"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/vctl/cmd/cmdstate"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	delayFlag    = "delay"
	delayDefault = time.Second
	cliExitStr   = ""
)

// Command returns the stop-sign command.
func Command() *cli.Command {
	return &cli.Command{
		Name:      "stop-sign",
		Usage:     "Publish one message on the stop sign topic",
		ArgsUsage: "[payload]",
		Description: `Publish a single message on the stop sign topic. The payload defaults to the
configured stop payload. Subscribers need a moment to connect to a newly
advertised topic, so the message is sent after --delay.`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:     delayFlag,
				Usage:    "Wait this long after advertising before publishing",
				Value:    delayDefault,
				OnlyOnce: true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running stop-sign command")

	cfg, err := cmdstate.Settings(ctx, cmd)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to load configuration: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	payload := cfg.StopPayload
	if cmd.Args().Present() {
		payload = cmd.Args().First()
	}

	transport, err := cmdstate.Connect(ctx, cfg)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to connect to the middleware: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	defer transport.Close() //nolint:errcheck

	pub, err := transport.NewStringPublisher(cfg.Topics.StopSign)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to advertise %s: %s", cfg.Topics.StopSign, err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	defer pub.Close() //nolint:errcheck

	if d := cmd.Duration(delayFlag); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-ctx.Done():
			return cli.Exit(cliExitStr, 1)
		case <-t.C:
		}
	}

	if err := pub.Publish(payload); err != nil {
		logger.Error(fmt.Sprintf("Failed to publish on %s: %s", cfg.Topics.StopSign, err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	logger.Info("Stop sign published", "topic", cfg.Topics.StopSign, "payload", payload)

	return nil
}
