// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package drive implements the interactive vehicle controller command.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matt-FFFFFF/vctl/cmd/cmdstate"
	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/bus/membus"
	"github.com/matt-FFFFFF/vctl/internal/config"
	"github.com/matt-FFFFFF/vctl/internal/console"
	"github.com/matt-FFFFFF/vctl/internal/controller"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
	"github.com/matt-FFFFFF/vctl/internal/sim"
	"github.com/urfave/cli/v3"
)

const (
	simFlag          = "sim"
	simStopAfterFlag = "sim-stop-after"
	cliExitStr       = ""
)

// Command returns the drive command. Its action is also the root action.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "drive",
		Usage: "Drive the vehicle forward until a stop sign or the stop command",
		Description: `Publish a constant forward velocity and stop the vehicle when a stop sign
message arrives, when the operator types the stop command or when the process
is interrupted. A final zero velocity command is always published on exit.`,
		Flags:  Flags(),
		Action: Action,
	}
}

// Flags returns the flags specific to driving.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        simFlag,
			Usage:       "Use an in-process bus with a simulated vehicle and stop sign detector",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.DurationFlag{
			Name:     simStopAfterFlag,
			Usage:    "With --sim, raise the simulated stop sign this long after start (0 disables)",
			Value:    0,
			OnlyOnce: true,
		},
	}
}

// Action runs the controller.
func Action(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running drive command")

	cfg, err := cmdstate.Settings(ctx, cmd)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to load configuration: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	transport, err := connect(ctx, cmd, cfg)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to connect to the middleware: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	defer transport.Close() //nolint:errcheck

	keyboard, err := console.NewLines(cmd.Root().Reader, cmd.Writer)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to open the console: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	defer keyboard.Close() //nolint:errcheck

	startup, release := startupPrompter(cmd.Root().Reader, keyboard)
	defer release() //nolint:errcheck

	d := &controller.Driver{
		Config:    cfg,
		Transport: transport,
		Startup:   startup,
		Keyboard:  keyboard,
		Out:       cmd.Writer,
	}

	err = d.Drive(ctx)

	var unavailable *controller.UnavailableTopicError

	switch {
	case err == nil:
		return nil
	case errors.As(err, &unavailable):
		fmt.Fprintln(cmd.Writer, unavailable.Error()) //nolint:errcheck
		return cli.Exit(cliExitStr, 1)
	case errors.Is(err, controller.ErrInvalidCommand), errors.Is(err, controller.ErrNoCommand):
		logger.Debug("Nothing to drive", "reason", err.Error())
		return nil
	default:
		logger.Error(fmt.Sprintf("Drive failed: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}
}

// connect returns the transport for this run. With --sim it is a node on a fresh
// in-process bus that also hosts the simulated peers.
func connect(ctx context.Context, cmd *cli.Command, cfg config.Config) (bus.Transport, error) {
	if !cmd.Bool(simFlag) {
		return cmdstate.Connect(ctx, cfg)
	}

	b := membus.New()

	world, err := sim.Start(ctx, b, cfg, cmd.Duration(simStopAfterFlag))
	if err != nil {
		return nil, err
	}

	return &simTransport{Node: b.Node(cfg.NodeName), world: world}, nil
}

type simTransport struct {
	*membus.Node
	world *sim.World
}

func (s *simTransport) Close() error {
	return errors.Join(s.Node.Close(), s.world.Close())
}

// startupPrompter uses line editing for the startup question when stdin is a
// terminal. The terminal is released straight after so the keyboard listener
// reads in normal line mode.
func startupPrompter(in io.Reader, fallback console.Prompter) (console.Prompter, func() error) {
	f, ok := in.(*os.File)
	if !ok || !console.IsTerminal(f) {
		return fallback, func() error { return nil }
	}

	t := console.NewTerminal()

	return &oneShot{Terminal: t}, t.Close
}

type oneShot struct {
	*console.Terminal
}

func (o *oneShot) Prompt(ctx context.Context, prompt string) (string, error) {
	defer o.Close() //nolint:errcheck

	return o.Terminal.Prompt(ctx, prompt)
}
