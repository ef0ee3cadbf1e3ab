// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/config"
	"github.com/matt-FFFFFF/vctl/internal/console"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
)

var (
	// ErrTopicUnavailable is returned when a required topic is missing from the registry.
	ErrTopicUnavailable = errors.New("required topic not available")
	// ErrInvalidCommand is returned when the startup answer is neither the run nor the stop word.
	ErrInvalidCommand = errors.New("invalid startup command")
	// ErrNoCommand is returned when the startup question gets no answer.
	ErrNoCommand = errors.New("no startup command")
)

// UnavailableTopicError names the missing topic. Its message is the operator diagnostic.
type UnavailableTopicError struct {
	Topic string
}

// Error implements the error interface.
func (e *UnavailableTopicError) Error() string {
	return fmt.Sprintf("The '%s' topic is not available.", e.Topic)
}

// Unwrap returns ErrTopicUnavailable.
func (e *UnavailableTopicError) Unwrap() error {
	return ErrTopicUnavailable
}

// StartupPrompt is the question asked before anything is published.
func StartupPrompt(runWord string) string {
	return fmt.Sprintf("Enter '%s' to start the vehicle: ", runWord)
}

// InvalidCommandMessage is printed for an unrecognised startup answer.
func InvalidCommandMessage(cmds config.Commands) string {
	return fmt.Sprintf("Invalid command. Please enter '%s' or '%s'.", cmds.Run, cmds.Stop)
}

// CheckTopics verifies the registry knows both topics, each with at least one
// publisher or subscriber. Endpoints registered by this node count.
func CheckTopics(ctx context.Context, t bus.Transport, topics config.Topics) error {
	registry, err := t.Topics(ctx)
	if err != nil {
		return fmt.Errorf("reading topic registry: %w", err)
	}

	for _, name := range []string{topics.Velocity, topics.StopSign} {
		if info, ok := bus.Lookup(registry, name); !ok || !info.Available() {
			return &UnavailableTopicError{Topic: name}
		}
	}

	return nil
}

// Driver runs one controller against a transport and an operator console.
type Driver struct {
	Config    config.Config
	Transport bus.Transport
	// Startup answers the startup question. It may block uninterruptibly.
	Startup console.Prompter
	// Keyboard is read while the vehicle runs and must honour cancellation.
	Keyboard console.Prompter
	// Out receives operator diagnostics.
	Out io.Writer

	controller *Controller
}

// Controller returns the controller created by Drive, or nil before Drive runs.
func (d *Driver) Controller() *Controller {
	return d.controller
}

// Drive advertises the velocity topic, subscribes to the stop sign, checks the
// registry and asks the startup question. The run word starts a session and
// blocks until it ends; the stop word performs one emergency stop; anything else
// prints a diagnostic and returns ErrInvalidCommand without publishing.
func (d *Driver) Drive(ctx context.Context) error {
	cfg := d.Config
	ctx = ctxlog.With(ctx, "node", cfg.NodeName)

	pub, err := d.Transport.NewVelocityPublisher(cfg.Topics.Velocity)
	if err != nil {
		return err
	}

	defer pub.Close() //nolint:errcheck

	c := New(cfg, pub)
	d.controller = c

	sub, err := d.Transport.SubscribeString(cfg.Topics.StopSign, c.StopSignHandler(ctx))
	if err != nil {
		return err
	}

	defer sub.Close() //nolint:errcheck

	if err := CheckTopics(ctx, d.Transport, cfg.Topics); err != nil {
		return err
	}

	answer, err := d.Startup.Prompt(ctx, StartupPrompt(cfg.Commands.Run))
	if err != nil {
		return errors.Join(ErrNoCommand, err)
	}

	switch console.Normalize(answer) {
	case console.Normalize(cfg.Commands.Run):
		return c.RunSession(ctx, d.Keyboard, cfg.Commands.Stop)
	case console.Normalize(cfg.Commands.Stop):
		return c.EmergencyStop(ctx)
	default:
		fmt.Fprintln(d.Out, InvalidCommandMessage(cfg.Commands)) //nolint:errcheck
		return fmt.Errorf("%w: %q", ErrInvalidCommand, answer)
	}
}

// RunSession runs the publisher loop and the keyboard listener together.
// The session ends when the loop returns, when the stop word is typed or when
// ctx is cancelled. End of keyboard input only ends the listener; the vehicle
// keeps driving until a stop sign or a signal. Once both have returned the
// shutdown hook publishes the final zero command.
// Only the shutdown hook's publish error is returned.
func (c *Controller) RunSession(ctx context.Context, keyboard console.Prompter, stopWord string) error {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctxlog.Info(ctx, "vehicle running")

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()

		if err := c.Run(sessionCtx); err != nil && !errors.Is(err, context.Canceled) {
			ctxlog.Warn(ctx, "publisher loop ended", "error", err)
		}
	}()

	go func() {
		defer wg.Done()

		err := c.ListenKeyboard(sessionCtx, keyboard, stopWord)

		switch {
		case err == nil:
			cancel()
		case errors.Is(err, context.Canceled):
		case errors.Is(err, io.EOF):
			ctxlog.Warn(ctx, "operator input closed, driving on until a stop sign or signal")
		default:
			ctxlog.Warn(ctx, "keyboard listener ended", "error", err)
			cancel()
		}
	}()

	wg.Wait()

	err := c.Shutdown(context.WithoutCancel(ctx))

	stats := c.Stats()
	ctxlog.Info(ctx, "session ended", "published", stats.Published, "failed", stats.Failed, "rate_per_second", stats.Rate)

	return err
}
