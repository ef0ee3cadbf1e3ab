// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package controller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/config"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
	"github.com/matt-FFFFFF/vctl/internal/velocity"
	"github.com/paulbellamy/ratecounter"
)

// Controller publishes velocity commands for one vehicle.
type Controller struct {
	state       *velocity.State
	pub         bus.VelocityPublisher
	period      time.Duration
	stopPayload string

	mu        sync.Mutex // held across snapshot and publish
	published atomic.Int64
	failed    atomic.Int64
	rate      *ratecounter.RateCounter

	shutdownOnce sync.Once
	shutdownErr  error
}

// Stats summarises what the controller has published.
type Stats struct {
	// Published is the number of commands handed to the middleware.
	Published int64
	// Failed is the number of publishes the middleware rejected.
	Failed int64
	// Rate is the number of commands published during the last second.
	Rate int64
}

// New returns a controller publishing on pub with the velocity, rate and stop
// payload taken from cfg.
func New(cfg config.Config, pub bus.VelocityPublisher) *Controller {
	return &Controller{
		state:       velocity.NewState(cfg.Initial),
		pub:         pub,
		period:      cfg.Period(),
		stopPayload: cfg.StopPayload,
		rate:        ratecounter.NewRateCounter(time.Second),
	}
}

// State returns the shared command state.
func (c *Controller) State() *velocity.State {
	return c.state
}

// Stats returns the publish counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Published: c.published.Load(),
		Failed:    c.failed.Load(),
		Rate:      c.rate.Rate(),
	}
}

// OnStopSign handles one stop-sign message. Only a payload equal to the stop
// payload raises the stop flag; it reports whether it did.
func (c *Controller) OnStopSign(payload string) bool {
	if payload != c.stopPayload {
		return false
	}

	c.state.RequestStop()

	return true
}

// StopSignHandler returns OnStopSign as a subscriber callback that logs with ctx.
func (c *Controller) StopSignHandler(ctx context.Context) func(string) {
	return func(payload string) {
		if c.OnStopSign(payload) {
			ctxlog.Info(ctx, "stop sign received", "topic_payload", payload)
			return
		}

		ctxlog.Debug(ctx, "stop sign message ignored", "topic_payload", payload)
	}
}

// Run publishes the current command every period until the stop flag is raised
// or ctx is cancelled. On the stop flag it zeroes the linear velocity, publishes
// once more and returns nil. On cancellation it returns ctx.Err().
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	ctxlog.Debug(ctx, "publisher loop started", "topic", c.pub.Topic(), "period", c.period.String())

	for {
		if c.state.StopRequested() {
			c.mu.Lock()
			cmd := c.state.Halt()
			_ = c.publishLocked(ctx, cmd)
			c.mu.Unlock()

			ctxlog.Info(ctx, "vehicle halted by stop sign", "command", cmd.String())

			return nil
		}

		c.mu.Lock()
		_ = c.publishLocked(ctx, c.state.Snapshot())
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.state.Stopped():
		case <-ticker.C:
		}
	}
}

// EmergencyStop zeroes both velocity components and publishes the zero command
// once. It is safe to call concurrently and any number of times.
func (c *Controller) EmergencyStop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctxlog.Warn(ctx, "emergency stop", "topic", c.pub.Topic())

	return c.publishLocked(ctx, c.state.Zero())
}

// Shutdown is the teardown hook: it calls EmergencyStop exactly once for the
// lifetime of the controller, whether or not EmergencyStop already ran, and
// returns that call's result on every invocation.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		ctxlog.Debug(ctx, "shutdown hook")
		c.shutdownErr = c.EmergencyStop(ctx)
	})

	return c.shutdownErr
}

// publishLocked sends cmd. Failures are logged and counted, never retried.
// c.mu must be held.
func (c *Controller) publishLocked(ctx context.Context, cmd velocity.Command) error {
	if err := c.pub.Publish(cmd); err != nil {
		c.failed.Add(1)
		ctxlog.Error(ctx, "publish failed", "topic", c.pub.Topic(), "command", cmd.String(), "error", err)

		return err
	}

	c.published.Add(1)
	c.rate.Incr(1)
	ctxlog.Debug(ctx, "published", "topic", c.pub.Topic(), "linear", cmd.Linear, "angular", cmd.Angular)

	return nil
}
