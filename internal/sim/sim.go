// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sim populates an in-process bus with the two peers the controller
// expects: a vehicle listening for velocity commands and a stop-sign detector.
package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/bus/membus"
	"github.com/matt-FFFFFF/vctl/internal/config"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
	"github.com/matt-FFFFFF/vctl/internal/velocity"
)

// Node names used on the bus.
const (
	VehicleNode  = "/sim_vehicle"
	DetectorNode = "/sim_stop_sign"
)

// World is a running simulation.
type World struct {
	vehicle  *membus.Node
	detector *membus.Node
	sign     bus.StringPublisher

	mu       sync.Mutex
	last     velocity.Command
	received int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start attaches the simulated peers to b. When stopAfter is positive the
// detector publishes the stop payload once after that delay.
func Start(ctx context.Context, b *membus.Bus, cfg config.Config, stopAfter time.Duration) (*World, error) {
	w := &World{
		vehicle:  b.Node(VehicleNode),
		detector: b.Node(DetectorNode),
	}

	_, err := w.vehicle.SubscribeVelocity(cfg.Topics.Velocity, func(c velocity.Command) {
		w.mu.Lock()
		w.last = c
		w.received++
		w.mu.Unlock()

		ctxlog.Debug(ctx, "sim vehicle received command", "command", c.String())
	})
	if err != nil {
		return nil, errors.Join(err, w.Close())
	}

	w.sign, err = w.detector.NewStringPublisher(cfg.Topics.StopSign)
	if err != nil {
		return nil, errors.Join(err, w.Close())
	}

	ctx, w.cancel = context.WithCancel(ctx)

	if stopAfter > 0 {
		w.wg.Add(1)

		go func() {
			defer w.wg.Done()

			select {
			case <-ctx.Done():
			case <-time.After(stopAfter):
				ctxlog.Info(ctx, "sim stop sign raised", "after", stopAfter.String())

				if err := w.RaiseStopSign(cfg.StopPayload); err != nil {
					ctxlog.Warn(ctx, "sim stop sign publish failed", "error", err)
				}
			}
		}()
	}

	return w, nil
}

// RaiseStopSign publishes payload from the simulated detector.
func (w *World) RaiseStopSign(payload string) error {
	return w.sign.Publish(payload)
}

// Vehicle returns the last command the simulated vehicle received and how many it received.
func (w *World) Vehicle() (velocity.Command, int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.last, w.received
}

// Close stops the timer and detaches both peers.
func (w *World) Close() error {
	if w.cancel != nil {
		w.cancel()
	}

	w.wg.Wait()

	return errors.Join(w.vehicle.Close(), w.detector.Close())
}
