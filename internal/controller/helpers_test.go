// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package controller

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/bus/membus"
	"github.com/matt-FFFFFF/vctl/internal/config"
	"github.com/matt-FFFFFF/vctl/internal/velocity"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter answers from a fixed list, then returns io.EOF or blocks until
// the context is cancelled.
type scriptedPrompter struct {
	mu       sync.Mutex
	answers  []string
	prompts  []string
	eofAtEnd bool
}

func (p *scriptedPrompter) Prompt(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)

	if len(p.answers) > 0 {
		a := p.answers[0]
		p.answers = p.answers[1:]
		p.mu.Unlock()

		return a, nil
	}

	eof := p.eofAtEnd
	p.mu.Unlock()

	if eof {
		return "", io.EOF
	}

	<-ctx.Done()

	return "", ctx.Err()
}

func (p *scriptedPrompter) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.prompts...)
}

// world is a membus with a vehicle listening on the velocity topic and a
// stop-sign detector advertising the stop-sign topic.
type world struct {
	bus      *membus.Bus
	node     *membus.Node
	stopSign bus.StringPublisher
	cfg      config.Config
}

func newWorld(t *testing.T) *world {
	t.Helper()

	cfg := config.Default()
	b := membus.New()

	_, err := b.Node("/vehicle").SubscribeVelocity(cfg.Topics.Velocity, func(velocity.Command) {})
	require.NoError(t, err)

	sign, err := b.Node("/stop_sign_detector").NewStringPublisher(cfg.Topics.StopSign)
	require.NoError(t, err)

	return &world{
		bus:      b,
		node:     b.Node("/" + cfg.NodeName),
		stopSign: sign,
		cfg:      cfg,
	}
}

func (w *world) velocities() []velocity.Command {
	return w.bus.Velocities(w.cfg.Topics.Velocity)
}

func (w *world) newController(t *testing.T) *Controller {
	t.Helper()

	pub, err := w.node.NewVelocityPublisher(w.cfg.Topics.Velocity)
	require.NoError(t, err)

	c := New(w.cfg, pub)

	_, err = w.node.SubscribeString(w.cfg.Topics.StopSign, c.StopSignHandler(context.Background()))
	require.NoError(t, err)

	return c
}

func torn(c velocity.Command) bool {
	return (c.Linear == 0) != (c.Angular == 0)
}

// hiddenTopics drops one topic from the registry, as a master does when the
// topic's last endpoint has gone.
type hiddenTopics struct {
	bus.Transport
	hide string
}

func (h *hiddenTopics) Topics(ctx context.Context) ([]bus.TopicInfo, error) {
	registry, err := h.Transport.Topics(ctx)
	if err != nil {
		return nil, err
	}

	out := registry[:0]

	for _, t := range registry {
		if t.Name != h.hide {
			out = append(out, t)
		}
	}

	return out, nil
}
