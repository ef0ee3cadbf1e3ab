// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package membus

import (
	"context"
	"errors"
	"testing"

	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/velocity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ctrl := b.Node("/vehicle_controller")
	sign := b.Node("/stop_sign_detector")

	var got []string

	sub, err := ctrl.SubscribeString("/stop_sign", func(s string) { got = append(got, s) })
	require.NoError(t, err)

	pub, err := sign.NewStringPublisher("/stop_sign")
	require.NoError(t, err)

	require.NoError(t, pub.Publish("go"))
	require.NoError(t, pub.Publish("stop"))
	assert.Equal(t, []string{"go", "stop"}, got)
	assert.Equal(t, []string{"go", "stop"}, b.Strings("/stop_sign"))

	require.NoError(t, sub.Close())
	require.NoError(t, pub.Publish("stop"))
	assert.Len(t, got, 2, "closed subscription must not receive")
}

func TestVelocityRecording(t *testing.T) {
	b := New()
	n := b.Node("/vehicle_controller")

	var seen []velocity.Command

	vehicle := b.Node("/vehicle")
	_, err := vehicle.SubscribeVelocity("/cmd_vel", func(c velocity.Command) { seen = append(seen, c) })
	require.NoError(t, err)

	pub, err := n.NewVelocityPublisher("/cmd_vel")
	require.NoError(t, err)
	assert.Equal(t, "/cmd_vel", pub.Topic())

	require.NoError(t, pub.Publish(velocity.Command{Linear: 0.01}))
	require.NoError(t, pub.Publish(velocity.Zero))

	want := []velocity.Command{{Linear: 0.01}, velocity.Zero}
	assert.Equal(t, want, b.Velocities("/cmd_vel"))
	assert.Equal(t, want, seen)
	assert.Empty(t, b.Strings("/cmd_vel"))
	assert.Nil(t, b.Velocities("/odom"))
}

func TestTopics(t *testing.T) {
	b := New()
	n := b.Node("/vehicle_controller")

	_, err := n.NewVelocityPublisher("/cmd_vel")
	require.NoError(t, err)
	_, err = n.SubscribeString("/stop_sign", func(string) {})
	require.NoError(t, err)
	_, err = n.SubscribeString("/stop_sign", func(string) {})
	require.NoError(t, err)

	topics, err := n.Topics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 2)

	cmdVel, ok := bus.Lookup(topics, "/cmd_vel")
	require.True(t, ok)
	assert.Equal(t, bus.TypeTwist, cmdVel.Type)
	assert.Equal(t, []string{"/vehicle_controller"}, cmdVel.Publishers)

	stop, ok := bus.Lookup(topics, "/stop_sign")
	require.True(t, ok)
	assert.Equal(t, []string{"/vehicle_controller"}, stop.Subscribers, "subscribers are listed once per node")
	assert.Empty(t, stop.Publishers)
}

func TestTypeMismatch(t *testing.T) {
	b := New()
	n := b.Node("/a")

	_, err := n.NewVelocityPublisher("/cmd_vel")
	require.NoError(t, err)

	_, err = n.NewStringPublisher("/cmd_vel")
	assert.ErrorIs(t, err, bus.ErrTypeMismatch)
}

func TestClose(t *testing.T) {
	b := New()
	n := b.Node("/vehicle_controller")

	pub, err := n.NewVelocityPublisher("/cmd_vel")
	require.NoError(t, err)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())

	assert.ErrorIs(t, pub.Publish(velocity.Zero), bus.ErrClosed)

	_, err = n.NewVelocityPublisher("/cmd_vel")
	assert.ErrorIs(t, err, bus.ErrClosed)

	_, err = n.Topics(context.Background())
	assert.ErrorIs(t, err, bus.ErrClosed)

	other := b.Node("/observer")
	topics, err := other.Topics(context.Background())
	require.NoError(t, err)

	info, ok := bus.Lookup(topics, "/cmd_vel")
	require.True(t, ok)
	assert.False(t, info.Available(), "closing the node unadvertises its publishers")
}

func TestFailPublishes(t *testing.T) {
	b := New()
	pub, err := b.Node("/a").NewVelocityPublisher("/cmd_vel")
	require.NoError(t, err)

	boom := errors.New("link down")
	b.FailPublishes(boom)
	assert.ErrorIs(t, pub.Publish(velocity.Zero), boom)
	assert.Empty(t, b.Velocities("/cmd_vel"))

	b.FailPublishes(nil)
	require.NoError(t, pub.Publish(velocity.Zero))
	assert.Len(t, b.Velocities("/cmd_vel"), 1)
}
