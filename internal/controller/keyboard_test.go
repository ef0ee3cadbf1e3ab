// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package controller

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/matt-FFFFFF/vctl/internal/velocity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestListenKeyboard_StopWord(t *testing.T) {
	w := newWorld(t)
	c := w.newController(t)

	p := &scriptedPrompter{answers: []string{"run", "", "stop", "  CL  "}}

	require.NoError(t, c.ListenKeyboard(context.Background(), p, "cl"))

	assert.Equal(t, []velocity.Command{velocity.Zero}, w.velocities())
	assert.Len(t, p.Prompts(), 4, "the prompt repeats for every ignored line")
	assert.Equal(t, "Enter 'cl' to stop the vehicle: ", p.Prompts()[0])
}

func TestListenKeyboard_EndOfInput(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := newWorld(t)
	c := w.newController(t)

	p := &scriptedPrompter{answers: []string{"hello"}, eofAtEnd: true}

	err := c.ListenKeyboard(context.Background(), p, "cl")
	require.ErrorIs(t, err, io.EOF)
	assert.Empty(t, w.velocities(), "closing input is not a stop command")
}

func TestListenKeyboard_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := newWorld(t)
	c := w.newController(t)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- c.ListenKeyboard(ctx, &scriptedPrompter{}, "cl")
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("keyboard listener ignored cancellation")
	}

	assert.Empty(t, w.velocities())
}
