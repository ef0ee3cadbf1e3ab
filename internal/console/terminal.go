// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package console

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/peterh/liner"
)

var _ Prompter = (*Terminal)(nil)

// Terminal prompts on the controlling terminal with line editing and history.
// Prompt blocks until the operator answers; it is meant for the single startup
// question, before any concurrent activity exists.
type Terminal struct {
	line *liner.State

	once sync.Once
	err  error
}

// NewTerminal takes over the terminal. Call Close to restore it.
func NewTerminal() *Terminal {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)

	return &Terminal{line: l}
}

// Prompt implements Prompter. Ctrl+C returns ErrAborted, Ctrl+D returns io.EOF.
func (t *Terminal) Prompt(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	input, err := t.line.Prompt(prompt)

	switch {
	case err == nil:
		if input != "" {
			t.line.AppendHistory(input)
		}

		return input, nil
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrAborted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	default:
		return "", err
	}
}

// Close restores the terminal mode. Only the first call has any effect.
func (t *Terminal) Close() error {
	t.once.Do(func() { t.err = t.line.Close() })

	return t.err
}
