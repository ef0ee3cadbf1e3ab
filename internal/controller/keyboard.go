// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package controller

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/vctl/internal/console"
	"github.com/matt-FFFFFF/vctl/internal/ctxlog"
)

// KeyboardPrompt is the question repeated while the vehicle runs.
func KeyboardPrompt(stopWord string) string {
	return fmt.Sprintf("Enter '%s' to stop the vehicle: ", stopWord)
}

// ListenKeyboard prompts until the operator enters stopWord, then calls
// EmergencyStop and returns its result. Other input is ignored. The prompt error
// is returned when input ends or ctx is cancelled.
// p must return promptly on cancellation, see console.Lines.
func (c *Controller) ListenKeyboard(ctx context.Context, p console.Prompter, stopWord string) error {
	prompt := KeyboardPrompt(stopWord)

	for {
		input, err := p.Prompt(ctx, prompt)
		if err != nil {
			return err
		}

		if console.Normalize(input) == console.Normalize(stopWord) {
			ctxlog.Info(ctx, "stop requested from keyboard")
			return c.EmergencyStop(ctx)
		}

		ctxlog.Debug(ctx, "keyboard input ignored", "input", input)
	}
}
