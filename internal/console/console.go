// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

var (
	// ErrClosed is returned by Prompt after Close.
	ErrClosed = errors.New("console: closed")
	// ErrAborted is returned when the operator aborts the prompt with Ctrl+C.
	ErrAborted = errors.New("console: prompt aborted")
)

// Prompter writes a prompt and returns the next line of input without its line ending.
// At end of input it returns io.EOF.
type Prompter interface {
	Prompt(ctx context.Context, prompt string) (string, error)
}

// Normalize trims surrounding white space and lower-cases an operator command.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type line struct {
	text string
	err  error
}

var _ Prompter = (*Lines)(nil)

// Lines reads lines from a cancellable reader on a background goroutine.
type Lines struct {
	in    cancelreader.CancelReader
	out   io.Writer
	lines chan line
	done  chan struct{}
	start sync.Once
	stop  sync.Once
}

// NewLines wraps in. Prompts are written to out.
func NewLines(in io.Reader, out io.Writer) (*Lines, error) {
	cr, err := cancelreader.NewReader(in)
	if err != nil {
		// epoll refuses some files, such as redirected regular files;
		// hiding the file type selects the portable reader.
		cr, err = cancelreader.NewReader(struct{ io.Reader }{in})
		if err != nil {
			return nil, fmt.Errorf("console: %w", err)
		}
	}

	return &Lines{
		in:    cr,
		out:   out,
		lines: make(chan line),
		done:  make(chan struct{}),
	}, nil
}

func (l *Lines) run() {
	r := bufio.NewReader(l.in)

	for {
		s, err := r.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && s != "") {
			if errors.Is(err, cancelreader.ErrCanceled) {
				err = ErrClosed
			}

			select {
			case l.lines <- line{err: err}:
			case <-l.done:
			}

			return
		}

		select {
		case l.lines <- line{text: strings.TrimRight(s, "\r\n")}:
		case <-l.done:
			return
		}
	}
}

// Prompt implements Prompter. It returns ctx.Err() if ctx is cancelled first;
// a line typed afterwards is delivered to the next Prompt call.
func (l *Lines) Prompt(ctx context.Context, prompt string) (string, error) {
	select {
	case <-l.done:
		return "", ErrClosed
	default:
	}

	l.start.Do(func() {
		go l.run()
	})

	if prompt != "" {
		fmt.Fprint(l.out, prompt) //nolint:errcheck
	}

	select {
	case ln := <-l.lines:
		return ln.text, ln.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-l.done:
		return "", ErrClosed
	}
}

// Close cancels any pending read. The reader goroutine exits once its read
// returns, which for terminals and pipes is immediate. The underlying reader is
// not closed.
func (l *Lines) Close() error {
	l.stop.Do(func() {
		close(l.done)
		l.in.Cancel()
	})

	return nil
}
