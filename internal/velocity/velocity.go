// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package velocity

import (
	"fmt"
	"sync"
)

// Command is the linear/angular speed pair sent to the vehicle.
type Command struct {
	// Linear is the forward speed in m/s.
	Linear float64 `yaml:"linear" json:"linear"`
	// Angular is the yaw rate in rad/s.
	Angular float64 `yaml:"angular" json:"angular"`
}

// Zero is the stopped command.
var Zero = Command{}

// IsZero reports whether both components are zero.
func (c Command) IsZero() bool {
	return c.Linear == 0 && c.Angular == 0
}

// String implements fmt.Stringer.
func (c Command) String() string {
	return fmt.Sprintf("{linear: %g m/s, angular: %g rad/s}", c.Linear, c.Angular)
}

// State is the shared command state.
type State struct {
	mu      sync.Mutex
	cmd     Command
	stopped bool
	stopCh  chan struct{}
}

// NewState returns a State holding initial with the stop flag lowered.
func NewState(initial Command) *State {
	return &State{
		cmd:    initial,
		stopCh: make(chan struct{}),
	}
}

// Snapshot returns the current command.
func (s *State) Snapshot() Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cmd
}

// Halt zeroes the linear component and returns the resulting command.
func (s *State) Halt() Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cmd.Linear = 0

	return s.cmd
}

// Zero zeroes both components and returns the resulting command.
func (s *State) Zero() Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cmd = Zero

	return s.cmd
}

// RequestStop raises the stop flag. It reports whether this call raised it.
func (s *State) RequestStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	s.stopped = true
	close(s.stopCh)

	return true
}

// StopRequested reports whether the stop flag is raised.
func (s *State) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopped
}

// Stopped returns a channel that is closed when the stop flag is raised.
func (s *State) Stopped() <-chan struct{} {
	return s.stopCh
}
