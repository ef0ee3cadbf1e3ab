// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/vctl/cmd/cmdstate"
	"github.com/matt-FFFFFF/vctl/internal/bus"
	"github.com/matt-FFFFFF/vctl/internal/bus/membus"
	vconfig "github.com/matt-FFFFFF/vctl/internal/config"
	"github.com/matt-FFFFFF/vctl/internal/velocity"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// harness runs the root command against an in-process bus.
type harness struct {
	bus  *membus.Bus
	sign bus.StringPublisher
	out  *bytes.Buffer
	in   io.Reader
	// hide removes a topic from the registry the commands see.
	hide string
}

type hiddenTopics struct {
	bus.Transport
	hide string
}

func (h *hiddenTopics) Topics(ctx context.Context) ([]bus.TopicInfo, error) {
	registry, err := h.Transport.Topics(ctx)
	if err != nil {
		return nil, err
	}

	var out []bus.TopicInfo

	for _, t := range registry {
		if t.Name != h.hide {
			out = append(out, t)
		}
	}

	return out, nil
}

func newHarness(t *testing.T, withPeers bool) *harness {
	t.Helper()

	h := &harness{
		bus: membus.New(),
		out: new(bytes.Buffer),
		in:  strings.NewReader(""),
	}

	if withPeers {
		_, err := h.bus.Node("/vehicle").SubscribeVelocity("/cmd_vel", func(velocity.Command) {})
		require.NoError(t, err)

		h.sign, err = h.bus.Node("/detector").NewStringPublisher("/stop_sign")
		require.NoError(t, err)
	}

	stubs := gostub.Stub(&cmdstate.Connect, func(_ context.Context, cfg vconfig.Config) (bus.Transport, error) {
		if h.hide != "" {
			return &hiddenTopics{Transport: h.bus.Node(cfg.NodeName), hide: h.hide}, nil
		}

		return h.bus.Node(cfg.NodeName), nil
	})
	t.Cleanup(stubs.Reset)

	return h
}

func (h *harness) run(args ...string) error {
	root := NewRootCmd()
	root.Reader = h.in
	root.Writer = h.out
	root.ErrWriter = io.Discard
	root.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	return root.Run(context.Background(), append([]string{"vctl"}, args...))
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()

	var ec cli.ExitCoder

	require.ErrorAs(t, err, &ec)
	assert.Equal(t, code, ec.ExitCode())
}

func TestConfig_Defaults(t *testing.T) {
	h := newHarness(t, false)

	require.NoError(t, h.run("config"))

	cfg, err := vconfig.Parse(h.out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, vconfig.Default(), cfg)
}

func TestConfig_FileAndFlags(t *testing.T) {
	h := newHarness(t, false)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/vctl.yaml", []byte("rate_hz: 5\nnode_name: from_file\n"), 0o644))

	stubs := gostub.Stub(&vconfig.FsFactory, func() afero.Fs { return fs })
	defer stubs.Reset()

	require.NoError(t, h.run("--config", "/etc/vctl.yaml", "--node-name", "from_flag", "--master", "http://robot:11311/", "config"))

	cfg, err := vconfig.Parse(h.out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.RateHz)
	assert.Equal(t, "from_flag", cfg.NodeName)
	assert.Equal(t, "robot:11311", cfg.MasterAddress)
}

func TestConfig_InvalidFile(t *testing.T) {
	h := newHarness(t, false)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("rate_hz: 0\n"), 0o644))

	stubs := gostub.Stub(&vconfig.FsFactory, func() afero.Fs { return fs })
	defer stubs.Reset()

	requireExitCode(t, h.run("-c", "/bad.yaml", "config"), 1)
	assert.Empty(t, h.out.String())
}

func TestTopics(t *testing.T) {
	h := newHarness(t, true)

	require.NoError(t, h.run("topics", "--check"))

	out := h.out.String()
	assert.Contains(t, out, "TOPIC")
	assert.Contains(t, out, "/cmd_vel")
	assert.Contains(t, out, "geometry_msgs/Twist")
	assert.Contains(t, out, "/stop_sign")
	assert.Contains(t, out, "std_msgs/String")
	assert.Less(t, strings.Index(out, "/cmd_vel"), strings.Index(out, "/stop_sign"))
}

func TestTopics_CheckFails(t *testing.T) {
	h := newHarness(t, false)

	requireExitCode(t, h.run("topics", "--check"), 1)
	assert.Contains(t, h.out.String(), "The '/cmd_vel' topic is not available.")
}

func TestStopSign(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "default payload", args: []string{"stop-sign", "--delay", "0s"}, want: "stop"},
		{name: "explicit payload", args: []string{"stop-sign", "--delay", "0s", "go"}, want: "go"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, false)

			var got []string

			_, err := h.bus.Node("/listener").SubscribeString("/stop_sign", func(s string) { got = append(got, s) })
			require.NoError(t, err)

			require.NoError(t, h.run(tc.args...))
			assert.Equal(t, []string{tc.want}, got)
		})
	}
}

func TestDrive_TopicUnavailable(t *testing.T) {
	h := newHarness(t, true)
	h.in = strings.NewReader("run\n")
	h.hide = "/cmd_vel"

	requireExitCode(t, h.run(), 1)
	assert.Equal(t, "The '/cmd_vel' topic is not available.\n", h.out.String())
	assert.Empty(t, h.bus.Velocities("/cmd_vel"))
}

func TestDrive_InvalidCommand(t *testing.T) {
	h := newHarness(t, true)
	h.in = strings.NewReader("go\n")

	require.NoError(t, h.run("drive"))
	assert.Contains(t, h.out.String(), "Enter 'run' to start the vehicle: ")
	assert.Contains(t, h.out.String(), "Invalid command. Please enter 'run' or 'cl'.")
	assert.Empty(t, h.bus.Velocities("/cmd_vel"))
}

func TestDrive_ImmediateStop(t *testing.T) {
	h := newHarness(t, true)
	h.in = strings.NewReader("  CL \n")

	require.NoError(t, h.run())
	assert.Equal(t, []velocity.Command{velocity.Zero}, h.bus.Velocities("/cmd_vel"))
}

func TestDrive_NoAnswer(t *testing.T) {
	h := newHarness(t, true)

	require.NoError(t, h.run())
	assert.Empty(t, h.bus.Velocities("/cmd_vel"))
}

func TestDrive_InputClosesThenStopSign(t *testing.T) {
	h := newHarness(t, true)
	h.in = strings.NewReader("run\n")

	done := make(chan error, 1)

	go func() { done <- h.run() }()

	require.Eventually(t, func() bool { return len(h.bus.Velocities("/cmd_vel")) >= 3 }, 2*time.Second, 5*time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("closed input ended the session: %v", err)
	default:
	}

	require.NoError(t, h.sign.Publish("stop"))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after the stop sign")
	}

	published := h.bus.Velocities("/cmd_vel")
	assert.Equal(t, velocity.Zero, published[len(published)-1])
	assert.Equal(t, vconfig.Default().Initial, published[0])
}

func TestDrive_SimulatedStopSign(t *testing.T) {
	h := newHarness(t, false)

	pr, pw := io.Pipe()
	defer pw.Close() //nolint:errcheck

	h.in = pr

	go func() {
		_, _ = pw.Write([]byte("run\n"))
	}()

	done := make(chan error, 1)

	go func() { done <- h.run("drive", "--sim", "--sim-stop-after", "150ms") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("simulated session did not end")
	}

	assert.Contains(t, h.out.String(), "Enter 'cl' to stop the vehicle: ")
	assert.Empty(t, h.bus.Velocities("/cmd_vel"))
}
