// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/vctl/internal/velocity"
	"github.com/spf13/afero"
)

// Defaults.
const (
	DefaultNodeName      = "vehicle_controller"
	DefaultMasterAddress = "127.0.0.1:11311"
	DefaultVelocityTopic = "/cmd_vel"
	DefaultStopSignTopic = "/stop_sign"
	DefaultStopPayload   = "stop"
	DefaultRateHz        = 10
	DefaultLinear        = 0.01
	DefaultRunCommand    = "run"
	DefaultStopCommand   = "cl"

	maxRateHz = 1000
)

var (
	// ErrInvalidYaml is returned when the configuration document cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrReadConfig is returned when the configuration file cannot be read.
	ErrReadConfig = errors.New("failed to read config file")
)

// FsFactory returns the filesystem local config files are read from.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Config is the controller configuration.
type Config struct {
	NodeName      string           `yaml:"node_name"`
	MasterAddress string           `yaml:"master_address"`
	Topics        Topics           `yaml:"topics"`
	StopPayload   string           `yaml:"stop_payload"`
	RateHz        float64          `yaml:"rate_hz"`
	Initial       velocity.Command `yaml:"initial_velocity"`
	Commands      Commands         `yaml:"commands"`
}

// Topics names the middleware channels.
type Topics struct {
	Velocity string `yaml:"velocity"`
	StopSign string `yaml:"stop_sign"`
}

// Commands are the operator words recognised at the prompts.
type Commands struct {
	Run  string `yaml:"run"`
	Stop string `yaml:"stop"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		NodeName:      DefaultNodeName,
		MasterAddress: DefaultMasterAddress,
		Topics: Topics{
			Velocity: DefaultVelocityTopic,
			StopSign: DefaultStopSignTopic,
		},
		StopPayload: DefaultStopPayload,
		RateHz:      DefaultRateHz,
		Initial:     velocity.Command{Linear: DefaultLinear},
		Commands: Commands{
			Run:  DefaultRunCommand,
			Stop: DefaultStopCommand,
		},
	}
}

// Period is the publish interval derived from RateHz.
func (c Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.RateHz)
}

// Validate reports every problem in c at once.
func (c Config) Validate() error {
	var err error

	if strings.TrimSpace(c.NodeName) == "" {
		err = multierror.Append(err, errors.New("node_name must not be empty"))
	}

	for name, topic := range map[string]string{
		"topics.velocity":  c.Topics.Velocity,
		"topics.stop_sign": c.Topics.StopSign,
	} {
		if !strings.HasPrefix(topic, "/") || len(topic) < 2 {
			err = multierror.Append(err, fmt.Errorf("%s must be an absolute topic name, got %q", name, topic))
		}
	}

	if c.Topics.Velocity != "" && c.Topics.Velocity == c.Topics.StopSign {
		err = multierror.Append(err, fmt.Errorf("topics.velocity and topics.stop_sign must differ, both are %q", c.Topics.Velocity))
	}

	if c.StopPayload == "" {
		err = multierror.Append(err, errors.New("stop_payload must not be empty"))
	}

	if math.IsNaN(c.RateHz) || c.RateHz <= 0 || c.RateHz > maxRateHz {
		err = multierror.Append(err, fmt.Errorf("rate_hz must be in (0, %d], got %g", maxRateHz, c.RateHz))
	}

	if math.IsNaN(c.Initial.Linear) || math.IsInf(c.Initial.Linear, 0) ||
		math.IsNaN(c.Initial.Angular) || math.IsInf(c.Initial.Angular, 0) {
		err = multierror.Append(err, fmt.Errorf("initial_velocity must be finite, got %s", c.Initial))
	}

	run := strings.ToLower(strings.TrimSpace(c.Commands.Run))
	stop := strings.ToLower(strings.TrimSpace(c.Commands.Stop))

	if run == "" || stop == "" {
		err = multierror.Append(err, errors.New("commands.run and commands.stop must not be empty"))
	} else if run == stop {
		err = multierror.Append(err, fmt.Errorf("commands.run and commands.stop must differ, both are %q", run))
	}

	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

// Parse decodes a YAML document over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Load reads src and parses it. src is read from FsFactory when it exists there,
// otherwise it is treated as a go-getter URL.
func Load(ctx context.Context, src string) (Config, error) {
	if src == "" {
		return Config{}, fmt.Errorf("%w: empty source", ErrReadConfig)
	}

	fs := FsFactory()

	var (
		data []byte
		err  error
	)

	if ok, _ := afero.Exists(fs, src); ok {
		data, err = afero.ReadFile(fs, src)
		if err != nil {
			return Config{}, errors.Join(ErrReadConfig, err)
		}
	} else {
		data, err = fetch(ctx, src)
		if err != nil {
			return Config{}, err
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", src, err)
	}

	return cfg, nil
}
