// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for SRR components.
//
// Configuration is loaded from a single YAML file specified by:
//   - the --config flag passed to the command, or
//   - the SRR_CONFIG environment variable when no flag is given.
//
// When neither names a file, the built-in defaults are used; there is
// no automatic discovery of config files. Individual settings
// may additionally be overridden through the environment variables
// REQUEST_TIMEOUT, AGENT_NAME, SRR_VERSION, and RESTART_DELAY, which
// the deployment tooling has always exported; the environment wins
// over the file.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfig is the environment variable naming the config file.
const EnvConfig = "SRR_CONFIG"

// Environment variable overrides. REQUEST_TIMEOUT is in milliseconds,
// RESTART_DELAY in seconds.
const (
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvAgentName      = "AGENT_NAME"
	EnvVersion        = "SRR_VERSION"
	EnvRestartDelay   = "RESTART_DELAY"
)

// Config is the coordinator configuration.
type Config struct {
	// AgentName is this coordinator's own name on the bus, carried in
	// the "from" field of every agent request.
	AgentName string `yaml:"agent_name"`

	// Version is the snapshot protocol version stamped on queries and
	// produced payloads.
	Version string `yaml:"version"`

	// SupportedVersions is the set of restore payload versions the
	// coordinator accepts.
	SupportedVersions []string `yaml:"supported_versions"`

	// RequestTimeoutMS bounds each agent RPC, in milliseconds. The bus
	// works in whole seconds; the value is truncated on conversion.
	RequestTimeoutMS int `yaml:"request_timeout_ms"`

	// RestartDelayS is the countdown, in seconds, before the host
	// restart hook fires after a restore that demands it.
	RestartDelayS int `yaml:"restart_delay_s"`

	// QueueDir is the directory holding one Unix socket per agent
	// queue.
	QueueDir string `yaml:"queue_dir"`

	// OperatorSocket is the Unix socket on which the coordinator
	// serves the operator API.
	OperatorSocket string `yaml:"operator_socket"`

	// CatalogPath optionally names a JSONC catalog file describing
	// the fleet. Empty means the built-in reference catalog.
	CatalogPath string `yaml:"catalog"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		AgentName:         "etn-srr",
		Version:           "2.0",
		SupportedVersions: []string{"1.0", "2.0"},
		RequestTimeoutMS:  60000,
		RestartDelayS:     5,
		QueueDir:          "/run/srr",
		OperatorSocket:    "/run/srr/srr-ui.sock",
	}
}

// Load reads the config file at path, or the defaults when path is
// empty, then applies environment overrides and validates. When path
// is empty and SRR_CONFIG is set, the environment's path is used.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays the environment variable overrides.
func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAgentName); v != "" {
		c.AgentName = v
	}
	if v := os.Getenv(EnvVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", EnvRequestTimeout, v, err)
		}
		c.RequestTimeoutMS = ms
	}
	if v := os.Getenv(EnvRestartDelay); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s=%q: %w", EnvRestartDelay, v, err)
		}
		c.RestartDelayS = s
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.AgentName == "" {
		return fmt.Errorf("agent_name must not be empty")
	}
	if c.Version == "" {
		return fmt.Errorf("version must not be empty")
	}
	if len(c.SupportedVersions) == 0 {
		return fmt.Errorf("supported_versions must not be empty")
	}
	if !slices.Contains(c.SupportedVersions, c.Version) {
		return fmt.Errorf("version %q is not in supported_versions %v", c.Version, c.SupportedVersions)
	}
	if c.RequestTimeoutMS < 1000 {
		return fmt.Errorf("request_timeout_ms must be at least 1000, got %d", c.RequestTimeoutMS)
	}
	if c.RestartDelayS < 0 {
		return fmt.Errorf("restart_delay_s must not be negative, got %d", c.RestartDelayS)
	}
	return nil
}

// RequestTimeout converts the configured millisecond timeout to the
// whole-second duration used on the bus.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS/1000) * time.Second
}

// RestartDelay returns the restart countdown as a duration.
func (c Config) RestartDelay() time.Duration {
	return time.Duration(c.RestartDelayS) * time.Second
}
