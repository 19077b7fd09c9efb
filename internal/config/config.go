// Package config provides YAML-based configuration loading for term2048.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/term2048/internal/engine"
)

// Config is the full application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Spawn   SpawnConfig   `yaml:"spawn"`
	Input   InputConfig   `yaml:"input"`
	SSH     SSHConfig     `yaml:"ssh"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig defines where the board and scores are kept.
type StorageConfig struct {
	DBPath  string `yaml:"db_path"`
	GridKey string `yaml:"grid_key"` // Slot name for the local board
}

// SpawnConfig defines the spawn value distribution.
type SpawnConfig struct {
	Weights engine.SpawnWeights `yaml:"weights"`
}

// InputConfig defines input handling parameters.
type InputConfig struct {
	SwipeThrottle    time.Duration `yaml:"swipe_throttle"`
	SwipeMinDistance int           `yaml:"swipe_min_distance"` // In terminal columns
}

// SSHConfig defines the SSH server parameters.
type SSHConfig struct {
	Address     string        `yaml:"address"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// HTTPConfig defines the web server parameters.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// LogConfig defines logging parameters.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate checks the configuration for values the game cannot run with.
func (c Config) Validate() error {
	var errs []error

	if err := c.Spawn.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Input.SwipeThrottle < 0 {
		errs = append(errs, fmt.Errorf("input.swipe_throttle must not be negative, got %s", c.Input.SwipeThrottle))
	}
	if c.Input.SwipeMinDistance < 0 {
		errs = append(errs, fmt.Errorf("input.swipe_min_distance must not be negative, got %d", c.Input.SwipeMinDistance))
	}
	if c.SSH.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("ssh.idle_timeout must not be negative, got %s", c.SSH.IdleTimeout))
	}
	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LogLevel returns the configured log level, defaulting to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
