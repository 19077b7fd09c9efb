package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/term2048/internal/engine"
	"github.com/vovakirdan/term2048/internal/input"
)

//go:embed defaults/2048.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			DBPath:  "~/.term2048/term2048.db",
			GridKey: engine.DefaultKey,
		},
		Spawn: SpawnConfig{
			Weights: engine.DefaultWeights(),
		},
		Input: InputConfig{
			SwipeThrottle:    input.DefaultThrottle,
			SwipeMinDistance: input.DefaultSwipeDistance,
		},
		SSH: SSHConfig{
			Address:     ":23234",
			HostKey:     ".ssh/term2048_ed25519",
			IdleTimeout: 30 * time.Minute,
		},
		HTTP: HTTPConfig{
			Address: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
