package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config is the top-level configuration for the fluxstate demo server/CLI,
// loaded from file and overlaid with environment variables.
type Config struct {
	// BackingStoreTarget is the gRPC dial target for the remote backing
	// store (e.g. "localhost:7070"). Empty means use the local Pebble-backed
	// store instead.
	BackingStoreTarget string `json:"backingStoreTarget"`
	// BackingStoreTLS enables TLS transport credentials when dialing
	// BackingStoreTarget.
	BackingStoreTLS bool `json:"backingStoreTLS"`
	// DialTimeoutMs sets the deadline of the context handed to the
	// backing-store dialer. The dialer from backingstore.DialTarget does not
	// use that context (grpc.NewClient connects lazily), so it does not bound
	// connection setup.
	DialTimeoutMs int `json:"dialTimeoutMs"`
	// DataDir is where the local Pebble-backed store keeps its files.
	DataDir string `json:"dataDir"`
	// LogLevel is one of debug|info|warn|error.
	LogLevel string `json:"logLevel"`
	// LogFormat is one of text|json.
	LogFormat string `json:"logFormat"`
	// MetricsAddr is the listen address for the Prometheus /metrics
	// endpoint. Empty disables it.
	MetricsAddr string `json:"metricsAddr"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		BackingStoreTarget: "",
		BackingStoreTLS:    false,
		DialTimeoutMs:      5000,
		DataDir:            DefaultDataDir(),
		LogLevel:           "info",
		LogFormat:          "text",
		MetricsAddr:        "",
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults. YAML is not supported; adding gopkg.in/yaml.v3 would be the
// natural next step if a deployment needs it.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported yet; use JSON for now")
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
