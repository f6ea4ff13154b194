package config

import (
	"os"
	"strconv"
)

// FromEnv overlays FLUXSTATE_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("FLUXSTATE_BACKING_STORE_TARGET"); v != "" {
		cfg.BackingStoreTarget = v
	}
	if v := os.Getenv("FLUXSTATE_BACKING_STORE_TLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.BackingStoreTLS = b
		}
	}
	if v := os.Getenv("FLUXSTATE_DIAL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DialTimeoutMs = n
		}
	}
	if v := os.Getenv("FLUXSTATE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FLUXSTATE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLUXSTATE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("FLUXSTATE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}
