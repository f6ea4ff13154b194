// Package config provides loading and environment overlay for the
// fluxstate demo server/CLI's configuration. It exposes a Default()
// baseline, a JSON Load(path), and a FromEnv(*Config) overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/fluxstate.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
package config
