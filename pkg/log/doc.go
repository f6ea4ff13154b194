// Package log provides fluxstate's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that preserves our existing
// formatter/outputs pipeline. This allows adoption of the slog ecosystem
// while keeping consistent output and behavior across the codebase.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("server"), log.Str("ns", "default"))
//	l.Info("server started", log.Int("port", 8080))
//
// # Configuration
//
// NewLogger takes functional options: WithLevel, WithFormatter
// (JSONFormatter, the default, or TextFormatter) and WithOutput, which may be
// given more than once (ConsoleOutput writes to stderr, NullOutput discards).
// There is no file output and no declarative config loader.
//
// # Interop
//
// RedirectStdLog routes the standard library's default *log.Logger through a
// Logger at info level. The underlying slog.Logger is not exported.
package log
