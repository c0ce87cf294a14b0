// Package logging provides a minimal logging interface and adapters for pathway.
//
// The router, agents, stores and the HTTP surface depend only on the Logger
// interface. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping go.uber.org/zap
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - StructuredLogger with request scoped attributes and helpers for
//     agent runs, routing decisions and persistence calls
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelInfo, Format: "json"})
//	r, err := router.New(table, agents, router.WithLogger(logger))
package logging
