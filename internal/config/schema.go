// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the gateway's HJSON configuration file.
package config

// Config is the gateway's own configuration, loaded from an HJSON file
// (harness.hjson by convention). Every field has a built-in default, so
// an empty or absent file is a valid configuration.
type Config struct {
	Gateway GatewayConfig `json:"gateway"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
	Session SessionConfig `json:"session"`
	Metrics MetricsConfig `json:"metrics"`
}

// GatewayConfig controls the control-plane listener and its single-writer
// election record.
type GatewayConfig struct {
	// Host/Port are where the wire protocol listens. Port 0 means
	// "pick any free loopback port" and is the default.
	Host string `json:"host"`
	Port int    `json:"port"`

	// AuthTokenEnv names the environment variable holding the bearer
	// token hello must present. Unset means the gateway mints a random
	// token at startup and writes it into the gateway record.
	AuthTokenEnv string `json:"authTokenEnv"`

	// StateDir holds the gateway record file and, by default, the
	// SQLite database. Defaults to "~/.harness".
	StateDir string `json:"stateDir"`
}

// StorageConfig controls the persisted event log / snapshot database.
type StorageConfig struct {
	// Path overrides the database file location; empty means
	// "<StateDir>/harness.db".
	Path string `json:"path"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `json:"level"`
	JSON  bool   `json:"json"`
}

// SessionConfig controls per-session resource limits, mirroring
// internal/ptysession.Config.
type SessionConfig struct {
	RingBufferBytes   int `json:"ringBufferBytes"`
	RespondQueueDepth int `json:"respondQueueDepth"`
}

// MetricsConfig controls the loopback HTTP listener shared by the
// Prometheus scrape endpoint and the websocket command/event bridge
// (internal/wsbridge) -- one gorilla/mux router serves both.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// applyDefaults fills in every zero-valued field with the gateway's
// built-in defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.StateDir == "" {
		cfg.Gateway.StateDir = "~/.harness"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Session.RingBufferBytes == 0 {
		cfg.Session.RingBufferBytes = 256 * 1024
	}
	if cfg.Session.RespondQueueDepth == 0 {
		cfg.Session.RespondQueueDepth = 64
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = "127.0.0.1:9090"
	}
}
