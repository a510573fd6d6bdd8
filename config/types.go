// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Package config provides layered configuration (defaults -> YAML file
// -> environment overrides) for the mesh engine.
package config

import "time"

// Config is the engine's top-level configuration. Millisecond-suffixed
// fields mirror the option names of the engine config table exactly so
// a YAML file or environment override maps one-to-one onto a field.
type Config struct {
	Environment string `yaml:"environment" json:"environment"`

	InitialTTL          int `yaml:"initial_ttl" json:"initial_ttl"`
	MaxTTL              int `yaml:"max_ttl" json:"max_ttl"`
	FragmentSize        int `yaml:"fragment_size" json:"fragment_size"`
	ReassemblyTimeoutMS int `yaml:"reassembly_timeout_ms" json:"reassembly_timeout_ms"`

	DedupCapacity int `yaml:"dedup_capacity" json:"dedup_capacity"`
	DedupTTLMS    int `yaml:"dedup_ttl_ms" json:"dedup_ttl_ms"`

	RouteTTLMS  int `yaml:"route_ttl_ms" json:"route_ttl_ms"`
	PeerStaleMS int `yaml:"peer_stale_ms" json:"peer_stale_ms"`
	PeerDeadMS  int `yaml:"peer_dead_ms" json:"peer_dead_ms"`

	BandwidthBPS int `yaml:"bandwidth_bps" json:"bandwidth_bps"`

	SessionRotateIntervalMS int   `yaml:"session_rotate_interval_ms" json:"session_rotate_interval_ms"`
	SessionRotateBytes      int64 `yaml:"session_rotate_bytes" json:"session_rotate_bytes"`

	QueueItemTTLUserMS    int64 `yaml:"queue_item_ttl_user_ms" json:"queue_item_ttl_user_ms"`
	QueueItemTTLControlMS int64 `yaml:"queue_item_ttl_control_ms" json:"queue_item_ttl_control_ms"`
	LedgerRetentionMS     int64 `yaml:"ledger_retention_ms" json:"ledger_retention_ms"`

	PingChallengeBytes int `yaml:"ping_challenge_bytes" json:"ping_challenge_bytes"`

	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics" json:"metrics"`
	Persistence PersistenceConfig `yaml:"persistence" json:"persistence"`
}

// LoggingConfig mirrors the teacher's logging section.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
	Output string `yaml:"output" json:"output"` // stdout, stderr, file path
}

// MetricsConfig configures the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// PersistenceConfig selects and configures the durable storage backend.
type PersistenceConfig struct {
	Driver   string          `yaml:"driver" json:"driver"` // memory, postgres
	Postgres *PostgresConfig `yaml:"postgres,omitempty" json:"postgres,omitempty"`
}

// PostgresConfig mirrors persistence/postgres.Config's fields for YAML
// loading; the engine copies it across when it opens the postgres backend.
type PostgresConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
	SSLMode  string `yaml:"ssl_mode" json:"ssl_mode"`
}

// Default returns the engine's default configuration, matching the
// option defaults named in the engine config table.
func Default() *Config {
	return &Config{
		Environment: "development",

		InitialTTL:          7,
		MaxTTL:              16,
		FragmentSize:        65536,
		ReassemblyTimeoutMS: 30000,

		DedupCapacity: 10000,
		DedupTTLMS:    600000,

		RouteTTLMS:  300000,
		PeerStaleMS: 60000,
		PeerDeadMS:  180000,

		BandwidthBPS: 1048576,

		SessionRotateIntervalMS: 86400000,
		SessionRotateBytes:      1 << 30,

		QueueItemTTLUserMS:    604800000,
		QueueItemTTLControlMS: 3600000,
		LedgerRetentionMS:     15552000000,

		PingChallengeBytes: 16,

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Persistence: PersistenceConfig{
			Driver: "memory",
		},
	}
}

// ReassemblyTimeout returns the configured reassembly deadline.
func (c *Config) ReassemblyTimeout() time.Duration {
	return time.Duration(c.ReassemblyTimeoutMS) * time.Millisecond
}

// DedupTTL returns the configured dedup cache entry lifetime.
func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.DedupTTLMS) * time.Millisecond
}

// RouteTTL returns the configured routing table hint lifetime.
func (c *Config) RouteTTL() time.Duration {
	return time.Duration(c.RouteTTLMS) * time.Millisecond
}

// PeerStale returns the configured stale-peer threshold.
func (c *Config) PeerStale() time.Duration {
	return time.Duration(c.PeerStaleMS) * time.Millisecond
}

// PeerDead returns the configured dead-peer threshold.
func (c *Config) PeerDead() time.Duration {
	return time.Duration(c.PeerDeadMS) * time.Millisecond
}

// SessionRotateInterval returns the configured forward-secrecy rotation interval.
func (c *Config) SessionRotateInterval() time.Duration {
	return time.Duration(c.SessionRotateIntervalMS) * time.Millisecond
}

// QueueItemTTLUser returns the configured durable-queue lifetime for user frames.
func (c *Config) QueueItemTTLUser() time.Duration {
	return time.Duration(c.QueueItemTTLUserMS) * time.Millisecond
}

// QueueItemTTLControl returns the configured durable-queue lifetime for control frames.
func (c *Config) QueueItemTTLControl() time.Duration {
	return time.Duration(c.QueueItemTTLControlMS) * time.Millisecond
}

// LedgerRetention returns the configured known-nodes ledger retention window.
func (c *Config) LedgerRetention() time.Duration {
	return time.Duration(c.LedgerRetentionMS) * time.Millisecond
}
