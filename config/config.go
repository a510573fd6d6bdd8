// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML or JSON file, falling
// back from YAML to JSON parsing the way the teacher's loader does.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing format by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults fills any zero-valued field with its Default() counterpart.
// Called after a partial file load so an operator's config.yaml only
// needs to name the keys it wants to override.
func setDefaults(cfg *Config) {
	d := Default()

	if cfg.Environment == "" {
		cfg.Environment = d.Environment
	}
	if cfg.InitialTTL == 0 {
		cfg.InitialTTL = d.InitialTTL
	}
	if cfg.MaxTTL == 0 {
		cfg.MaxTTL = d.MaxTTL
	}
	if cfg.FragmentSize == 0 {
		cfg.FragmentSize = d.FragmentSize
	}
	if cfg.ReassemblyTimeoutMS == 0 {
		cfg.ReassemblyTimeoutMS = d.ReassemblyTimeoutMS
	}
	if cfg.DedupCapacity == 0 {
		cfg.DedupCapacity = d.DedupCapacity
	}
	if cfg.DedupTTLMS == 0 {
		cfg.DedupTTLMS = d.DedupTTLMS
	}
	if cfg.RouteTTLMS == 0 {
		cfg.RouteTTLMS = d.RouteTTLMS
	}
	if cfg.PeerStaleMS == 0 {
		cfg.PeerStaleMS = d.PeerStaleMS
	}
	if cfg.PeerDeadMS == 0 {
		cfg.PeerDeadMS = d.PeerDeadMS
	}
	if cfg.BandwidthBPS == 0 {
		cfg.BandwidthBPS = d.BandwidthBPS
	}
	if cfg.SessionRotateIntervalMS == 0 {
		cfg.SessionRotateIntervalMS = d.SessionRotateIntervalMS
	}
	if cfg.SessionRotateBytes == 0 {
		cfg.SessionRotateBytes = d.SessionRotateBytes
	}
	if cfg.QueueItemTTLUserMS == 0 {
		cfg.QueueItemTTLUserMS = d.QueueItemTTLUserMS
	}
	if cfg.QueueItemTTLControlMS == 0 {
		cfg.QueueItemTTLControlMS = d.QueueItemTTLControlMS
	}
	if cfg.LedgerRetentionMS == 0 {
		cfg.LedgerRetentionMS = d.LedgerRetentionMS
	}
	if cfg.PingChallengeBytes == 0 {
		cfg.PingChallengeBytes = d.PingChallengeBytes
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = d.Logging.Output
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = d.Metrics.Port
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = d.Metrics.Path
	}
	if cfg.Persistence.Driver == "" {
		cfg.Persistence.Driver = d.Persistence.Driver
	}
}

// ValidationError describes a single configuration problem.
type ValidationError struct {
	Field   string
	Message string
	Level   string // "error" blocks Load; "warn" is advisory only
}

// ValidateConfiguration checks invariants the engine depends on at
// startup (§6 option bounds and cross-field consistency).
func ValidateConfiguration(cfg *Config) []ValidationError {
	var errs []ValidationError

	if cfg.InitialTTL <= 0 {
		errs = append(errs, ValidationError{"initial_ttl", "must be positive", "error"})
	}
	if cfg.MaxTTL < cfg.InitialTTL {
		errs = append(errs, ValidationError{"max_ttl", "must be >= initial_ttl", "error"})
	}
	if cfg.FragmentSize <= 0 {
		errs = append(errs, ValidationError{"fragment_size", "must be positive", "error"})
	}
	if cfg.DedupCapacity <= 0 {
		errs = append(errs, ValidationError{"dedup_capacity", "must be positive", "error"})
	}
	if cfg.BandwidthBPS <= 0 {
		errs = append(errs, ValidationError{"bandwidth_bps", "must be positive", "error"})
	}
	if cfg.PeerDeadMS <= cfg.PeerStaleMS {
		errs = append(errs, ValidationError{"peer_dead_ms", "must be greater than peer_stale_ms", "error"})
	}

	switch cfg.Persistence.Driver {
	case "memory":
	case "postgres":
		if cfg.Persistence.Postgres == nil {
			errs = append(errs, ValidationError{"persistence.postgres", "required when driver is postgres", "error"})
		}
	default:
		errs = append(errs, ValidationError{"persistence.driver", "must be memory or postgres", "error"})
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"logging.level", "unrecognized level, defaulting at runtime", "warn"})
	}

	return errs
}
