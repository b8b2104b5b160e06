// Copyright 2024 The Graphd Authors
// This file is part of graphd.
//
// graphd is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// graphd is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with graphd. If not, see <http://www.gnu.org/licenses/>.

// Package config decodes the core's configuration block (spec §6):
// "config: { partition_stride, split_threshold, large_file_initial_map,
// fast_intersect_max, check_cache_cap, read_suspends_window_ms }". The
// TCP/session plumbing and signal/config loading that surround this block
// are out of scope (spec §1); this package only owns the typed
// representation the core consumes.
package config

import (
	"fmt"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/pelletier/go-toml/v2"
)

// Config is the core's tunable parameter set. Every field here is named in
// spec §6 or §9 as an implementer tunable; none of them change the data
// model or the algebra's semantics.
type Config struct {
	// Partition geometry (§3.3, §4.1).
	PartitionStride     int               `toml:"partition_stride"`
	SplitThreshold      int               `toml:"split_threshold"`
	LargeFileInitialMap datasize.ByteSize `toml:"large_file_initial_map"`

	// Iterator algebra tunables (§3.3, §9: "fast-intersect" bitmap
	// crossover, exact threshold left to the implementer).
	FastIntersectMax int `toml:"fast_intersect_max"`

	// Coat-check / cached-iterator-state capacity (§3.9, §4.3).
	CheckCacheCap int `toml:"check_cache_cap"`

	// Read-suspends-per-minute pressure window (§5).
	ReadSuspendsWindowMS int `toml:"read_suspends_window_ms"`
}

// Default returns the configuration used when no file overrides it. Values
// mirror the magnitudes spec §9 suggests as reasonable starting points for
// an implementer-tunable default.
func Default() Config {
	return Config{
		PartitionStride:      1 << 20,
		SplitThreshold:       14,
		LargeFileInitialMap:  4 * datasize.MB,
		FastIntersectMax:     1 << 15,
		CheckCacheCap:        4096,
		ReadSuspendsWindowMS: 60_000,
	}
}

// ReadSuspendsWindow is ReadSuspendsWindowMS as a time.Duration, for callers
// that drive a ticker or timer directly.
func (c Config) ReadSuspendsWindow() time.Duration {
	return time.Duration(c.ReadSuspendsWindowMS) * time.Millisecond
}

// Decode parses a TOML document (the `config: { ... }` block, spec §6) on
// top of Default, so a config file only needs to mention the fields it
// overrides.
func Decode(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the core cannot run under.
func (c Config) Validate() error {
	if c.PartitionStride <= 0 {
		return fmt.Errorf("config: partition_stride must be positive, got %d", c.PartitionStride)
	}
	if c.SplitThreshold <= 0 {
		return fmt.Errorf("config: split_threshold must be positive, got %d", c.SplitThreshold)
	}
	if c.LargeFileInitialMap == 0 {
		return fmt.Errorf("config: large_file_initial_map must be positive")
	}
	if c.FastIntersectMax < 0 {
		return fmt.Errorf("config: fast_intersect_max must be non-negative, got %d", c.FastIntersectMax)
	}
	if c.CheckCacheCap < 0 {
		return fmt.Errorf("config: check_cache_cap must be non-negative, got %d", c.CheckCacheCap)
	}
	if c.ReadSuspendsWindowMS <= 0 {
		return fmt.Errorf("config: read_suspends_window_ms must be positive, got %d", c.ReadSuspendsWindowMS)
	}
	return nil
}
