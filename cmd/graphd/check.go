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

package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/graphd-project/graphd/internal/config"
	"github.com/graphd-project/graphd/internal/logutil"
	"github.com/graphd-project/graphd/internal/store"
)

// newCheckCmd opens dataDir read-only, prints an "ok:" line, and
// closes it again — a smoke test a deploy script can run before starting
// a long-lived serve process.
func newCheckCmd(fs afero.Fs, dataDir, configPath *string, devLog *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "open the database read-only and report basic health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(fs, *configPath)
			if err != nil {
				return err
			}
			log, err := logutil.New(logMode(*devLog), "check")
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			s, err := store.Open(log, *dataDir, cfg, false)
			if err != nil {
				return fmt.Errorf("graphd: open %s: %w", *dataDir, err)
			}
			defer s.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s is readable\n", *dataDir)
			return nil
		},
	}
}

// loadConfig decodes path through fs, falling back to config.Default when
// path is empty, so tests can exercise this against an in-memory
// afero.Fs instead of the real filesystem.
func loadConfig(fs afero.Fs, path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return config.Config{}, fmt.Errorf("graphd: read config %s: %w", path, err)
	}
	return config.Decode(data)
}
