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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/graphd-project/graphd/internal/logutil"
	"github.com/graphd-project/graphd/internal/store"
)

// newServeCmd opens dataDir under the exclusive writer lock and blocks
// until SIGINT/SIGTERM, then closes every resource. The session/TCP
// listener that would actually drive requests off the wire is the
// out-of-scope collaborator spec §1 names; this command only owns the
// process lifetime and the store handle requests get dispatched against.
func newServeCmd(fs afero.Fs, dataDir, configPath *string, devLog *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "hold the writer lock on a database until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(fs, *configPath)
			if err != nil {
				return err
			}
			log, err := logutil.New(logMode(*devLog), "serve")
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			s, err := store.Open(log, *dataDir, cfg, true)
			if err != nil {
				return fmt.Errorf("graphd: open %s: %w", *dataDir, err)
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			fmt.Fprintf(cmd.OutOrStdout(), "graphd: serving %s (writer lock held)\n", *dataDir)
			<-sig

			fmt.Fprintln(cmd.OutOrStdout(), "graphd: shutting down")
			return s.Close()
		},
	}
}
