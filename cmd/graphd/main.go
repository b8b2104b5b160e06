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

// Command graphd is the ambient CLI surface around the core (spec §1:
// "TCP/session plumbing ... is out of scope"; SPEC_FULL's MODULE MAP
// notes the CLI itself as "out of hard-core scope, but ambient"). It only
// exposes the pieces that don't require the out-of-scope wire parser: opening
// a database, checking its health, and printing version/build info.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/graphd-project/graphd/internal/logutil"
)

var version = "dev"

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	var (
		dataDir    string
		configPath string
		devLog     bool
	)

	root := &cobra.Command{
		Use:   "graphd",
		Short: "graphd is a single-writer, multi-reader graph query engine",
	}
	root.PersistentFlags().StringVar(&dataDir, "dir", "./data", "database directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config.toml overriding the defaults")
	root.PersistentFlags().BoolVar(&devLog, "dev", false, "use human-readable development logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newCheckCmd(fs, &dataDir, &configPath, &devLog))
	root.AddCommand(newServeCmd(fs, &dataDir, &configPath, &devLog))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the graphd version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func logMode(dev bool) logutil.Mode {
	if dev {
		return logutil.Development
	}
	return logutil.Production
}
