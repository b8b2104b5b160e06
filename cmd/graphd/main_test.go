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
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestVersionCommandPrintsVersion(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd(afero.NewMemMapFs())
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	require.Equal(t, version+"\n", out.String())
}

func TestCheckCommandOpensAndReportsHealth(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd(afero.NewMemMapFs())
	root.SetOut(&out)
	dir := t.TempDir()
	root.SetArgs([]string{"check", "--dir", dir})
	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "ok:")
}

func TestLoadConfigDecodesFromMemMapFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.toml", []byte(`fast_intersect_max = 7`), 0o644))

	cfg, err := loadConfig(fs, "/cfg.toml")
	require.NoError(t, err)
	require.Equal(t, 7, cfg.FastIntersectMax)
}

func TestLoadConfigDefaultsWhenPathEmpty(t *testing.T) {
	cfg, err := loadConfig(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	require.Equal(t, 1<<15, cfg.FastIntersectMax)
}
