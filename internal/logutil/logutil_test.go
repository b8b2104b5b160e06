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

package logutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProductionNamesLogger(t *testing.T) {
	logger, err := New(Production, "store")
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewDevelopmentNamesLogger(t *testing.T) {
	logger, err := New(Development, "exec")
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestWithRequestAddsFields(t *testing.T) {
	logger := WithRequest(Nop(), "req-1", "read")
	require.NotNil(t, logger)
}
