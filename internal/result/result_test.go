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

package result

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatListUsesParens(t *testing.T) {
	v := List(String([]byte("a")), Num(1), Bool(true))
	out, err := Format(v, 1000)
	require.NoError(t, err)
	require.Equal(t, `("a" 1 true)`, out)
}

func TestFormatSequenceIsBorderless(t *testing.T) {
	v := Sequence(Num(1), Num(2))
	out, err := Format(v, 1000)
	require.NoError(t, err)
	require.Equal(t, "1 2", out)
}

func TestFormatEscapesSpecialCharacters(t *testing.T) {
	v := String([]byte("a\"b\\c\nd"))
	out, err := Format(v, 1000)
	require.NoError(t, err)
	require.Equal(t, `"a\"b\\c\nd"`, out)
}

type stubDeferred struct {
	ready bool
	v     Value
}

func (s *stubDeferred) Run(budgetUnits int) (Value, bool, error) {
	if !s.ready {
		return Value{}, false, nil
	}
	return s.v, true, nil
}

func TestFormatDeferredNotReadySuspends(t *testing.T) {
	v := Value{Kind: KindDeferred, Deferred: &stubDeferred{}}
	_, err := Format(v, 10)
	require.ErrorIs(t, err, ErrNeedsMore)
}

func TestFormatDeferredReadyResolves(t *testing.T) {
	v := Value{Kind: KindDeferred, Deferred: &stubDeferred{ready: true, v: Num(42)}}
	out, err := Format(v, 10)
	require.NoError(t, err)
	require.Equal(t, "42", out)
}

func TestRenderModifiersOrder(t *testing.T) {
	m := Modifiers{Cursor: "fixed:...", ID: "client-1"}
	out, err := Render(m)
	require.NoError(t, err)
	require.Equal(t, `cursor="fixed:..." id="client-1"`, out)
}

func TestRenderHeatmapEncodesJSON(t *testing.T) {
	m := Modifiers{Heatmap: &Heatmap{Entries: []HeatmapEntry{{ConstraintIdx: 0, Shape: "fixed", Estimate: 3}}}}
	out, err := Render(m)
	require.NoError(t, err)
	require.Contains(t, out, `"shape":"fixed"`)
}
