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

package store

import "go.uber.org/multierr"

// teardown closes every owned resource regardless of earlier failures,
// aggregating them into one error (spec §5: "engine drains all pinned
// tile references before suspending" — teardown must not stop partway
// through because one partition's close failed).
func (s *Store) teardown() error {
	var err error
	for name, m := range s.indexes {
		if cerr := m.Close(); cerr != nil {
			err = multierr.Append(err, multierrWrap(name, cerr))
		}
	}
	if s.primitives != nil && s.primitives.store != nil {
		if cerr := s.primitives.store.Close(); cerr != nil {
			err = multierr.Append(err, multierrWrap("primitives", cerr))
		}
	}
	if lerr := s.lock.Release(); lerr != nil {
		err = multierr.Append(err, multierrWrap("writerlock", lerr))
	}
	return err
}

func multierrWrap(component string, err error) error {
	return &componentError{component: component, err: err}
}

type componentError struct {
	component string
	err       error
}

func (e *componentError) Error() string {
	return "store: closing " + e.component + ": " + e.err.Error()
}

func (e *componentError) Unwrap() error { return e.err }
