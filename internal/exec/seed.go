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

package exec

import (
	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/idarray"
	"github.com/graphd-project/graphd/internal/iterator"
	"github.com/graphd-project/graphd/internal/primitive"
)

// intersectTwo drains a and b fully and returns their sorted intersection
// as a fixed iterator, the typical collapse of subrequest seeding (spec
// §4.6: "typically collapses the child iterator to a fixed array").
func intersectTwo(a, b iterator.Iterator, dir iterator.Direction, b2 *budget.Budget) (iterator.Iterator, bool, error) {
	av, err := drain(a, b2)
	if err != nil {
		return nil, false, err
	}
	bv, err := drain(b, b2)
	if err != nil {
		return nil, false, err
	}
	merged := idarray.Intersect(idarray.Slice(av), idarray.Slice(bv))
	return iterator.NewFixed(merged, dir), true, nil
}

func drain(it iterator.Iterator, b *budget.Budget) ([]primitive.ID, error) {
	var out []primitive.ID
	for {
		nr, err := it.Next(b)
		if err != nil {
			return nil, err
		}
		if nr.Outcome != iterator.Found {
			break
		}
		out = append(out, nr.ID)
	}
	it.Reset()
	return out, nil
}
