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

// Package bitutil holds the small bit-packing helpers used to tag GMAP index
// slots and pdb_ids. Adapted from erigon-lib/common/math's overflow-checked
// integer helpers.
package bitutil

import "fmt"

// MaxID34 is the largest value representable by a 34-bit pdb_id (§3.1).
const MaxID34 = 1<<34 - 1

// MaxPayload40 is the largest payload representable alongside a 2-bit tag in
// a 40-bit GMAP index slot (§6: "2-bit tag + 34-bit payload").
const MaxPayload40 = 1<<34 - 1

// CeilDiv returns ceil(x/y), or 0 if y is 0.
func CeilDiv(x, y int) int {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}

// SafeAdd returns x+y and whether the addition overflowed a uint64.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum := x + y
	return sum, sum < x
}

// NextPowerOfTwoExp returns the smallest e such that 1<<e >= n, for n >= 1.
func NextPowerOfTwoExp(n int) uint {
	if n <= 1 {
		return 0
	}
	var e uint
	for (1 << e) < n {
		e++
	}
	return e
}

// CheckID34 validates that id fits in the 34-bit pdb_id space.
func CheckID34(id uint64) error {
	if id > MaxID34 {
		return fmt.Errorf("bitutil: id %d exceeds 34-bit pdb_id range", id)
	}
	return nil
}
