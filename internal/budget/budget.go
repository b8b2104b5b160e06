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

// Package budget implements the cooperative-scheduling primitives of spec
// §5: a per-request cost allowance that iterator operations charge against
// and that forces a yield once exhausted, and the read-suspends-per-minute
// pressure counter.
package budget

// Budget is an integer cost allowance (spec GLOSSARY). Every iterator
// next/find/check/statistics call charges it; once non-positive, the
// current operation must yield back to the runloop (spec §5).
type Budget struct {
	remaining int
}

// New returns a Budget with the given initial allowance.
func New(initial int) *Budget {
	return &Budget{remaining: initial}
}

// Charge deducts cost and reports whether the budget is now exhausted
// (remaining <= 0). Callers that see exhausted=true must return NeedsMore
// rather than continue working.
func (b *Budget) Charge(cost int) (exhausted bool) {
	b.remaining -= cost
	return b.remaining <= 0
}

// Exhausted reports whether the budget is already spent, without charging
// anything.
func (b *Budget) Exhausted() bool {
	return b.remaining <= 0
}

// Remaining returns the current allowance.
func (b *Budget) Remaining() int {
	return b.remaining
}

// Refill adds amount back to the allowance (used when a suspended request
// resumes with a fresh per-call quantum).
func (b *Budget) Refill(amount int) {
	b.remaining += amount
}

// Standard per-operation costs, tunable in practice but given sane
// defaults here; spec §9 notes these are implementer tunables.
const (
	CostNext       = 1
	CostFind       = 2
	CostCheck      = 1
	CostStatistics = 4
)
