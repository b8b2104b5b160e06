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

package plan

import "github.com/graphd-project/graphd/internal/constraint"

// FrameKind distinguishes the two result-materialization shapes spec §4.5
// step 10 names.
type FrameKind uint8

const (
	// FrameOne extracts one value tuple per matched primitive.
	FrameOne FrameKind = iota
	// FrameSet extracts one value tuple per matched *set* (a collect=
	// pattern gathering across sibling matches).
	FrameSet
)

// Slot is one output cell a pattern-frame writes, indexed into the frame's
// flat layout so execution can bind by position instead of walking the
// pattern tree again at bind time.
type Slot struct {
	PatternIdx int
	Kind       FrameKind
}

// Frame is the precomputed record describing how to materialize one
// constraint's output (spec §4.5 step 10: "precompute a record describing
// how to materialize the result set... indexed by a slot table").
type Frame struct {
	Slots []Slot
}

// BuildPatternFrames is pipeline step 10: for every constraint with a
// result pattern, compute its Frame and stash it on Constraint.Plan's frame
// slot (via the ConstraintPlan wrapper shape.go defines, created here if
// absent).
func BuildPatternFrames(req *constraint.Request) error {
	return req.Walk(req.Root, func(idx int, c *constraint.Constraint) error {
		if c.ResultPattern < 0 {
			return nil
		}
		frame := &Frame{}
		collectSlots(req, c.ResultPattern, &frame.Slots)
		plan := constraintPlanOf(c)
		plan.Frame = frame
		return nil
	})
}

func collectSlots(req *constraint.Request, patIdx int, out *[]Slot) {
	if patIdx < 0 {
		return
	}
	p := req.Pattern(patIdx)
	switch p.Kind {
	case constraint.KindList, constraint.KindPick:
		for _, c := range p.Children {
			collectSlots(req, c, out)
		}
	default:
		kind := FrameOne
		if p.Collect {
			kind = FrameSet
		}
		*out = append(*out, Slot{PatternIdx: patIdx, Kind: kind})
	}
}
