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

package iterator

import (
	"github.com/graphd-project/graphd/internal/budget"
	"github.com/graphd-project/graphd/internal/primitive"
)

// Without is set difference: base minus excluded (spec §4.3 "without").
// base drives Next; each candidate is probed against excluded via Check.
type Without struct {
	base, excluded Iterator
	dir            Direction
}

func NewWithout(base, excluded Iterator, dir Direction) *Without {
	return &Without{base: base, excluded: excluded, dir: dir}
}

func (w *Without) Next(b *budget.Budget) (NextResult, error) {
	for {
		res, err := w.base.Next(b)
		if err != nil {
			return NextResult{}, err
		}
		if res.Outcome != Found {
			return res, nil
		}
		outcome, err := w.excluded.Check(b, res.ID)
		if err != nil {
			return NextResult{}, err
		}
		switch outcome {
		case No:
			return res, nil
		case CheckSuspend:
			return suspendResult, nil
		}
		if b.Exhausted() {
			return suspendResult, nil
		}
	}
}

func (w *Without) Find(b *budget.Budget, id primitive.ID) (NextResult, error) {
	res, err := w.base.Find(b, id)
	if err != nil {
		return NextResult{}, err
	}
	for {
		if res.Outcome != Found {
			return res, nil
		}
		outcome, err := w.excluded.Check(b, res.ID)
		if err != nil {
			return NextResult{}, err
		}
		switch outcome {
		case No:
			return res, nil
		case CheckSuspend:
			return suspendResult, nil
		}
		if b.Exhausted() {
			return suspendResult, nil
		}
		res, err = w.base.Next(b)
		if err != nil {
			return NextResult{}, err
		}
	}
}

func (w *Without) Check(b *budget.Budget, id primitive.ID) (CheckOutcome, error) {
	baseOutcome, err := w.base.Check(b, id)
	if err != nil {
		return No, err
	}
	if baseOutcome != Yes {
		return baseOutcome, nil
	}
	exOutcome, err := w.excluded.Check(b, id)
	if err != nil {
		return No, err
	}
	switch exOutcome {
	case Yes:
		return No, nil
	case CheckSuspend:
		return CheckSuspend, nil
	}
	return Yes, nil
}

func (w *Without) Statistics(b *budget.Budget) (Stats, bool, error) {
	return w.base.Statistics(b)
}

func (w *Without) Clone() Iterator {
	return &Without{base: w.base.Clone(), excluded: w.excluded.Clone(), dir: w.dir}
}

func (w *Without) Reset() {
	w.base.Reset()
	w.excluded.Reset()
}

func (w *Without) Freeze(scope FreezeScope) (string, error) {
	baseC, err := w.base.Freeze(scope)
	if err != nil {
		return "", err
	}
	exC, err := w.excluded.Freeze(scope)
	if err != nil {
		return "", err
	}
	return "without:" + frameJoin([]string{baseC, exC}), nil
}

func (w *Without) PrimitiveSummary() Summary { return w.base.PrimitiveSummary() }
func (w *Without) Beyond(id primitive.ID) bool { return w.base.Beyond(id) }
func (w *Without) Direction() Direction        { return w.dir }
func (w *Without) TypeTag() string             { return "without" }

func (w *Without) Close() {
	w.base.Close()
	w.excluded.Close()
}
