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
	"fmt"
	"strconv"
	"strings"
)

// ErrNeedsMore is returned by Format when a KindDeferred value could not be
// driven to completion within budgetUnits; the caller suspends (spec §4.7
// "when the formatter reaches them, it drives the pipeline to completion
// (or to NeedsMore)").
var ErrNeedsMore = fmt.Errorf("result: deferred value needs more budget")

// Format renders v onto the wire grammar of spec §4.7: KindList gets
// parentheses, KindSequence is whitespace-separated with no delimiter, and
// strings are escaped (\, ", newline). budgetUnits bounds how much work
// resolving KindDeferred nodes may do before returning ErrNeedsMore.
func Format(v Value, budgetUnits int) (string, error) {
	var b strings.Builder
	if err := format(&b, v, &budgetUnits); err != nil {
		return "", err
	}
	return b.String(), nil
}

func format(b *strings.Builder, v Value, budget *int) error {
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBoolean:
		if v.Boolean {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(strconv.FormatInt(v.Number, 10))
	case KindString:
		writeEscaped(b, v.String)
	case KindAtom:
		b.WriteString(v.Atom)
	case KindGUID:
		b.WriteString(v.GUID.String())
	case KindDatatype:
		b.WriteString(strconv.Itoa(int(v.Datatype)))
	case KindTimestamp:
		b.WriteString(strconv.FormatInt(v.Timestamp, 10))
	case KindList:
		b.WriteByte('(')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			if err := format(b, item, budget); err != nil {
				return err
			}
		}
		b.WriteByte(')')
	case KindSequence:
		for i, item := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			if err := format(b, item, budget); err != nil {
				return err
			}
		}
	case KindRecords:
		b.WriteByte('(')
		for i, id := range v.Records.IDs {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatUint(uint64(id), 10))
		}
		b.WriteByte(')')
	case KindDeferred:
		resolved, ok, err := v.Deferred.Run(*budget)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNeedsMore
		}
		return format(b, resolved, budget)
	default:
		return fmt.Errorf("result: unknown value kind %d", v.Kind)
	}
	return nil
}

// writeEscaped writes s as a quoted string, escaping backslash, double
// quote, and newline (spec §4.7).
func writeEscaped(b *strings.Builder, s []byte) {
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}
