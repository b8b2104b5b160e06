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
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Cost is the per-request stat line rendered as cost="tu=… ts=… …" (spec
// §4.7). Field names match the wire tags literally.
type Cost struct {
	TimeUs        int64 `json:"tu"`
	TimeStatistics int64 `json:"ts"`
	TimeRun       int64 `json:"tr"`
	TimeExecute   int64 `json:"te"`
	PagesRead     int64 `json:"pr"`
	PagesFaulted  int64 `json:"pf"`
	DiskWrites    int64 `json:"dw"`
	DiskReads     int64 `json:"dr"`
	IndexNext     int64 `json:"in"`
	IndexRead     int64 `json:"ir"`
	IndexWrites   int64 `json:"iw"`
	ValuesOut     int64 `json:"va"`
}

// wireLine renders the cost fields in the literal order spec §4.7 gives
// them; jsoniter (used below for the debug-JSON heatmap encoding) does not
// preserve struct field order across versions, so the human-readable
// cost= line is built by hand instead.
func (c Cost) wireLine() string {
	return fmt.Sprintf("tu=%d ts=%d tr=%d te=%d pr=%d pf=%d dw=%d dr=%d in=%d ir=%d iw=%d va=%d",
		c.TimeUs, c.TimeStatistics, c.TimeRun, c.TimeExecute, c.PagesRead, c.PagesFaulted,
		c.DiskWrites, c.DiskReads, c.IndexNext, c.IndexRead, c.IndexWrites, c.ValuesOut)
}

// Heatmap is the planner trace of spec §4.7: one entry per constraint,
// naming the iterator shape the planner picked for it. internal/exec and
// internal/plan populate this as they run; internal/result only encodes
// it.
type Heatmap struct {
	Entries []HeatmapEntry
}

// HeatmapEntry names one constraint's chosen iterator shape in the trace.
type HeatmapEntry struct {
	ConstraintIdx int    `json:"constraint"`
	Shape         string `json:"shape"`
	Estimate      uint64 `json:"estimate"`
}

var heatmapJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeHeatmap renders h as the structured debug JSON spec §6 embeds in
// heatmap="..." (json-iterator is the teacher's fast-JSON-path dependency,
// reused here for exactly that concern).
func EncodeHeatmap(h Heatmap) (string, error) {
	b, err := heatmapJSON.Marshal(h.Entries)
	if err != nil {
		return "", fmt.Errorf("result: encode heatmap: %w", err)
	}
	return string(b), nil
}

// Modifiers is the set of cursor-modifier fields a reply may carry (spec
// §4.7): cursor=, dateline=, cost=, id=, heatmap=.
type Modifiers struct {
	Cursor   string // frozen-iterator resume token, empty if the request ran to completion
	Dateline string // serialized causal read watermark
	Cost     *Cost
	ID       string // client-supplied echo
	Heatmap  *Heatmap
}

// Render writes the modifier line appended to a reply, in the literal
// order spec §6 lists them.
func Render(m Modifiers) (string, error) {
	var parts []string
	if m.Cursor != "" {
		parts = append(parts, fmt.Sprintf("cursor=%q", m.Cursor))
	}
	if m.Dateline != "" {
		parts = append(parts, fmt.Sprintf("dateline=%q", m.Dateline))
	}
	if m.Cost != nil {
		parts = append(parts, fmt.Sprintf("cost=%q", m.Cost.wireLine()))
	}
	if m.ID != "" {
		parts = append(parts, fmt.Sprintf("id=%q", m.ID))
	}
	if m.Heatmap != nil {
		encoded, err := EncodeHeatmap(*m.Heatmap)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("heatmap=%q", encoded))
	}
	return strings.Join(parts, " "), nil
}
