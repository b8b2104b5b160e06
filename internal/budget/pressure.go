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

package budget

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PressureCounter tracks read-suspends-per-minute as a rolling two-minute
// window, reported once a minute (spec §5). It is implemented as two
// one-minute buckets that rotate; the reported rate blends the current and
// previous bucket weighted by how far into the current minute we are,
// giving an exponentially-smoothed reading without unbounded history.
//
// golang.org/x/time/rate additionally throttles how often RecordSuspend
// itself can log a warning, so a pathological client cannot flood the log
// the way it can trivially trigger suspends.
type PressureCounter struct {
	mu         sync.Mutex
	now        func() time.Time
	bucketSize time.Duration
	curStart   time.Time
	cur, prev  int
	logLimiter *rate.Limiter
}

// NewPressureCounter builds a counter with one-minute buckets.
func NewPressureCounter(now func() time.Time) *PressureCounter {
	if now == nil {
		now = time.Now
	}
	return &PressureCounter{
		now:        now,
		bucketSize: time.Minute,
		curStart:   now(),
		logLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (p *PressureCounter) rotateLocked() {
	t := p.now()
	for t.Sub(p.curStart) >= p.bucketSize {
		p.prev = p.cur
		p.cur = 0
		p.curStart = p.curStart.Add(p.bucketSize)
	}
}

// RecordSuspend registers one read-suspend event (a read yielding the
// runloop in favor of a pending write, spec §5).
func (p *PressureCounter) RecordSuspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rotateLocked()
	p.cur++
}

// ShouldLog reports whether now is a good moment to emit a pressure log
// line, rate-limited to at most once per second regardless of call volume.
func (p *PressureCounter) ShouldLog() bool {
	return p.logLimiter.Allow()
}

// RatePerMinute returns the current blended read-suspends-per-minute
// estimate across the rolling two-minute window.
func (p *PressureCounter) RatePerMinute() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rotateLocked()
	frac := float64(p.now().Sub(p.curStart)) / float64(p.bucketSize)
	if frac > 1 {
		frac = 1
	}
	return float64(p.prev)*(1-frac) + float64(p.cur)*frac
}
