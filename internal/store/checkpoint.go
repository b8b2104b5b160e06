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

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"
)

// checkpoint tracks the stable-storage horizon replies must wait behind
// (spec §5: "reply held until writes reach stable storage"; §7 "write path
// blocks on the checkpoint future; reads never block on writes" — the
// symmetric read-side wait is for a checkpoint the read's own snapshot
// already depends on, e.g. one in flight when the session opened).
//
// sem is held at weight 1 by whichever goroutine is currently advancing
// the horizon, so WaitStable callers never race a concurrent Advance.
type checkpoint struct {
	sem       *semaphore.Weighted
	horizon   int64
	newBackoff func() backoff.BackOff
}

func newCheckpoint() *checkpoint {
	return &checkpoint{
		sem: semaphore.NewWeighted(1),
		newBackoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Advance records that writes up to and including dateline are now
// durable, unblocking any WaitStable(dateline) callers.
func (c *checkpoint) Advance(ctx context.Context, dateline int64) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)
	if dateline > c.horizon {
		c.horizon = dateline
	}
	return nil
}

// WaitStable blocks until dateline is at or behind the durable horizon,
// retrying with backoff on transient contention (spec §7 "toohard...
// resurfaces as an alternative plan", applied here to "checkpoint not yet
// visible" rather than failing the read outright).
func (c *checkpoint) WaitStable(ctx context.Context, dateline int64) error {
	b := backoff.WithContext(c.newBackoff(), ctx)
	return backoff.Retry(func() error {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return backoff.Permanent(err)
		}
		stable := dateline <= c.horizon
		c.sem.Release(1)
		if stable {
			return nil
		}
		return errNotStableYet
	}, b)
}

var errNotStableYet = &notStableError{}

type notStableError struct{}

func (*notStableError) Error() string { return "store: checkpoint not yet stable" }
