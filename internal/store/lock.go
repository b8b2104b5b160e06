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
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyWriting is returned by Open(writer=true) when another process
// already holds the writer lock (spec §5 "single-writer").
var ErrAlreadyWriting = fmt.Errorf("store: another process already holds the writer lock")

// writerLock enforces spec §5's single-writer invariant across process
// restarts: a writer session takes an exclusive advisory lock on
// <dir>/WRITELOCK; any number of read-only sessions instead take a shared
// lock, so they never contend with each other, only with a writer.
type writerLock struct {
	fl     *flock.Flock
	writer bool
}

func acquireLock(dir string, writer bool) (*writerLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	fl := flock.New(filepath.Join(dir, "WRITELOCK"))

	var ok bool
	var err error
	if writer {
		ok, err = fl.TryLock()
	} else {
		ok, err = fl.TryRLock()
	}
	if err != nil {
		return nil, fmt.Errorf("store: acquire lock: %w", err)
	}
	if !ok {
		if writer {
			return nil, ErrAlreadyWriting
		}
		return nil, fmt.Errorf("store: acquire read lock: held exclusively")
	}
	return &writerLock{fl: fl, writer: writer}, nil
}

// Release drops the lock. Safe to call on a nil receiver.
func (l *writerLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
