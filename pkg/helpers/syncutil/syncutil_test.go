// Zaparoo Library
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Library.
//
// Zaparoo Library is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Library.  If not, see <http://www.gnu.org/licenses/>.


package syncutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestMutexes(t *testing.T) {
	t.Parallel()

	var (
		mu    Mutex
		rw    RWMutex
		count int
		seen  []int
	)
	var g errgroup.Group
	for range 50 {
		g.Go(func() error {
			mu.Lock()
			defer mu.Unlock()
			count++
			return nil
		})
		g.Go(func() error {
			rw.Lock()
			defer rw.Unlock()
			seen = append(seen, len(seen))
			return nil
		})
		g.Go(func() error {
			rw.RLock()
			defer rw.RUnlock()
			_ = len(seen)
			return nil
		})
	}
	assert.NoError(t, g.Wait())
	assert.Equal(t, 50, count)
	assert.Len(t, seen, 50)
}
