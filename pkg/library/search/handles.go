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

package search

import (
	"iter"
	"sync/atomic"
)

var contextIDs atomic.Uint32

// handle addresses a slot of an arena. The zero handle is never valid.
type handle struct {
	ctx uint32
	idx uint32
	gen uint32
}

// GameID refers to a pending game of one Context.
type GameID handle

// CollectionID refers to a pending collection of one Context.
type CollectionID handle

// FileID refers to a pending game file of one Context.
type FileID handle

func (id GameID) IsZero() bool       { return id.gen == 0 }
func (id CollectionID) IsZero() bool { return id.gen == 0 }
func (id FileID) IsZero() bool       { return id.gen == 0 }

type slot[T any] struct {
	val *T
	gen uint32
}

// arena owns records of one kind. Freed slots are not reused, but bumping
// the generation makes every outstanding handle to them resolve to nil.
type arena[T any] struct {
	slots []slot[T]
	ctx   uint32
	live  int
}

func (a *arena[T]) alloc(v *T) handle {
	a.slots = append(a.slots, slot[T]{val: v, gen: 1})
	a.live++
	return handle{ctx: a.ctx, idx: uint32(len(a.slots) - 1), gen: 1} //nolint:gosec // slot count fits
}

func (a *arena[T]) get(h handle) *T {
	if h.gen == 0 || h.ctx != a.ctx || int(h.idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.idx]
	if s.gen != h.gen {
		return nil
	}
	return s.val
}

func (a *arena[T]) free(h handle) {
	if a.get(h) == nil {
		return
	}
	s := &a.slots[h.idx]
	s.val = nil
	s.gen++
	a.live--
}

// all visits live records in allocation order.
func (a *arena[T]) all() iter.Seq2[handle, *T] {
	return func(yield func(handle, *T) bool) {
		for i := range a.slots {
			s := &a.slots[i]
			if s.val == nil {
				continue
			}
			h := handle{ctx: a.ctx, idx: uint32(i), gen: s.gen} //nolint:gosec // slot count fits
			if !yield(h, s.val) {
				return
			}
		}
	}
}
