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
	"fmt"

	"github.com/rs/zerolog"
)

type identityKind string

const (
	kindPath identityKind = "path"
	kindURI  identityKind = "uri"
)

// identityIndex guarantees at most one game per path and per URI. Bindings
// are never removed or rebound during a scan.
type identityIndex struct {
	byPath map[string]FileID
	byURI  map[string]FileID
	log    zerolog.Logger
	strict bool
}

func newIdentityIndex(logger zerolog.Logger, strict bool) *identityIndex {
	return &identityIndex{
		log:    logger,
		byPath: make(map[string]FileID),
		byURI:  make(map[string]FileID),
		strict: strict,
	}
}

func (ix *identityIndex) table(kind identityKind) map[string]FileID {
	if kind == kindPath {
		return ix.byPath
	}
	return ix.byURI
}

func (ix *identityIndex) lookup(kind identityKind, key string) (FileID, bool) {
	id, ok := ix.table(kind)[key]
	return id, ok
}

func (ix *identityIndex) register(kind identityKind, key string, id FileID) {
	ix.table(kind)[key] = id
}

// conflict reports an attempt to bind an identity owned by another game.
func (ix *identityIndex) conflict(kind identityKind, key, owner, requester string) {
	if ix.strict {
		panic(fmt.Sprintf("%s %q already belongs to game %q, cannot add it to %q", kind, key, owner, requester))
	}
	ix.log.Warn().
		Str(string(kind), key).
		Str("owner", owner).
		Str("game", requester).
		Msg("identity already belongs to another game, ignored")
}
