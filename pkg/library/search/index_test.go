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
	"testing"

	"github.com/spf13/afero"
	"pgregory.net/rapid"
)

func TestIdentityUniqueness(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		sctx := New(Options{Fs: afero.NewMemMapFs()})
		defer sctx.CloseDownloads()

		coll := sctx.GetOrCreateCollection("C")
		games := []GameID{sctx.CreateGameFor(coll)}
		identities := []string{"/g/a.rom", "/g/b.rom", "/g/c.rom", "steam:1", "steam:2"}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for range steps {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				games = append(games, sctx.CreateGameFor(coll))
			case 1:
				g := rapid.SampledFrom(games).Draw(t, "game")
				sctx.GameAddFilepath(g, rapid.SampledFrom(identities[:3]).Draw(t, "path"))
			case 2:
				g := rapid.SampledFrom(games).Draw(t, "game")
				sctx.GameAddURI(g, rapid.SampledFrom(identities[3:]).Draw(t, "uri"))
			}
		}

		owners := make(map[string]GameID)
		for id, f := range sctx.Files() {
			key := f.identity()
			if prev, ok := owners[key]; ok {
				t.Fatalf("identity %s registered twice (games %v and %v)", key, prev, f.Game())
			}
			owners[key] = f.Game()

			found, ok := sctx.FileByIdentity(key)
			if !ok || found != id {
				t.Fatalf("identity %s does not resolve to its file", key)
			}
		}
		for _, g := range games {
			seen := make(map[FileID]struct{})
			for _, fid := range sctx.Game(g).Files() {
				if _, dup := seen[fid]; dup {
					t.Fatalf("game %v holds file %v twice", g, fid)
				}
				seen[fid] = struct{}{}
				if sctx.File(fid).Game() != g {
					t.Fatalf("file %v does not point back to its game", fid)
				}
			}
		}
	})
}
