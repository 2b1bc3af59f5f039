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
	"slices"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
)

// PendingGame is the mutable form of a game during a scan.
type PendingGame struct {
	Release          time.Time
	Assets           model.Assets
	Title            string
	SortBy           string
	Summary          string
	Description      string
	LaunchCmd        string
	LaunchWorkdir    string
	LaunchCmdBasedir string
	Developers       []string
	Publishers       []string
	Genres           []string
	Tags             []string
	files            []FileID
	collections      []CollectionID
	PlayerCount      int
	Rating           float32
	Favorite         bool
}

// Files returns the game's files in the order they were added.
func (g *PendingGame) Files() []FileID {
	return slices.Clone(g.files)
}

// Collections returns the collections the game was added to.
func (g *PendingGame) Collections() []CollectionID {
	return slices.Clone(g.collections)
}

// PendingFile is the mutable form of a game file.
type PendingFile struct {
	LastPlayed time.Time
	Path       string
	URI        string
	Name       string
	game       GameID
	PlayTime   time.Duration
	PlayCount  int
}

// Game returns the owning game.
func (f *PendingFile) Game() GameID {
	return f.game
}

func (f *PendingFile) identity() string {
	if f.Path != "" {
		return f.Path
	}
	return f.URI
}

// PendingCollection is the mutable form of a collection.
type PendingCollection struct {
	Assets                 model.Assets
	gameSet                map[GameID]struct{}
	Name                   string
	ShortName              string
	SortBy                 string
	Summary                string
	Description            string
	CommonLaunchCmd        string
	CommonLaunchWorkdir    string
	CommonLaunchCmdBasedir string
	games                  []GameID
}

// Games returns the member games in the order they were added.
func (c *PendingCollection) Games() []GameID {
	return slices.Clone(c.games)
}

func (c *PendingCollection) addGame(id GameID) bool {
	if _, ok := c.gameSet[id]; ok {
		return false
	}
	c.gameSet[id] = struct{}{}
	c.games = append(c.games, id)
	return true
}

func (c *PendingCollection) removeGame(id GameID) {
	if _, ok := c.gameSet[id]; !ok {
		return
	}
	delete(c.gameSet, id)
	c.games = slices.DeleteFunc(c.games, func(g GameID) bool { return g == id })
}
