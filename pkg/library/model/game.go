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

// Package model holds the published form of a library scan: games, their
// files and the collections they belong to. Values of these types are
// produced by a finished scan and must be treated as read-only.
package model

import (
	"path/filepath"
	"strings"
	"time"
)

// GameFile is a single launch target of a game. Exactly one of Path or URI is
// set.
type GameFile struct {
	LastPlayed time.Time     `json:"lastPlayed,omitzero" yaml:"last_played,omitempty"`
	Game       *Game         `json:"-" yaml:"-"`
	Path       string        `json:"path,omitempty" yaml:"path,omitempty"`
	URI        string        `json:"uri,omitempty" yaml:"uri,omitempty"`
	Name       string        `json:"name" yaml:"name"`
	PlayTime   time.Duration `json:"playTime,omitempty" yaml:"play_time,omitempty"`
	PlayCount  int           `json:"playCount,omitempty" yaml:"play_count,omitempty"`
}

// Identity returns the key the file was registered under.
func (f *GameFile) Identity() string {
	if f.Path != "" {
		return f.Path
	}
	return f.URI
}

// Basename returns the file name without extension, or the URI for
// non-file entries.
func (f *GameFile) Basename() string {
	if f.Path == "" {
		return f.URI
	}
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Game is a single title of the library.
type Game struct {
	Release          time.Time     `json:"release,omitzero" yaml:"release,omitempty"`
	LastPlayed       time.Time     `json:"lastPlayed,omitzero" yaml:"last_played,omitempty"`
	Assets           Assets        `json:"assets,omitempty" yaml:"assets,omitempty"`
	Title            string        `json:"title" yaml:"title"`
	SortBy           string        `json:"sortBy,omitempty" yaml:"sort_by,omitempty"`
	Summary          string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description      string        `json:"description,omitempty" yaml:"description,omitempty"`
	LaunchCmd        string        `json:"launchCmd,omitempty" yaml:"launch_cmd,omitempty"`
	LaunchWorkdir    string        `json:"launchWorkdir,omitempty" yaml:"launch_workdir,omitempty"`
	LaunchCmdBasedir string        `json:"launchCmdBasedir,omitempty" yaml:"launch_cmd_basedir,omitempty"`
	Developers       []string      `json:"developers,omitempty" yaml:"developers,omitempty"`
	Publishers       []string      `json:"publishers,omitempty" yaml:"publishers,omitempty"`
	Genres           []string      `json:"genres,omitempty" yaml:"genres,omitempty"`
	Tags             []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Files            []*GameFile   `json:"files" yaml:"files"`
	Collections      []*Collection `json:"-" yaml:"-"`
	PlayTime         time.Duration `json:"playTime,omitempty" yaml:"play_time,omitempty"`
	PlayCount        int           `json:"playCount,omitempty" yaml:"play_count,omitempty"`
	PlayerCount      int           `json:"playerCount" yaml:"player_count"`
	Rating           float32       `json:"rating,omitempty" yaml:"rating,omitempty"`
	Favorite         bool          `json:"favorite,omitempty" yaml:"favorite,omitempty"`
}

// Identity returns the identity of the first file of the game.
func (g *Game) Identity() string {
	if len(g.Files) == 0 {
		return ""
	}
	return g.Files[0].Identity()
}

// CollectionNames returns the names of the collections the game belongs to.
func (g *Game) CollectionNames() []string {
	out := make([]string, 0, len(g.Collections))
	for _, c := range g.Collections {
		out = append(out, c.Name)
	}
	return out
}

// SumPlayStats recalculates the game level play statistics from its files.
func (g *Game) SumPlayStats() {
	g.PlayCount = 0
	g.PlayTime = 0
	g.LastPlayed = time.Time{}
	for _, f := range g.Files {
		g.PlayCount += f.PlayCount
		g.PlayTime += f.PlayTime
		if f.LastPlayed.After(g.LastPlayed) {
			g.LastPlayed = f.LastPlayed
		}
	}
}
