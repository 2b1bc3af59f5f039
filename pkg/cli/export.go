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

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// exportCollection is the serialized form of a collection. Member games are
// referenced by their index in the games list.
type exportCollection struct {
	model.Collection `yaml:",inline"`
	Games            []int `json:"games" yaml:"games"`
}

type exportGame struct {
	model.Game  `yaml:",inline"`
	Collections []string `json:"collections" yaml:"collections"`
}

type exportResult struct {
	Collections []exportCollection `json:"collections" yaml:"collections"`
	Games       []exportGame       `json:"games" yaml:"games"`
}

func toExport(res search.Result) exportResult {
	index := make(map[*model.Game]int, len(res.Games))
	out := exportResult{
		Collections: make([]exportCollection, 0, len(res.Collections)),
		Games:       make([]exportGame, 0, len(res.Games)),
	}
	for i, g := range res.Games {
		index[g] = i
		out.Games = append(out.Games, exportGame{Game: *g, Collections: g.CollectionNames()})
	}
	for _, c := range res.Collections {
		ec := exportCollection{Collection: *c, Games: make([]int, 0, len(c.Games))}
		for _, g := range c.Games {
			if i, ok := index[g]; ok {
				ec.Games = append(ec.Games, i)
			}
		}
		out.Collections = append(out.Collections, ec)
	}
	return out
}

// csvGame is one row of the CSV export.
type csvGame struct {
	Title       string  `csv:"title"`
	Collections string  `csv:"collections"`
	Files       string  `csv:"files"`
	Developers  string  `csv:"developers"`
	Publishers  string  `csv:"publishers"`
	Genres      string  `csv:"genres"`
	Release     string  `csv:"release"`
	LastPlayed  string  `csv:"last_played"`
	PlayTime    string  `csv:"play_time"`
	LaunchCmd   string  `csv:"launch_cmd"`
	Rating      float32 `csv:"rating"`
	PlayerCount int     `csv:"player_count"`
	PlayCount   int     `csv:"play_count"`
	Favorite    bool    `csv:"favorite"`
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func toCSVRows(res search.Result) []*csvGame {
	rows := make([]*csvGame, 0, len(res.Games))
	for _, g := range res.Games {
		files := make([]string, 0, len(g.Files))
		for _, f := range g.Files {
			files = append(files, f.Identity())
		}
		rows = append(rows, &csvGame{
			Title:       g.Title,
			Collections: strings.Join(g.CollectionNames(), "; "),
			Files:       strings.Join(files, "; "),
			Developers:  strings.Join(g.Developers, "; "),
			Publishers:  strings.Join(g.Publishers, "; "),
			Genres:      strings.Join(g.Genres, "; "),
			Release:     formatTime(g.Release, time.DateOnly),
			LastPlayed:  formatTime(g.LastPlayed, time.RFC3339),
			PlayTime:    g.PlayTime.String(),
			LaunchCmd:   g.LaunchCmd,
			Rating:      g.Rating,
			PlayerCount: g.PlayerCount,
			PlayCount:   g.PlayCount,
			Favorite:    g.Favorite,
		})
	}
	return rows
}

// WriteSummary prints the collection and game counts of the result.
func WriteSummary(w io.Writer, res search.Result) error {
	if _, err := fmt.Fprintf(w, "%d games in %d collections\n", len(res.Games), len(res.Collections)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	colls := append([]*model.Collection(nil), res.Collections...)
	sort.SliceStable(colls, func(i, j int) bool {
		return len(colls[i].Games) > len(colls[j].Games)
	})
	for _, c := range colls {
		if _, err := fmt.Fprintf(w, "  %-40s %6d\n", c.Name, len(c.Games)); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

// WriteResult writes the result in the given format.
func WriteResult(w io.Writer, format string, res search.Result) error {
	switch format {
	case FormatSummary:
		return WriteSummary(w, res)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(toExport(res)); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toExport(res)); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
	case FormatCSV:
		if err := gocsv.Marshal(toCSVRows(res), w); err != nil {
			return fmt.Errorf("failed to encode csv: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}
