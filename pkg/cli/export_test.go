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
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() search.Result {
	nes := &model.Collection{Name: "NES", ShortName: "nes"}
	snes := &model.Collection{Name: "SNES"}
	mario := &model.Game{
		Title:       "Super Mario Bros.",
		Developers:  []string{"Nintendo"},
		Release:     time.Date(1985, 9, 13, 0, 0, 0, 0, time.UTC),
		PlayerCount: 2,
		Rating:      0.9,
		Favorite:    true,
		LaunchCmd:   "fceux {file.path}",
		Collections: []*model.Collection{nes},
	}
	mario.Files = []*model.GameFile{{Game: mario, Path: "/games/nes/mario.nes", Name: "mario"}}
	zelda := &model.Game{
		Title:       "Zelda",
		PlayerCount: 1,
		Collections: []*model.Collection{nes, snes},
	}
	zelda.Files = []*model.GameFile{{Game: zelda, URI: "steam:1", Name: "steam:1", PlayCount: 3}}
	zelda.PlayCount = 3
	nes.Games = []*model.Game{mario, zelda}
	snes.Games = []*model.Game{zelda}
	return search.Result{
		Collections: []*model.Collection{nes, snes},
		Games:       []*model.Game{mario, zelda},
	}
}

func TestWriteResult_Summary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, FormatSummary, sampleResult()))
	out := buf.String()
	assert.Contains(t, out, "2 games in 2 collections")
	assert.Regexp(t, `NES\s+2`, out)
	assert.Regexp(t, `SNES\s+1`, out)
}

func TestWriteResult_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, FormatJSON, sampleResult()))

	var got struct {
		Collections []struct {
			Name  string `json:"name"`
			Games []int  `json:"games"`
		} `json:"collections"`
		Games []struct {
			Title       string   `json:"title"`
			Collections []string `json:"collections"`
			Files       []struct {
				Path string `json:"path"`
				URI  string `json:"uri"`
			} `json:"files"`
		} `json:"games"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Collections, 2)
	assert.Equal(t, []int{0, 1}, got.Collections[0].Games)
	assert.Equal(t, []int{1}, got.Collections[1].Games)
	require.Len(t, got.Games, 2)
	assert.Equal(t, []string{"NES", "SNES"}, got.Games[1].Collections)
	assert.Equal(t, "/games/nes/mario.nes", got.Games[0].Files[0].Path)
	assert.Equal(t, "steam:1", got.Games[1].Files[0].URI)
}

func TestWriteResult_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, FormatYAML, sampleResult()))

	var got map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got["games"], 2)
	assert.Equal(t, "Super Mario Bros.", got["games"][0]["title"])
	assert.Equal(t, "fceux {file.path}", got["games"][0]["launch_cmd"])
	assert.Equal(t, "nes", got["collections"][0]["short_name"])
}

func TestWriteResult_CSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, FormatCSV, sampleResult()))

	var rows []*csvGame
	require.NoError(t, gocsv.UnmarshalBytes(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Super Mario Bros.", rows[0].Title)
	assert.Equal(t, "1985-09-13", rows[0].Release)
	assert.Equal(t, "Nintendo", rows[0].Developers)
	assert.True(t, rows[0].Favorite)
	assert.Equal(t, 2, rows[0].PlayerCount)
	assert.Equal(t, "NES; SNES", rows[1].Collections)
	assert.Equal(t, 3, rows[1].PlayCount)
	assert.Empty(t, rows[1].Release)
}

func TestWriteResult_UnknownFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.Error(t, WriteResult(&buf, "xml", sampleResult()))
}
