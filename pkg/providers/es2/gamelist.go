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

package es2

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	gamelistName = "gamelist.xml"
	timeLayout   = "20060102T150405"
)

var playersRe = regexp.MustCompile(`(\d+)(?:\s*-\s*(\d+))?`)

// gamelistEntry is one <game> of gamelist.xml.
type gamelistEntry struct {
	Path        string `xml:"path"`
	Name        string `xml:"name"`
	Desc        string `xml:"desc"`
	Developer   string `xml:"developer"`
	Publisher   string `xml:"publisher"`
	Genre       string `xml:"genre"`
	Players     string `xml:"players"`
	Rating      string `xml:"rating"`
	PlayCount   string `xml:"playcount"`
	LastPlayed  string `xml:"lastplayed"`
	ReleaseDate string `xml:"releasedate"`
	Favorite    string `xml:"favorite"`
	Image       string `xml:"image"`
	Marquee     string `xml:"marquee"`
	Video       string `xml:"video"`
}

func gamelistCandidates(sys *system) []string {
	return []string{
		filepath.Join(sys.Path, gamelistName),
		filepath.Join(helpers.HomeDir(), ".emulationstation", "gamelists", sys.Name, gamelistName),
		filepath.Join("/etc", "emulationstation", "gamelists", sys.Name, gamelistName),
	}
}

// resolveEntryPath resolves "./" against the system directory and "~/"
// against the home directory.
func resolveEntryPath(path, systemDir string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "./"):
		return filepath.Join(systemDir, path[2:])
	case strings.HasPrefix(path, "~/"):
		return helpers.ExpandHome(path)
	case filepath.IsAbs(path):
		return filepath.Clean(path)
	default:
		return filepath.Join(systemDir, path)
	}
}

// readGamelist applies the metadata of every <game> entry to the game owning
// its path. Entries of unknown games are ignored.
func readGamelist(sctx *search.Context, sys *system, path string) error {
	fs := sctx.Fs()
	logger := sctx.Logger()

	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open gamelist: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", path).Msg("error closing gamelist")
		}
	}()

	dec := xml.NewDecoder(f)
	rootSeen := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to parse gamelist: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !rootSeen {
			rootSeen = true
			if start.Name.Local != "gameList" {
				return fmt.Errorf("%s does not have a <gameList> root element", path)
			}
			continue
		}
		if start.Name.Local != "game" {
			if err := dec.Skip(); err != nil {
				return fmt.Errorf("failed to parse gamelist: %w", err)
			}
			continue
		}

		var entry gamelistEntry
		if err := dec.DecodeElement(&entry, &start); err != nil {
			return fmt.Errorf("failed to parse gamelist: %w", err)
		}
		line, _ := dec.InputPos()
		if strings.TrimSpace(entry.Path) == "" {
			logger.Warn().Str("file", path).Int("line", line).Msg("<game> entry has no <path>, skipped")
			continue
		}

		gamePath := resolveEntryPath(entry.Path, sys.Path)
		if canonical, err := helpers.CanonicalPath(fs, gamePath); err == nil {
			gamePath = canonical
		}
		id, ok := sctx.GameByFilepath(gamePath)
		if !ok {
			continue
		}
		applyEntry(sctx.Game(id), &entry, sys.Path)
		applyPlayStats(sctx, id, &entry)
	}
}

func applyEntry(game *search.PendingGame, entry *gamelistEntry, systemDir string) {
	if name := strings.TrimSpace(entry.Name); name != "" {
		game.Title = name
	}
	if desc := strings.TrimSpace(entry.Desc); desc != "" {
		game.Description = desc
	}
	if v := strings.TrimSpace(entry.Developer); v != "" {
		game.Developers = append(game.Developers, v)
	}
	if v := strings.TrimSpace(entry.Publisher); v != "" {
		game.Publishers = append(game.Publishers, v)
	}
	if v := strings.TrimSpace(entry.Genre); v != "" {
		game.Genres = append(game.Genres, v)
	}

	if m := playersRe.FindStringSubmatch(entry.Players); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		game.PlayerCount = max(1, a, b)
	}
	if rating, err := strconv.ParseFloat(strings.TrimSpace(entry.Rating), 32); err == nil {
		game.Rating = float32(min(max(rating, 0), 1))
	}
	switch strings.ToLower(strings.TrimSpace(entry.Favorite)) {
	case "yes", "true", "1":
		game.Favorite = true
	}
	if t, err := time.ParseInLocation(timeLayout, strings.TrimSpace(entry.ReleaseDate), time.UTC); err == nil {
		game.Release = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	if game.Assets == nil {
		game.Assets = model.Assets{}
	}
	addAsset := func(kind model.AssetType, raw string, onlyIfEmpty bool) {
		if onlyIfEmpty && game.Assets.Single(kind) != "" {
			return
		}
		path := resolveEntryPath(raw, systemDir)
		if path == "" || !model.ExtensionAllowed(kind, helpers.LowerExt(path)) {
			return
		}
		game.Assets.Add(kind, helpers.FileURL(path))
	}
	addAsset(model.AssetBoxFront, entry.Image, true)
	addAsset(model.AssetMarquee, entry.Marquee, true)
	addAsset(model.AssetVideo, entry.Video, false)
}

// applyPlayStats copies the play statistics of a gamelist entry to the
// game's first file.
func applyPlayStats(sctx *search.Context, id search.GameID, entry *gamelistEntry) {
	game := sctx.Game(id)
	files := game.Files()
	if len(files) == 0 {
		return
	}
	file := sctx.File(files[0])
	if count, err := strconv.Atoi(strings.TrimSpace(entry.PlayCount)); err == nil && count > 0 {
		file.PlayCount = count
	}
	if t, err := time.ParseInLocation(timeLayout, strings.TrimSpace(entry.LastPlayed), time.Local); err == nil {
		file.LastPlayed = t
	}
}

func findGamelist(afs afero.Fs, sys *system) (string, bool) {
	for _, path := range gamelistCandidates(sys) {
		if helpers.FileExists(afs, path) {
			return path, true
		}
	}
	return "", false
}
