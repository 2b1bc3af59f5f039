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

// Package logiqx reads Logiqx XML DAT files found in the game directories.
// Each DAT becomes a collection and each of its game entries a game.
package logiqx

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// SystemID is the DTD every accepted DAT file declares.
const SystemID = "http://www.logiqx.com/Dats/datafile.dtd"

const datGlob = "*.{dat,xml,DAT,XML}"

var doctypeRe = regexp.MustCompile(`^DOCTYPE\s+(\S+)\s+(?:PUBLIC\s+"[^"]*"|SYSTEM)\s+"([^"]*)"`)

// errNotLogiqx marks files that are not Logiqx DATs. They are skipped
// quietly.
var errNotLogiqx = errors.New("not a logiqx dat file")

type datHeader struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type datRom struct {
	Name string `xml:"name,attr"`
}

type datGame struct {
	Name         string   `xml:"name,attr"`
	Year         string   `xml:"year"`
	Description  string   `xml:"description"`
	Manufacturer string   `xml:"manufacturer"`
	Roms         []datRom `xml:"rom"`
}

type Provider struct {
	dirs func() []string
}

func New(dirs func() []string) *Provider {
	return &Provider{dirs: dirs}
}

func NewFromConfig(cfg *config.Instance) *Provider {
	return New(func() []string {
		return append(cfg.GameDirs(), cfg.LogiqxDirs()...)
	})
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:   config.ProviderLogiqx,
		Name: "Logiqx",
	}
}

func (p *Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	afs := sctx.Fs()
	logger := sctx.Logger()

	var files []string
	seen := make(map[string]struct{})
	for _, dir := range p.dirs() {
		dir = filepath.Clean(helpers.ExpandHome(dir))
		if _, dup := seen[dir]; dup || !helpers.DirExists(afs, dir) {
			continue
		}
		seen[dir] = struct{}{}
		found, err := findDatFiles(afs, dir)
		if err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("could not list DAT files")
			continue
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		progress(1)
		return nil
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := readDatFile(sctx, path)
		switch {
		case errors.Is(err, errNotLogiqx):
			logger.Info().Err(err).Str("file", path).Msg("not a Logiqx DAT file, ignored")
		case err != nil:
			logger.Warn().Err(err).Str("file", path).Msg("could not fully read DAT file")
		}
		progress(float64(i+1) / float64(len(files)))
	}
	return nil
}

// findDatFiles returns the DAT and XML files directly inside dir.
func findDatFiles(afs afero.Fs, dir string) ([]string, error) {
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(afs, dir)), datGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to glob DAT files: %w", err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(dir, filepath.FromSlash(m))
		if helpers.FileExists(afs, path) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

// readIntro consumes the prolog and returns once the datafile root element
// was read.
func readIntro(dec *xml.Decoder) error {
	sawDoctype := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %w", errNotLogiqx, err)
		}
		switch t := tok.(type) {
		case xml.ProcInst, xml.Comment, xml.CharData:
			continue
		case xml.Directive:
			m := doctypeRe.FindStringSubmatch(strings.TrimSpace(string(t)))
			if m == nil || m[2] != SystemID {
				return fmt.Errorf("%w: unexpected DOCTYPE", errNotLogiqx)
			}
			sawDoctype = true
		case xml.StartElement:
			if !sawDoctype {
				return fmt.Errorf("%w: no DOCTYPE declaration", errNotLogiqx)
			}
			if t.Name.Local != "datafile" {
				return fmt.Errorf("declared as Logiqx DAT but the root element is <%s>", t.Name.Local)
			}
			return nil
		default:
			return fmt.Errorf("%w: unexpected content before the root element", errNotLogiqx)
		}
	}
}

func readDatFile(sctx *search.Context, path string) error {
	afs := sctx.Fs()
	logger := sctx.Logger()

	f, err := afs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open DAT file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", path).Msg("error closing DAT file")
		}
	}()

	dec := xml.NewDecoder(f)
	if err := readIntro(dec); err != nil {
		return err
	}

	var coll search.CollectionID
	haveHeader := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to parse DAT file: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		line, _ := dec.InputPos()

		switch {
		case !haveHeader:
			if start.Name.Local != "header" {
				return errors.New("DAT file does not start with a <header> element")
			}
			var header datHeader
			if err := dec.DecodeElement(&header, &start); err != nil {
				return fmt.Errorf("failed to parse DAT header: %w", err)
			}
			name := strings.TrimSpace(header.Name)
			if name == "" {
				return errors.New("DAT header has no <name>")
			}
			coll = sctx.GetOrCreateCollection(name)
			if desc := strings.TrimSpace(header.Description); desc != "" {
				sctx.Collection(coll).Description = desc
			}
			haveHeader = true
		case start.Name.Local == "game" || start.Name.Local == "machine":
			var game datGame
			if err := dec.DecodeElement(&game, &start); err != nil {
				return fmt.Errorf("failed to parse DAT game: %w", err)
			}
			addGame(sctx, logger.With().Str("file", path).Int("line", line).Logger(), coll, filepath.Dir(path), &game)
		default:
			if err := dec.Skip(); err != nil {
				return fmt.Errorf("failed to parse DAT file: %w", err)
			}
		}
	}
}

func addGame(sctx *search.Context, logger zerolog.Logger, coll search.CollectionID, dir string, entry *datGame) {
	name := strings.TrimSpace(entry.Name)
	if name == "" {
		logger.Warn().Msg("<game> element has an empty or missing name, skipped")
		return
	}

	id := sctx.CreateGameFor(coll)
	game := sctx.Game(id)
	game.Title = name

	if year := strings.TrimSpace(entry.Year); year != "" {
		if y, err := strconv.Atoi(year); err == nil && y > 0 {
			game.Release = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		} else {
			logger.Warn().Str("year", year).Msg("invalid <year>, ignored")
		}
	}
	if desc := strings.TrimSpace(entry.Description); desc != "" {
		game.Description = desc
	}
	if m := strings.TrimSpace(entry.Manufacturer); m != "" {
		game.Developers = append(game.Developers, m)
	}

	afs := sctx.Fs()
	added := make(map[string]struct{})
	for _, rom := range entry.Roms {
		rel := strings.TrimSpace(rom.Name)
		if rel == "" {
			logger.Warn().Str("game", name).Msg("<rom> element has an empty or missing name, ignored")
			continue
		}
		path, err := helpers.CanonicalPath(afs, helpers.ResolveRelative(dir, rel))
		if err != nil || !helpers.FileExists(afs, path) {
			logger.Warn().Str("game", name).Str("rom", rel).Msg("rom file does not exist, ignored")
			continue
		}
		if _, dup := added[path]; dup {
			logger.Warn().Str("game", name).Str("rom", rel).Msg("duplicate rom entry, ignored")
			continue
		}
		added[path] = struct{}{}
		sctx.GameAddFilepath(id, path)
	}
}
