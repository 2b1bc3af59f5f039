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


// Package gog adds the games installed with the GOG Linux installers and
// enriches them with product data from the GOG API.
package gog

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/jsoncache"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	CollectionName = "GOG"
	cacheDir       = "gog"
	launcherName   = "start.sh"
	gameinfoName   = "gameinfo"
	// gameinfo holds the title on its first line and the product ID on its
	// fourth.
	gameinfoLines = 4
	maxLineLength = 256
)

var reNumeric = regexp.MustCompile(`^\d+$`)

type Options struct {
	// Cache stores product responses. Nil disables caching.
	Cache *jsoncache.Cache
	// Dirs replace the default "~/GOG Games" install root.
	Dirs             []string
	DownloadMetadata bool
}

type Provider struct {
	cache    *jsoncache.Cache
	dirs     []string
	download bool
}

func New(opts Options) *Provider {
	return &Provider{
		cache:    opts.Cache,
		dirs:     opts.Dirs,
		download: opts.DownloadMetadata,
	}
}

func NewFromConfig(cfg *config.Instance) *Provider {
	return New(Options{
		Cache:            jsoncache.New(afero.NewOsFs(), helpers.CacheDir()),
		Dirs:             cfg.GOGDirs(),
		DownloadMetadata: cfg.GOGDownloadMetadata(),
	})
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:   config.ProviderGOG,
		Name: "GOG",
	}
}

type entry struct {
	id       string
	name     string
	launcher string
	workdir  string
}

func (p *Provider) installRoots() []string {
	if len(p.dirs) == 0 {
		return []string{filepath.Join(helpers.HomeDir(), "GOG Games")}
	}
	out := make([]string, 0, len(p.dirs))
	for _, dir := range p.dirs {
		out = append(out, helpers.ExpandHome(dir))
	}
	return out
}

func (p *Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	afs := sctx.Fs()
	logger := sctx.Logger()

	var entries []entry
	rootFound := false
	for _, root := range p.installRoots() {
		if !helpers.DirExists(afs, root) {
			continue
		}
		rootFound = true
		found, err := findEntries(afs, logger, root)
		if err != nil {
			logger.Warn().Err(err).Str("dir", root).Msg("could not list gog games")
			continue
		}
		entries = append(entries, found...)
	}
	if !rootFound {
		return fmt.Errorf("no gog games directory: %w", providers.ErrSourceNotFound)
	}
	logger.Info().Int("count", len(entries)).Msg("gog games found")
	if len(entries) == 0 {
		progress(1)
		return nil
	}

	coll := sctx.GetOrCreateCollection(CollectionName)
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scanning gog games: %w", err)
		}
		progress(float64(i) / float64(len(entries)))

		id, exists := sctx.GameByFilepath(e.launcher)
		if exists {
			sctx.GameAddTo(id, coll)
		} else {
			id = sctx.CreateGameFor(coll)
			if _, ok := sctx.GameAddFilepath(id, e.launcher); !ok {
				continue
			}
			game := sctx.Game(id)
			game.Title = e.name
			game.LaunchCmd = `"` + e.launcher + `"`
			game.LaunchWorkdir = e.workdir
		}

		if e.id != "" {
			p.loadMetadata(sctx, id, e.id)
		}
	}
	progress(1)
	return nil
}

// findEntries returns the game directories of root that hold an executable
// start.sh launcher.
func findEntries(afs afero.Fs, logger *zerolog.Logger, root string) ([]entry, error) {
	dirs, err := afero.ReadDir(afs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var out []entry
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		gameDir := filepath.Join(root, d.Name())
		launcher := filepath.Join(gameDir, launcherName)
		info, err := afs.Stat(launcher)
		if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
			continue
		}
		canonical, err := helpers.CanonicalPath(afs, launcher)
		if err != nil {
			logger.Warn().Err(err).Str("file", launcher).Msg("could not resolve gog launcher")
			continue
		}

		e := entry{name: d.Name(), launcher: canonical, workdir: gameDir}
		readGameinfo(afs, filepath.Join(gameDir, gameinfoName), &e)
		out = append(out, e)
	}
	return out, nil
}

func readGameinfo(afs afero.Fs, path string, e *entry) {
	f, err := afs.Open(path)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for lineno := 0; lineno < gameinfoLines && scanner.Scan(); lineno++ {
		line := scanner.Text()
		if len(line) > maxLineLength {
			line = line[:maxLineLength]
		}
		switch lineno {
		case 0:
			if line != "" {
				e.name = line
			}
		case 3:
			if reNumeric.MatchString(line) {
				e.id = line
			}
		}
	}
}

// loadMetadata applies the cached product entry, or schedules a download
// when there is none.
func (p *Provider) loadMetadata(sctx *search.Context, id search.GameID, productID string) {
	logger := sctx.Logger()

	if p.cache != nil {
		if body, ok := p.cache.Read(cacheDir, productID); ok {
			data, err := parseProduct(body)
			if err == nil {
				applyProduct(sctx.Game(id), data)
				return
			}
			logger.Warn().Err(err).Str("product", productID).Msg("cached product entry is corrupt, deleting")
			p.cache.Delete(cacheDir, productID)
		}
	}
	if !p.download {
		return
	}

	sctx.ScheduleDownload(fmt.Sprintf(productURL, productID), func(body []byte, err error) {
		game := sctx.Game(id)
		if game == nil {
			return
		}
		if err != nil {
			logger.Warn().Err(err).Str("game", game.Title).Msg("failed to download gog product data")
			return
		}
		data, err := parseProduct(body)
		if err != nil {
			logger.Warn().Err(err).Str("game", game.Title).
				Msg("failed to parse gog product data, perhaps the GOG API changed?")
			return
		}
		applyProduct(game, data)
		if p.cache != nil {
			if err := p.cache.Write(cacheDir, productID, body); err != nil {
				logger.Warn().Err(err).Str("product", productID).Msg("failed to cache gog product data")
			}
		}
	})
}
