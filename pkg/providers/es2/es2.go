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

// Package es2 reads the systems and gamelists of an EmulationStation
// installation.
package es2

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/spf13/afero"
)

const mediaDirName = "media"

type Provider struct {
	systemsFiles []string
}

// New creates the provider. systemsFiles are checked before the default
// locations of es_systems.cfg.
func New(systemsFiles []string) *Provider {
	return &Provider{systemsFiles: systemsFiles}
}

func NewFromConfig(cfg *config.Instance) *Provider {
	return New(cfg.ES2SystemsFiles())
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:   config.ProviderES2,
		Name: "EmulationStation",
	}
}

func (p *Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	afs := sctx.Fs()
	logger := sctx.Logger()

	path, ok := findSystemsFile(afs, systemsFileCandidates(p.systemsFiles))
	if !ok {
		return fmt.Errorf("es_systems.cfg not found: %w", providers.ErrSourceNotFound)
	}
	logger.Info().Str("path", path).Msg("found EmulationStation systems file")

	systems, err := readSystems(afs, logger, path)
	if err != nil {
		// keep whatever was read before the error
		logger.Warn().Err(err).Str("file", path).Msg("could not fully read systems file")
	}
	if len(systems) == 0 {
		progress(1)
		return nil
	}

	var blacklist map[string]struct{}
	for i := range systems {
		if err := ctx.Err(); err != nil {
			return err
		}
		sys := &systems[i]

		if sys.hasPlatform("arcade", "neogeo") && blacklist == nil {
			blacklist = readMameBlacklist(afs, logger, filepath.Join(filepath.Dir(path), "resources"))
		}
		found := findGames(sctx, sys, blacklist)
		logger.Debug().Str("system", sys.Name).Int("games", found).Msg("scanned system")

		if gamelist, ok := findGamelist(afs, sys); ok {
			if err := readGamelist(sctx, sys, gamelist); err != nil {
				logger.Warn().Err(err).Str("file", gamelist).Msg("could not fully read gamelist")
			}
		}
		progress(float64(i+1) / float64(len(systems)))
	}
	return nil
}

// findGames adds every file of the system directory and its sub directories,
// except the media directory, that has one of the system's extensions.
func findGames(sctx *search.Context, sys *system, blacklist map[string]struct{}) int {
	afs := sctx.Fs()
	logger := sctx.Logger()

	if !helpers.DirExists(afs, sys.Path) {
		logger.Warn().Str("system", sys.Name).Str("dir", sys.Path).Msg("system directory not found")
		return 0
	}
	sctx.AddGameRootDir(sys.Path)

	collID := sctx.GetOrCreateCollection(sys.collectionName())
	coll := sctx.Collection(collID)
	coll.ShortName = sys.Name
	coll.CommonLaunchCmd = rewriteCommand(sys.Command)

	exts := sys.extensions()
	useBlacklist := sys.hasPlatform("arcade", "neogeo")
	mediaDir := filepath.Join(sys.Path, mediaDirName)

	var paths []string
	err := afero.Walk(afs, sys.Path, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("could not read directory entry")
			return nil
		}
		if info.IsDir() {
			if path == mediaDir {
				return filepath.SkipDir
			}
			return nil
		}
		lower := strings.ToLower(info.Name())
		for _, ext := range exts {
			if strings.HasSuffix(lower, ext) {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn().Err(err).Str("dir", sys.Path).Msg("could not walk system directory")
	}
	sort.Strings(paths)

	found := 0
	for _, path := range paths {
		if useBlacklist {
			if _, skip := blacklist[helpers.PathWithoutExt(filepath.Base(path))]; skip {
				continue
			}
		}
		if canonical, err := helpers.CanonicalPath(afs, path); err == nil {
			path = canonical
		}

		id, exists := sctx.GameByFilepath(path)
		if !exists {
			id = sctx.CreateGameFor(collID)
			sctx.GameAddFilepath(id, path)
		}
		sctx.GameAddTo(id, collID)
		found++
	}
	return found
}
