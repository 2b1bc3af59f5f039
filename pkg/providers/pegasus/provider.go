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


// Package pegasus reads Pegasus metafiles from the game directories and the
// global metafiles directory, and turns their collection filters into games.
package pegasus

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/filter"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/metafile"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/spf13/afero"
)

// metafileNames are tried in order, the first one found in a game directory
// is used.
var metafileNames = []string{
	"collections.pegasus.txt",
	"metadata.pegasus.txt",
	"collections.txt",
	"metadata.txt",
}

var globalMetafileRe = regexp.MustCompile(`^(.+\.)?metadata(\.pegasus)?\.txt$`)

type Provider struct {
	gameDirs     func() []string
	metafilesDir string
}

// New returns a provider reading the game directories returned by gameDirs
// on every scan, plus the metafiles found directly in metafilesDir.
func New(gameDirs func() []string, metafilesDir string) *Provider {
	return &Provider{
		gameDirs:     gameDirs,
		metafilesDir: metafilesDir,
	}
}

// NewFromConfig reads the game directories from cfg and the global metafiles
// from the config directory.
func NewFromConfig(cfg *config.Instance) *Provider {
	return New(cfg.GameDirs, filepath.Join(helpers.ConfigDir(), config.MetafilesDir))
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:    config.ProviderPegasusMetadata,
		Name:  "Metafiles",
		Flags: providers.FlagInternal,
	}
}

func (p *Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	fs := sctx.Fs()
	logger := sctx.Logger()

	var metafiles []string
	globals, err := findGlobalMetafiles(fs, p.metafilesDir)
	if err != nil {
		logger.Debug().Err(err).Str("dir", p.metafilesDir).Msg("no global metafiles")
	}
	metafiles = append(metafiles, globals...)

	for _, dir := range p.resolveGameDirs(sctx) {
		path, ok := findMetafileIn(fs, dir)
		if !ok {
			logger.Warn().Str("dir", dir).Msg("no metadata file found, directory ignored")
			continue
		}
		logger.Info().Str("file", path).Msg("found metafile")
		sctx.AddGameRootDir(dir)
		metafiles = append(metafiles, path)
	}

	if len(metafiles) == 0 {
		return fmt.Errorf("no metafiles in %d game directories: %w",
			len(p.gameDirs()), providers.ErrSourceNotFound)
	}

	// reading and filtering get half of the bar each
	var filters []*filter.Filter
	for i, path := range metafiles {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reading metafiles: %w", err)
		}
		readMetafile(sctx, path, &filters)
		progress(float64(i+1) / float64(len(metafiles)) / 2)
	}

	for i, f := range filters {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("applying filters: %w", err)
		}
		f.Tidy()
		processFilter(sctx, f)
		for _, dir := range f.Directories {
			sctx.AddGameRootDir(dir)
		}
		progress(0.5 + float64(i+1)/float64(len(filters))/2)
	}
	return nil
}

func (p *Provider) resolveGameDirs(sctx *search.Context) []string {
	fs := sctx.Fs()
	var dirs []string
	for _, dir := range p.gameDirs() {
		canonical, err := helpers.CanonicalPath(fs, helpers.ExpandHome(dir))
		if err != nil || !helpers.DirExists(fs, canonical) {
			sctx.Logger().Warn().Str("dir", dir).Msg("game directory not found, ignored")
			continue
		}
		if !slices.Contains(dirs, canonical) {
			dirs = append(dirs, canonical)
		}
	}
	return dirs
}

func findMetafileIn(fs afero.Fs, dir string) (string, bool) {
	for _, name := range metafileNames {
		path := filepath.Join(dir, name)
		if helpers.FileExists(fs, path) {
			return path, true
		}
	}
	return "", false
}

func findGlobalMetafiles(fs afero.Fs, dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read metafiles directory: %w", err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !globalMetafileRe.MatchString(entry.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	return out, nil
}

func readMetafile(sctx *search.Context, path string, filters *[]*filter.Filter) {
	p := newParser(sctx, path, filters)
	err := metafile.ReadFile(sctx.Fs(), path, p.onEntry, p.onError)
	if err != nil {
		sctx.Logger().Warn().Err(err).Str("file", path).Msg("failed to read metadata file, file ignored")
	}
}

// processFilter adds every file the filter accepts to the filter's
// collection. Files already owned by a game, for example through a `file:`
// entry, only gain the collection.
func processFilter(sctx *search.Context, f *filter.Filter) {
	coll := sctx.GetOrCreateCollection(f.Collection)
	err := f.Scan(sctx.Fs(), func(path string) {
		if game, ok := sctx.GameByFilepath(path); ok {
			sctx.GameAddTo(game, coll)
			return
		}
		game := sctx.CreateGameFor(coll)
		sctx.GameAddFilepath(game, path)
	})
	if err != nil {
		sctx.Logger().Warn().Err(err).Str("collection", f.Collection).Msg("failed to scan collection directories")
	}
}
