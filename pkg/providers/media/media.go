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


// Package media attaches the files found in the media folders of the game
// root directories to the games they are named after.
package media

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"
)

const mediaDirName = "media"

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:    config.ProviderPegasusMedia,
		Name:  "Media",
		Flags: providers.FlagInternal,
	}
}

// lookupKey normalizes keys so decomposed file names written by macOS match
// titles typed in metafiles.
func lookupKey(path string) string {
	return norm.NFC.String(filepath.Clean(path))
}

// buildLookup maps `<dir>/<file basename>` and `<dir>/<game title>` of every
// game file to its game. The first game claiming a key keeps it.
func buildLookup(sctx *search.Context) map[string]search.GameID {
	out := make(map[string]search.GameID)
	add := func(key string, id search.GameID) {
		key = lookupKey(key)
		if _, ok := out[key]; !ok {
			out[key] = id
		}
	}
	for _, file := range sctx.Files() {
		if file.Path == "" {
			continue
		}
		game := sctx.Game(file.Game())
		if game == nil {
			continue
		}
		dir := filepath.Dir(file.Path)
		add(helpers.PathWithoutExt(file.Path), file.Game())
		if game.Title != "" {
			add(filepath.Join(dir, game.Title), file.Game())
		}
	}
	return out
}

func (*Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	roots := sctx.GameRootDirs()
	if len(roots) == 0 {
		return fmt.Errorf("no game root directories: %w", providers.ErrSourceNotFound)
	}

	lookup := buildLookup(sctx)
	afs := sctx.Fs()
	found := 0
	for i, root := range roots {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scanning media: %w", err)
		}
		n, err := scanRoot(afs, sctx, root, lookup)
		if err != nil {
			sctx.Logger().Warn().Err(err).Str("dir", root).Msg("failed to scan media directory")
		}
		found += n
		progress(float64(i+1) / float64(len(roots)))
	}

	sctx.Logger().Debug().Int("assets", found).Msg("media scan done")
	return nil
}

func scanRoot(afs afero.Fs, sctx *search.Context, root string, lookup map[string]search.GameID) (int, error) {
	mediaDir := filepath.Join(root, mediaDirName)
	if !helpers.DirExists(afs, mediaDir) {
		return 0, nil
	}

	found := 0
	err := afero.Walk(afs, mediaDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(mediaDir, filepath.Dir(path))
		if err != nil {
			return nil //nolint:nilerr // unrelated paths are skipped
		}
		id, ok := lookup[lookupKey(filepath.Join(root, rel))]
		if !ok {
			return nil
		}

		base := info.Name()
		ext := filepath.Ext(base)
		assetType := model.AssetTypeFromName(strings.TrimSuffix(base, ext))
		if assetType == model.AssetUnknown || !model.ExtensionAllowed(assetType, ext) {
			return nil
		}

		game := sctx.Game(id)
		if game == nil {
			return nil
		}
		if game.Assets == nil {
			game.Assets = model.Assets{}
		}
		game.Assets.Add(assetType, helpers.FileURL(path))
		found++
		return nil
	})
	if err != nil {
		return found, fmt.Errorf("failed to walk media directory: %w", err)
	}
	return found, nil
}
