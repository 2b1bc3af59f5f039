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


// Package skraper attaches the artwork downloaded by Skraper to the games
// found by the other providers.
package skraper

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"
)

type assetDir struct {
	name      string
	assetType model.AssetType
}

// assetDirs is ordered by priority, the first file found for a type becomes
// its primary asset.
var assetDirs = []assetDir{
	{name: "screenmarquee", assetType: model.AssetMarquee},
	{name: "screenmarqueesmall", assetType: model.AssetMarquee},
	{name: "fanart", assetType: model.AssetBackground},
	{name: "box2dback", assetType: model.AssetBoxBack},
	{name: "box2dfront", assetType: model.AssetBoxFront},
	{name: "supporttexture", assetType: model.AssetBoxFront},
	{name: "boxtexture", assetType: model.AssetBoxFull},
	{name: "box2dside", assetType: model.AssetBoxSpine},
	{name: "support", assetType: model.AssetCartridge},
	{name: "wheel", assetType: model.AssetLogo},
	{name: "wheelcarbon", assetType: model.AssetLogo},
	{name: "wheelsteel", assetType: model.AssetLogo},
	{name: "screenshot", assetType: model.AssetScreenshot},
	{name: "screenshottitle", assetType: model.AssetScreenshot},
	{name: "steamgrid", assetType: model.AssetSteamGrid},
	{name: "videos", assetType: model.AssetVideo},
}

var mediaDirs = []string{"skraper", "media"}

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:   config.ProviderSkraper,
		Name: "Skraper",
	}
}

func lookupKey(path string) string {
	return norm.NFC.String(filepath.Clean(path))
}

// buildLookup maps every game file path, without its extension, to its game.
func buildLookup(sctx *search.Context) map[string]search.GameID {
	out := make(map[string]search.GameID)
	for _, file := range sctx.Files() {
		if file.Path == "" {
			continue
		}
		key := lookupKey(helpers.PathWithoutExt(file.Path))
		if _, ok := out[key]; !ok {
			out[key] = file.Game()
		}
	}
	return out
}

func (*Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	roots := sctx.GameRootDirs()
	if len(roots) == 0 {
		return fmt.Errorf("no game root directories: %w", providers.ErrSourceNotFound)
	}

	logger := sctx.Logger()
	logger.Info().Msg("looking for skraper assets")

	lookup := buildLookup(sctx)
	afs := sctx.Fs()
	found := 0
	for i, root := range roots {
		for _, media := range mediaDirs {
			mediaDir := filepath.Join(root, media)
			if !helpers.DirExists(afs, mediaDir) {
				continue
			}
			for _, dir := range assetDirs {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("scanning skraper assets: %w", err)
				}
				n, err := scanAssetDir(afs, sctx, root, filepath.Join(mediaDir, dir.name), dir.assetType, lookup)
				if err != nil {
					logger.Warn().Err(err).Str("dir", mediaDir).Msg("failed to scan skraper directory")
				}
				found += n
			}
		}
		progress(float64(i+1) / float64(len(roots)))
	}

	logger.Info().Int("assets", found).Msg("skraper assets found")
	return nil
}

// scanAssetDir matches `<search dir>/<sub path>/<name>.<ext>` to the game at
// `<root>/<sub path>/<name>.*`.
func scanAssetDir(
	afs afero.Fs,
	sctx *search.Context,
	root, searchDir string,
	assetType model.AssetType,
	lookup map[string]search.GameID,
) (int, error) {
	if !helpers.DirExists(afs, searchDir) {
		return 0, nil
	}

	found := 0
	err := afero.Walk(afs, searchDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !model.ExtensionAllowed(assetType, filepath.Ext(path)) {
			return nil
		}

		rel, err := filepath.Rel(searchDir, path)
		if err != nil {
			return nil //nolint:nilerr // unrelated paths are skipped
		}
		id, ok := lookup[lookupKey(filepath.Join(root, helpers.PathWithoutExt(rel)))]
		if !ok {
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
		return found, fmt.Errorf("failed to walk %s: %w", searchDir, err)
	}
	return found, nil
}
