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

package steam

import (
	"context"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/ZaparooProject/zaparoo-library/internal/vdfbinary"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	shortcutsGlob = "userdata/*/config/shortcuts.vdf"
	gridGlob      = "userdata/*/config/grid"
)

// gridSuffixes maps the custom artwork names Steam stores per app to asset
// types, "<appid>p.png" is the portrait capsule and so on.
var gridSuffixes = []struct {
	suffix string
	kind   model.AssetType
}{
	{suffix: "p", kind: model.AssetBoxFront},
	{suffix: "_hero", kind: model.AssetBackground},
	{suffix: "_logo", kind: model.AssetLogo},
	{suffix: "", kind: model.AssetSteamGrid},
}

var gridExts = []string{".png", ".jpg"}

// gridDirs lists the custom artwork directories of every Steam user.
func gridDirs(afs afero.Fs, dataDir string) []string {
	dirs, err := globUnder(afs, dataDir, gridGlob)
	if err != nil {
		log.Warn().Err(err).Msg("could not list steam artwork")
	}
	return dirs
}

// addGridAssets puts the user's custom artwork for appID first in its asset
// lists.
func addGridAssets(afs afero.Fs, game *search.PendingGame, dirs []string, appID string) {
	for _, dir := range dirs {
		for _, g := range gridSuffixes {
			for _, ext := range gridExts {
				path := filepath.Join(dir, appID+g.suffix+ext)
				if helpers.FileExists(afs, path) {
					game.Assets.SetSingle(g.kind, helpers.FileURL(path))
					break
				}
			}
		}
	}
}

func readShortcuts(afs afero.Fs, path string, logger *zerolog.Logger) ([]vdfbinary.Shortcut, error) {
	f, err := afs.Open(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // logged by the caller with the path
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Str("file", path).Msg("failed to close shortcuts file")
		}
	}()
	return vdfbinary.ParseShortcuts(f) //nolint:wrapcheck // logged by the caller with the path
}

// addShortcuts adds the non-Steam games the users added to the client.
func addShortcuts(
	ctx context.Context,
	sctx *search.Context,
	coll search.CollectionID,
	dataDir, call string,
	grids []string,
) error {
	fs := sctx.Fs()
	logger := sctx.Logger()

	files, err := globUnder(fs, dataDir, shortcutsGlob)
	if err != nil {
		logger.Warn().Err(err).Msg("could not list steam shortcuts")
	}
	seen := make(map[string]struct{})
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		shortcuts, err := readShortcuts(fs, path, logger)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("could not read steam shortcuts")
			continue
		}
		logger.Debug().Str("file", path).Int("count", len(shortcuts)).Msg("read steam shortcuts")

		for i := range shortcuts {
			s := &shortcuts[i]
			if s.Hidden {
				continue
			}
			gameID := strconv.FormatUint(s.GameID(), 10)
			if _, dup := seen[gameID]; dup {
				continue
			}
			seen[gameID] = struct{}{}

			uri := uriScheme + gameID
			id, ok := gameFor(sctx, coll, uri)
			if !ok {
				continue
			}
			game := sctx.Game(id)
			if game.Title == "" || game.Title == uri {
				game.Title = s.AppName
			}
			if game.LaunchCmd == "" {
				game.LaunchCmd = call + " steam://rungameid/" + gameID
			}
			for _, tag := range s.Tags {
				if !slices.Contains(game.Tags, tag) {
					game.Tags = append(game.Tags, tag)
				}
			}

			addGridAssets(fs, game, grids, strconv.FormatUint(uint64(s.AppID), 10))
			if s.Icon != "" && helpers.FileExists(fs, s.Icon) &&
				model.ExtensionAllowed(model.AssetTile, filepath.Ext(s.Icon)) {
				game.Assets.Add(model.AssetTile, helpers.FileURL(s.Icon))
			}
		}
	}
	return nil
}
