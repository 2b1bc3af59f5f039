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

// Package steam adds the games installed through the Steam client and
// enriches them with store metadata.
package steam

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/jsoncache"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/spf13/afero"
)

const (
	CollectionName = "Steam"
	uriScheme      = "steam:"
	cacheDir       = "steam"
)

type Options struct {
	// Cache stores appdetails responses. Nil disables caching.
	Cache *jsoncache.Cache
	// GOOS selects the platform specific lookup. Defaults to runtime.GOOS.
	GOOS string
	// Dirs are checked before the default install locations.
	Dirs             []string
	DownloadMetadata bool
}

type Provider struct {
	cache    *jsoncache.Cache
	goos     string
	dirs     []string
	download bool
}

func New(opts Options) *Provider {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	return &Provider{
		cache:    opts.Cache,
		goos:     opts.GOOS,
		dirs:     opts.Dirs,
		download: opts.DownloadMetadata,
	}
}

func NewFromConfig(cfg *config.Instance) *Provider {
	return New(Options{
		Cache:            jsoncache.New(afero.NewOsFs(), helpers.CacheDir()),
		Dirs:             cfg.SteamDirs(),
		DownloadMetadata: cfg.SteamDownloadMetadata(),
	})
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:   config.ProviderSteam,
		Name: "Steam",
	}
}

// FindSteamCall returns the command prefix used to open steam:// links.
func FindSteamCall(afs afero.Fs, overrides []string) string {
	dir, _ := findDataDir(afs, dataDirCandidates(runtime.GOOS, overrides))
	return steamCall(runtime.GOOS, dir)
}

func (p *Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	fs := sctx.Fs()
	logger := sctx.Logger()

	dataDir, ok := findDataDir(fs, dataDirCandidates(p.goos, p.dirs))
	if !ok {
		return fmt.Errorf("no steam installation: %w", providers.ErrSourceNotFound)
	}
	logger.Info().Str("dir", dataDir).Msg("found steam installation")
	call := steamCall(p.goos, dataDir)

	var manifests []string
	for _, lib := range libraryDirs(fs, logger, dataDir) {
		found, err := findManifests(fs, lib)
		if err != nil {
			logger.Warn().Err(err).Str("dir", lib).Msg("could not list steam library")
			continue
		}
		manifests = append(manifests, found...)
	}

	coll := sctx.GetOrCreateCollection(CollectionName)
	grids := gridDirs(fs, dataDir)
	// apps installed in more than one library are read once
	seen := make(map[string]struct{}, len(manifests))
	for i, path := range manifests {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress(float64(i) / float64(len(manifests)+1))

		m, err := readManifest(fs, path)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("could not read app manifest")
			continue
		}
		if _, dup := seen[m.appID]; dup {
			continue
		}
		seen[m.appID] = struct{}{}

		id, ok := gameFor(sctx, coll, uriScheme+m.appID)
		if !ok {
			continue
		}
		game := sctx.Game(id)
		if game.Title == "" || game.Title == uriScheme+m.appID {
			game.Title = m.name
		}
		if game.LaunchCmd == "" {
			game.LaunchCmd = call + " steam://rungameid/" + m.appID
		}
		addGridAssets(fs, game, grids, m.appID)

		p.loadMetadata(sctx, id, m.appID, grids)
	}

	progress(float64(len(manifests)) / float64(len(manifests)+1))
	if err := addShortcuts(ctx, sctx, coll, dataDir, call, grids); err != nil {
		return err
	}
	progress(1)
	return nil
}

// gameFor returns the game registered under uri, adding it to coll, or a new
// game of coll when there is none.
func gameFor(sctx *search.Context, coll search.CollectionID, uri string) (search.GameID, bool) {
	if id, exists := sctx.GameByURI(uri); exists {
		sctx.GameAddTo(id, coll)
		return id, true
	}
	id := sctx.CreateGameFor(coll)
	if _, added := sctx.GameAddURI(id, uri); !added {
		return search.GameID{}, false
	}
	return id, true
}

// loadMetadata applies the cached store entry of the app, or schedules a
// download when there is none. Custom artwork from grids is reapplied on
// top of the store images.
func (p *Provider) loadMetadata(sctx *search.Context, id search.GameID, appID string, grids []string) {
	logger := sctx.Logger()

	if p.cache != nil {
		if body, ok := p.cache.Read(cacheDir, appID); ok {
			data, err := parseAppDetails(body)
			if err == nil {
				game := sctx.Game(id)
				applyAppData(game, data)
				addGridAssets(sctx.Fs(), game, grids, appID)
				return
			}
			logger.Warn().Err(err).Str("app", appID).Msg("cached store entry is corrupt, deleting")
			p.cache.Delete(cacheDir, appID)
		}
	}
	if !p.download {
		return
	}

	sctx.ScheduleDownload(fmt.Sprintf(appDetailsURL, appID), func(body []byte, err error) {
		if err != nil {
			logger.Warn().Err(err).Str("app", appID).Msg("failed to download store metadata")
			return
		}
		data, err := parseAppDetails(body)
		if err != nil {
			logger.Warn().Err(err).Str("app", appID).
				Msg("failed to parse store metadata, perhaps the Steam API changed?")
			return
		}
		if game := sctx.Game(id); game != nil {
			applyAppData(game, data)
			addGridAssets(sctx.Fs(), game, grids, appID)
		}
		if p.cache != nil {
			if err := p.cache.Write(cacheDir, appID, body); err != nil {
				logger.Warn().Err(err).Str("app", appID).Msg("failed to cache store metadata")
			}
		}
	})
}
