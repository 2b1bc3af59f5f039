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

// Package lutris adds the installed games of a Lutris library.
package lutris

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	CollectionName = "Lutris"
	dbFileName     = "pga.db"
	uriScheme      = "lutris:"
)

// OpenFunc opens the Lutris database at path.
type OpenFunc func(path string) (*sql.DB, error)

// OpenReadOnly opens pga.db without write access, Lutris may be running.
func OpenReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open lutris database: %w", err)
	}
	return db, nil
}

type Options struct {
	Open OpenFunc
	// IconsDir holds the lutris_<slug>.png icons.
	IconsDir string
	// Dirs are checked before $XDG_DATA_HOME/lutris.
	Dirs []string
}

type Provider struct {
	open     OpenFunc
	iconsDir string
	dirs     []string
}

func New(opts Options) *Provider {
	if opts.Open == nil {
		opts.Open = OpenReadOnly
	}
	if opts.IconsDir == "" {
		opts.IconsDir = filepath.Join(xdg.DataHome, "icons", "hicolor", "128x128", "apps")
	}
	return &Provider{open: opts.Open, iconsDir: opts.IconsDir, dirs: opts.Dirs}
}

func NewFromConfig(cfg *config.Instance) *Provider {
	return New(Options{Dirs: cfg.LutrisDirs()})
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:   config.ProviderLutris,
		Name: "Lutris",
	}
}

func (p *Provider) dataDirCandidates() []string {
	out := make([]string, 0, len(p.dirs)+1)
	for _, dir := range p.dirs {
		out = append(out, helpers.ExpandHome(dir))
	}
	return append(out, filepath.Join(xdg.DataHome, "lutris"))
}

func (p *Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	afs := sctx.Fs()
	logger := sctx.Logger()

	var dataDir string
	for _, dir := range p.dataDirCandidates() {
		if helpers.FileExists(afs, filepath.Join(dir, dbFileName)) {
			dataDir = dir
			break
		}
	}
	if dataDir == "" {
		return fmt.Errorf("no lutris database: %w", providers.ErrSourceNotFound)
	}
	logger.Info().Str("dir", dataDir).Msg("found lutris data directory")

	db, err := p.open(filepath.Join(dataDir, dbFileName))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close lutris database")
		}
	}()

	rows, err := sqlInstalledGames(ctx, db)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		progress(1)
		return nil
	}

	coll := sctx.GetOrCreateCollection(CollectionName)
	for i, row := range rows {
		progress(float64(i) / float64(len(rows)))
		if strings.TrimSpace(row.slug) == "" {
			logger.Warn().Int64("id", row.id).Msg("lutris game has no slug, skipped")
			continue
		}

		uri := uriScheme + row.slug
		id, exists := sctx.GameByURI(uri)
		if !exists {
			id = sctx.CreateGameFor(coll)
			if _, ok := sctx.GameAddURI(id, uri); !ok {
				continue
			}
		} else {
			sctx.GameAddTo(id, coll)
		}

		game := sctx.Game(id)
		if name := strings.TrimSpace(row.name); name != "" {
			game.Title = name
		} else if game.Title == uri {
			game.Title = row.slug
		}
		game.LaunchCmd = "lutris lutris:rungameid/" + strconv.FormatInt(row.id, 10)
		p.findAssets(afs, game, dataDir, row.slug)
	}
	progress(1)
	return nil
}

func (p *Provider) findAssets(afs afero.Fs, game *search.PendingGame, dataDir, slug string) {
	if game.Assets == nil {
		game.Assets = model.Assets{}
	}
	firstOf := func(kind model.AssetType, paths ...string) {
		for _, path := range paths {
			if helpers.FileExists(afs, path) {
				game.Assets.Add(kind, helpers.FileURL(path))
				return
			}
		}
	}
	firstOf(model.AssetSteamGrid,
		filepath.Join(dataDir, "banners", slug+".png"),
		filepath.Join(dataDir, "banners", slug+".jpg"))
	firstOf(model.AssetBoxFront,
		filepath.Join(dataDir, "coverart", slug+".png"),
		filepath.Join(dataDir, "coverart", slug+".jpg"))
	firstOf(model.AssetTile, filepath.Join(p.iconsDir, "lutris_"+slug+".png"))
}
