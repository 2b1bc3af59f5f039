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

package search

import (
	"slices"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Result is the published outcome of a scan. It must not be modified.
type Result struct {
	Collections []*model.Collection `json:"collections" yaml:"collections"`
	Games       []*model.Game       `json:"games" yaml:"games"`
}

// Finalize drops incomplete records and converts the rest into the published
// form. The Context must not be used afterwards.
//
// Games are checked first: a game without files or without collections is
// removed, then every collection left without games is removed. Collections
// never contain collections, so a single pass of each suffices.
func (c *Context) Finalize() Result {
	c.CloseDownloads()

	affected := make(map[CollectionID]struct{})
	for id, game := range c.games.all() {
		reason := ""
		switch {
		case len(game.files) == 0:
			reason = "no files defined"
		case len(game.collections) == 0:
			reason = "not in any collection"
		default:
			continue
		}
		c.log.Warn().
			Str("game", game.Title).
			Str("identity", c.Identity(GameID(id))).
			Msgf("game dropped: %s", reason)
		for _, coll := range game.collections {
			affected[coll] = struct{}{}
		}
		c.games.free(id)
	}

	for coll := range affected {
		pc := c.Collection(coll)
		if pc == nil {
			continue
		}
		for _, gid := range pc.Games() {
			if c.Game(gid) == nil {
				pc.removeGame(gid)
			}
		}
	}

	for id, coll := range c.collections.all() {
		if len(coll.games) > 0 {
			continue
		}
		c.log.Warn().Str("collection", coll.Name).Msg("collection dropped: no valid games")
		delete(c.collectionNames, coll.Name)
		c.collections.free(id)
	}

	return c.publish()
}

func (c *Context) publish() Result {
	collByID := make(map[CollectionID]*model.Collection, c.collections.live)
	colls := make([]*model.Collection, 0, c.collections.live)
	for id, pc := range c.collections.all() {
		mc := &model.Collection{
			Name:                   pc.Name,
			ShortName:              pc.ShortName,
			SortBy:                 pc.SortBy,
			Summary:                pc.Summary,
			Description:            pc.Description,
			CommonLaunchCmd:        pc.CommonLaunchCmd,
			CommonLaunchWorkdir:    pc.CommonLaunchWorkdir,
			CommonLaunchCmdBasedir: pc.CommonLaunchCmdBasedir,
			Assets:                 pc.Assets.Clone(),
		}
		collByID[CollectionID(id)] = mc
		colls = append(colls, mc)
	}

	gameByID := make(map[GameID]*model.Game, c.games.live)
	games := make([]*model.Game, 0, c.games.live)
	for id, pg := range c.games.all() {
		mg := c.publishGame(pg)
		for _, cid := range pg.collections {
			mc, ok := collByID[cid]
			if !ok {
				continue
			}
			mg.Collections = append(mg.Collections, mc)
			if mg.LaunchCmd == "" && mc.CommonLaunchCmd != "" {
				mg.LaunchCmd = mc.CommonLaunchCmd
				if mg.LaunchCmdBasedir == "" {
					mg.LaunchCmdBasedir = mc.CommonLaunchCmdBasedir
				}
			}
			if mg.LaunchWorkdir == "" {
				mg.LaunchWorkdir = mc.CommonLaunchWorkdir
			}
		}
		gameByID[GameID(id)] = mg
		games = append(games, mg)
	}

	for id, pc := range c.collections.all() {
		mc := collByID[CollectionID(id)]
		for _, gid := range pc.games {
			if mg, ok := gameByID[gid]; ok {
				mc.Games = append(mc.Games, mg)
			}
		}
	}

	c.sortResult(colls, games)
	return Result{Collections: colls, Games: games}
}

func (c *Context) publishGame(pg *PendingGame) *model.Game {
	mg := &model.Game{
		Title:            pg.Title,
		SortBy:           pg.SortBy,
		Summary:          pg.Summary,
		Description:      pg.Description,
		Developers:       dedupStrings(pg.Developers),
		Publishers:       dedupStrings(pg.Publishers),
		Genres:           dedupStrings(pg.Genres),
		Tags:             dedupStrings(pg.Tags),
		Release:          pg.Release,
		Rating:           pg.Rating,
		PlayerCount:      max(pg.PlayerCount, 1),
		Favorite:         pg.Favorite,
		LaunchCmd:        pg.LaunchCmd,
		LaunchWorkdir:    pg.LaunchWorkdir,
		LaunchCmdBasedir: pg.LaunchCmdBasedir,
		Assets:           pg.Assets.Clone(),
	}
	for _, fid := range pg.files {
		pf := c.File(fid)
		if pf == nil {
			continue
		}
		mg.Files = append(mg.Files, &model.GameFile{
			Path:       pf.Path,
			URI:        pf.URI,
			Name:       pf.Name,
			PlayCount:  pf.PlayCount,
			PlayTime:   pf.PlayTime,
			LastPlayed: pf.LastPlayed,
			Game:       mg,
		})
	}
	mg.SumPlayStats()
	return mg
}

func (c *Context) sortResult(colls []*model.Collection, games []*model.Game) {
	tag, err := language.Parse(c.sortLocale)
	if err != nil {
		c.log.Warn().Err(err).Str("locale", c.sortLocale).Msg("invalid sort locale, using English")
		tag = language.English
	}
	col := collate.New(tag, collate.IgnoreCase, collate.Numeric)

	collKey := func(mc *model.Collection) string {
		if mc.SortBy != "" {
			return mc.SortBy
		}
		return mc.Name
	}
	gameKey := func(mg *model.Game) string {
		if mg.SortBy != "" {
			return mg.SortBy
		}
		return mg.Title
	}
	byGame := func(a, b *model.Game) int {
		return col.CompareString(gameKey(a), gameKey(b))
	}

	slices.SortStableFunc(colls, func(a, b *model.Collection) int {
		return col.CompareString(collKey(a), collKey(b))
	})
	slices.SortStableFunc(games, byGame)
	for _, mc := range colls {
		slices.SortStableFunc(mc.Games, byGame)
	}
}

func dedupStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
