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


package pegasus

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/filter"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/metafile"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/rs/zerolog"
)

type collAttrib int

const (
	collShortName collAttrib = iota
	collLaunchCmd
	collLaunchWorkdir
	collDirectories
	collExtensions
	collFiles
	collRegex
	collSummary
	collDescription
	collSortName
)

var collAttribs = map[string]collAttrib{
	"shortname":         collShortName,
	"launch":            collLaunchCmd,
	"command":           collLaunchCmd,
	"workdir":           collLaunchWorkdir,
	"cwd":               collLaunchWorkdir,
	"directory":         collDirectories,
	"directories":       collDirectories,
	"extension":         collExtensions,
	"extensions":        collExtensions,
	"file":              collFiles,
	"files":             collFiles,
	"regex":             collRegex,
	"ignore-extension":  collExtensions,
	"ignore-extensions": collExtensions,
	"ignore-file":       collFiles,
	"ignore-files":      collFiles,
	"ignore-regex":      collRegex,
	"summary":           collSummary,
	"description":       collDescription,
	"sortname":          collSortName,
	"sort_name":         collSortName,
	"sort-name":         collSortName,
}

type gameAttrib int

const (
	gameFiles gameAttrib = iota
	gameLaunchCmd
	gameLaunchWorkdir
	gameDevelopers
	gamePublishers
	gameGenres
	gameTags
	gamePlayers
	gameSummary
	gameDescription
	gameRelease
	gameRating
	gameSortTitle
)

var gameAttribs = map[string]gameAttrib{
	"file":        gameFiles,
	"files":       gameFiles,
	"launch":      gameLaunchCmd,
	"command":     gameLaunchCmd,
	"workdir":     gameLaunchWorkdir,
	"cwd":         gameLaunchWorkdir,
	"developer":   gameDevelopers,
	"developers":  gameDevelopers,
	"publisher":   gamePublishers,
	"publishers":  gamePublishers,
	"genre":       gameGenres,
	"genres":      gameGenres,
	"tag":         gameTags,
	"tags":        gameTags,
	"players":     gamePlayers,
	"summary":     gameSummary,
	"description": gameDescription,
	"release":     gameRelease,
	"rating":      gameRating,
	"sorttitle":   gameSortTitle,
	"sortname":    gameSortTitle,
	"sort_title":  gameSortTitle,
	"sort_name":   gameSortTitle,
	"sort-title":  gameSortTitle,
	"sort-name":   gameSortTitle,
}

var (
	assetKeyRe   = regexp.MustCompile(`^assets?\.(.+)$`)
	countRangeRe = regexp.MustCompile(`^(\d+)(-(\d+))?$`)
	percentRe    = regexp.MustCompile(`^\d+%$`)
	floatRe      = regexp.MustCompile(`^\d(\.\d+)?$`)
	dateRe       = regexp.MustCompile(`^(\d{4})(-(\d{1,2}))?(-(\d{1,2}))?$`)
)

// parser applies the entries of one metafile to the search context. A
// collection entry opens a new filter, a game entry opens a game. Every
// following entry applies to whichever was opened last.
type parser struct {
	sctx      *search.Context
	log       *zerolog.Logger
	filters   *[]*filter.Filter
	curColl   *search.PendingCollection
	curGame   *search.PendingGame
	curFilt   *filter.Filter
	path      string
	dir       string
	curCollID search.CollectionID
	curGameID search.GameID
}

func newParser(sctx *search.Context, path string, filters *[]*filter.Filter) *parser {
	return &parser{
		sctx:    sctx,
		log:     sctx.Logger(),
		filters: filters,
		path:    path,
		dir:     filepath.Dir(path),
	}
}

func (p *parser) warn(line int, msg string) {
	p.log.Warn().Str("file", p.path).Int("line", line).Msg(msg)
}

func (p *parser) firstLine(entry metafile.Entry) string {
	if len(entry.Values) > 1 {
		p.warn(entry.Line, fmt.Sprintf(
			"expected single line value for `%s` but got more, the rest of the lines are ignored", entry.Key))
	}
	return entry.Values[0]
}

func (p *parser) onError(err metafile.Error) {
	p.warn(err.Line, err.Message)
}

func (p *parser) onEntry(entry metafile.Entry) {
	switch entry.Key {
	case "collection":
		name := p.firstLine(entry)
		p.curCollID = p.sctx.GetOrCreateCollection(name)
		p.curColl = p.sctx.Collection(p.curCollID)
		p.curColl.CommonLaunchCmdBasedir = p.dir
		p.curGame = nil
		p.curFilt = filter.New(name, p.dir)
		*p.filters = append(*p.filters, p.curFilt)
		return
	case "game":
		if p.curColl != nil {
			p.curGameID = p.sctx.CreateGameFor(p.curCollID)
		} else {
			p.curGameID = p.sctx.CreateGame()
		}
		p.curGame = p.sctx.Game(p.curGameID)
		p.curGame.Title = p.firstLine(entry)
		p.curGame.LaunchCmdBasedir = p.dir
		return
	}

	if p.curColl == nil && p.curGame == nil {
		p.warn(entry.Line, "no `collection` or `game` defined yet, entry ignored")
		return
	}
	if strings.HasPrefix(entry.Key, "x-") {
		return
	}
	if p.assetEntry(entry) {
		return
	}
	if p.curGame != nil {
		p.gameEntry(entry)
		return
	}
	p.collectionEntry(entry)
}

// assetEntry reports whether the key was an asset key, even if the asset
// type turned out to be unknown.
func (p *parser) assetEntry(entry metafile.Entry) bool {
	m := assetKeyRe.FindStringSubmatch(entry.Key)
	if m == nil {
		return false
	}
	assetType := model.AssetTypeFromName(m[1])
	if assetType == model.AssetUnknown {
		p.warn(entry.Line, fmt.Sprintf("unknown asset type `%s`, entry ignored", m[1]))
		return true
	}

	var assets *model.Assets
	if p.curGame != nil {
		assets = &p.curGame.Assets
	} else {
		assets = &p.curColl.Assets
	}
	if *assets == nil {
		*assets = model.Assets{}
	}
	for _, line := range entry.Values {
		if line == "" {
			continue
		}
		assets.Add(assetType, assetLineToURL(line, p.dir))
	}
	return true
}

func assetLineToURL(line, dir string) string {
	if helpers.IsRemoteURL(line) {
		return line
	}
	return helpers.FileURL(helpers.ResolveRelative(dir, line))
}

func (p *parser) collectionEntry(entry metafile.Entry) {
	attrib, ok := collAttribs[entry.Key]
	if !ok {
		p.warn(entry.Line, fmt.Sprintf("unrecognized collection property `%s`, ignored", entry.Key))
		return
	}

	group := &p.curFilt.Include
	if strings.HasPrefix(entry.Key, "ignore-") {
		group = &p.curFilt.Exclude
	}

	coll := p.curColl
	switch attrib {
	case collShortName:
		coll.ShortName = p.firstLine(entry)
	case collLaunchCmd:
		coll.CommonLaunchCmd = metafile.MergeLines(entry.Values)
	case collLaunchWorkdir:
		coll.CommonLaunchWorkdir = p.firstLine(entry)
	case collDirectories:
		fs := p.sctx.Fs()
		for _, value := range entry.Values {
			abs := helpers.ResolveRelative(p.dir, value)
			canonical, err := helpers.CanonicalPath(fs, abs)
			if err != nil || !helpers.DirExists(fs, canonical) {
				p.warn(entry.Line, fmt.Sprintf("directory path `%s` not found", abs))
				continue
			}
			p.curFilt.Directories = append(p.curFilt.Directories, canonical)
		}
	case collExtensions:
		for ext := range strings.SplitSeq(strings.ToLower(p.firstLine(entry)), ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				group.Extensions = append(group.Extensions, ext)
			}
		}
	case collFiles:
		for _, value := range entry.Values {
			if value != "" {
				group.Files = append(group.Files, value)
			}
		}
	case collRegex:
		re, err := helpers.CachedCompile(p.firstLine(entry))
		if err != nil {
			p.warn(entry.Line, fmt.Sprintf("invalid regular expression: %v", err))
			group.Regex = nil
			return
		}
		group.Regex = re
	case collSummary:
		coll.Summary = replaceNewlines(metafile.MergeLines(entry.Values))
	case collDescription:
		coll.Description = replaceNewlines(metafile.MergeLines(entry.Values))
	case collSortName:
		coll.SortBy = p.firstLine(entry)
	}
}

func (p *parser) gameEntry(entry metafile.Entry) {
	attrib, ok := gameAttribs[entry.Key]
	if !ok {
		p.warn(entry.Line, fmt.Sprintf("unrecognized game property `%s`, ignored", entry.Key))
		return
	}

	game := p.curGame
	switch attrib {
	case gameFiles:
		p.addFiles(entry)
	case gameLaunchCmd:
		game.LaunchCmd = metafile.MergeLines(entry.Values)
	case gameLaunchWorkdir:
		game.LaunchWorkdir = p.firstLine(entry)
	case gameDevelopers:
		game.Developers = appendNonEmpty(game.Developers, entry.Values)
	case gamePublishers:
		game.Publishers = appendNonEmpty(game.Publishers, entry.Values)
	case gameGenres:
		game.Genres = appendNonEmpty(game.Genres, entry.Values)
	case gameTags:
		game.Tags = appendNonEmpty(game.Tags, entry.Values)
	case gamePlayers:
		if n, ok := parsePlayerCount(p.firstLine(entry)); ok {
			game.PlayerCount = n
		}
	case gameSummary:
		game.Summary = replaceNewlines(metafile.MergeLines(entry.Values))
	case gameDescription:
		game.Description = replaceNewlines(metafile.MergeLines(entry.Values))
	case gameRelease:
		date, ok := parseRelease(p.firstLine(entry))
		if !ok {
			p.warn(entry.Line, "incorrect date format, should be YYYY, YYYY-MM or YYYY-MM-DD")
			return
		}
		game.Release = date
	case gameRating:
		rating, ok := parseRating(p.firstLine(entry))
		if !ok {
			p.warn(entry.Line, "failed to parse rating value")
			return
		}
		game.Rating = rating
	case gameSortTitle:
		game.SortBy = p.firstLine(entry)
	}
}

func (p *parser) addFiles(entry metafile.Entry) {
	fs := p.sctx.Fs()
	for _, line := range entry.Values {
		if line == "" {
			continue
		}
		path, err := helpers.CanonicalPath(fs, helpers.ResolveRelative(p.dir, line))
		if err != nil {
			p.warn(entry.Line, fmt.Sprintf("missing file `%s`", line))
			continue
		}
		if owner, ok := p.sctx.GameByFilepath(path); ok && owner == p.curGameID {
			p.warn(entry.Line, fmt.Sprintf("duplicate file `%s`", line))
			continue
		}
		p.sctx.GameAddFilepath(p.curGameID, path)
	}
}

func appendNonEmpty(dst, values []string) []string {
	for _, v := range values {
		if v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

func parsePlayerCount(s string) (int, bool) {
	m := countRangeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[3])
	return max(1, a, b), true
}

func parseRelease(s string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[3])
	day, _ := strconv.Atoi(m[5])
	year = max(1, year)
	month = min(max(1, month), 12)
	day = min(max(1, day), 31)
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func parseRating(s string) (float32, bool) {
	var v float64
	switch {
	case percentRe.MatchString(s):
		n, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		v = n / 100
	case floatRe.MatchString(s):
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = n
	default:
		return 0, false
	}
	return float32(math.Min(math.Max(v, 0), 1)), true
}

// replaceNewlines turns a `\n` escape into a line break. An escaped
// backslash followed by n is kept as the two characters `\n`.
func replaceNewlines(s string) string {
	if !strings.Contains(s, `\n`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], `\\n`):
			b.WriteString(`\n`)
			i += 2
		case strings.HasPrefix(s[i:], `\n`):
			b.WriteByte('\n')
			i++
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
