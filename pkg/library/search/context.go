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

// Package search holds the per-scan workspace providers populate: pending
// games and collections, the identity index, the download queue and the
// finalize pass that produces the published result.
//
// A Context is owned by one goroutine. Only the pending download counter may
// be touched from elsewhere.
package search

import (
	"iter"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const defaultConcurrency = 4

type Options struct {
	Fs      afero.Fs
	Fetcher Fetcher
	Clock   clockwork.Clock
	// SortLocale is a BCP 47 tag used to order the result.
	SortLocale string
	// Timeout is the download inactivity window.
	Timeout     time.Duration
	Concurrency int
	// RateLimit caps requests per second. Zero disables the limit.
	RateLimit float64
	// Logger receives every warning of the scan. Defaults to the global
	// logger.
	Logger *zerolog.Logger
	// Strict turns identity conflicts into panics.
	Strict bool
}

type Context struct {
	fs              afero.Fs
	log             zerolog.Logger
	index           *identityIndex
	downloads       *downloadQueue
	collectionNames map[string]CollectionID
	rootDirSet      map[string]struct{}
	sortLocale      string
	rootDirs        []string
	games           arena[PendingGame]
	files           arena[PendingFile]
	collections     arena[PendingCollection]
}

func New(opts Options) *Context {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.SortLocale == "" {
		opts.SortLocale = config.DefaultSortLang
	}
	if opts.Logger == nil {
		opts.Logger = &log.Logger
	}

	id := contextIDs.Add(1)
	return &Context{
		fs:              opts.Fs,
		log:             *opts.Logger,
		index:           newIdentityIndex(*opts.Logger, opts.Strict),
		downloads:       newDownloadQueue(opts),
		collectionNames: make(map[string]CollectionID),
		rootDirSet:      make(map[string]struct{}),
		sortLocale:      opts.SortLocale,
		games:           arena[PendingGame]{ctx: id},
		files:           arena[PendingFile]{ctx: id},
		collections:     arena[PendingCollection]{ctx: id},
	}
}

// Logger returns the logger of the scan. Providers log through it so their
// lines carry the scan fields.
func (c *Context) Logger() *zerolog.Logger {
	return &c.log
}

// Fs returns the filesystem the scan runs on.
func (c *Context) Fs() afero.Fs {
	return c.fs
}

// GetOrCreateCollection returns the collection called name, creating it on
// first use.
func (c *Context) GetOrCreateCollection(name string) CollectionID {
	if id, ok := c.collectionNames[name]; ok {
		return id
	}
	id := CollectionID(c.collections.alloc(&PendingCollection{
		Name:    name,
		Assets:  model.Assets{},
		gameSet: make(map[GameID]struct{}),
	}))
	c.collectionNames[name] = id
	return id
}

// CollectionByName looks up an existing collection.
func (c *Context) CollectionByName(name string) (CollectionID, bool) {
	id, ok := c.collectionNames[name]
	return id, ok
}

// CreateGame creates a game that belongs to no collection yet.
func (c *Context) CreateGame() GameID {
	return GameID(c.games.alloc(&PendingGame{Assets: model.Assets{}}))
}

// CreateGameFor creates a game as a member of coll.
func (c *Context) CreateGameFor(coll CollectionID) GameID {
	id := c.CreateGame()
	c.GameAddTo(id, coll)
	return id
}

// Game returns the pending game, or nil for a stale or foreign handle.
func (c *Context) Game(id GameID) *PendingGame {
	return c.games.get(handle(id))
}

// Collection returns the pending collection, or nil for a stale or foreign
// handle.
func (c *Context) Collection(id CollectionID) *PendingCollection {
	return c.collections.get(handle(id))
}

// File returns the pending game file, or nil for a stale or foreign handle.
func (c *Context) File(id FileID) *PendingFile {
	return c.files.get(handle(id))
}

func (c *Context) GameCount() int       { return c.games.live }
func (c *Context) CollectionCount() int { return c.collections.live }

// GameByFilepath returns the game that owns the canonical path.
func (c *Context) GameByFilepath(path string) (GameID, bool) {
	return c.gameBy(kindPath, path)
}

// GameByURI returns the game that owns uri.
func (c *Context) GameByURI(uri string) (GameID, bool) {
	return c.gameBy(kindURI, uri)
}

// GameByIdentity checks both the path and the URI index.
func (c *Context) GameByIdentity(identity string) (GameID, bool) {
	if id, ok := c.GameByFilepath(identity); ok {
		return id, true
	}
	return c.GameByURI(identity)
}

// FileByIdentity returns the file registered under a path or URI.
func (c *Context) FileByIdentity(identity string) (FileID, bool) {
	if id, ok := c.index.lookup(kindPath, identity); ok {
		return id, true
	}
	return c.index.lookup(kindURI, identity)
}

func (c *Context) gameBy(kind identityKind, key string) (GameID, bool) {
	fid, ok := c.index.lookup(kind, key)
	if !ok {
		return GameID{}, false
	}
	f := c.File(fid)
	if f == nil {
		return GameID{}, false
	}
	return f.game, true
}

// GameAddFilepath binds the canonical path to the game and attaches a new
// file for it. Adding a path the game already owns returns the existing file.
func (c *Context) GameAddFilepath(id GameID, path string) (FileID, bool) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return c.gameAddIdentity(id, kindPath, path, name)
}

// GameAddURI binds uri to the game and attaches a new file for it.
func (c *Context) GameAddURI(id GameID, uri string) (FileID, bool) {
	return c.gameAddIdentity(id, kindURI, uri, uri)
}

func (c *Context) gameAddIdentity(id GameID, kind identityKind, key, name string) (FileID, bool) {
	game := c.Game(id)
	if game == nil {
		c.log.Warn().Str(string(kind), key).Msg("cannot add file to an unknown game")
		return FileID{}, false
	}
	if key == "" {
		c.log.Warn().Str("game", game.Title).Msgf("cannot add an empty %s", kind)
		return FileID{}, false
	}

	if fid, ok := c.index.lookup(kind, key); ok {
		owner := c.File(fid)
		if owner != nil && owner.game == id {
			return fid, true
		}
		ownerTitle := ""
		if owner != nil {
			if g := c.Game(owner.game); g != nil {
				ownerTitle = g.Title
			}
		}
		c.index.conflict(kind, key, ownerTitle, game.Title)
		return FileID{}, false
	}

	file := &PendingFile{Name: name, game: id}
	if kind == kindPath {
		file.Path = key
	} else {
		file.URI = key
	}
	fid := FileID(c.files.alloc(file))
	c.index.register(kind, key, fid)
	game.files = append(game.files, fid)
	if game.Title == "" {
		game.Title = name
	}
	return fid, true
}

// GameAddTo makes the game a member of the collection. Launch fields the game
// does not set yet are taken from the collection.
func (c *Context) GameAddTo(id GameID, coll CollectionID) {
	game := c.Game(id)
	collection := c.Collection(coll)
	if game == nil || collection == nil {
		c.log.Warn().Msg("cannot add game to collection, unknown handle")
		return
	}
	if collection.addGame(id) {
		game.collections = append(game.collections, coll)
	}
	inheritLaunch(game, collection)
}

func inheritLaunch(game *PendingGame, coll *PendingCollection) {
	if game.LaunchCmd == "" && coll.CommonLaunchCmd != "" {
		game.LaunchCmd = coll.CommonLaunchCmd
		if game.LaunchCmdBasedir == "" {
			game.LaunchCmdBasedir = coll.CommonLaunchCmdBasedir
		}
	}
	if game.LaunchWorkdir == "" {
		game.LaunchWorkdir = coll.CommonLaunchWorkdir
	}
}

// AddGameRootDir records a directory that holds games, and possibly a media
// folder for them.
func (c *Context) AddGameRootDir(dir string) {
	dir = filepath.Clean(dir)
	if _, ok := c.rootDirSet[dir]; ok {
		return
	}
	c.rootDirSet[dir] = struct{}{}
	c.rootDirs = append(c.rootDirs, dir)
}

func (c *Context) GameRootDirs() []string {
	return slices.Clone(c.rootDirs)
}

// Filepaths iterates the path identities in lexical order.
func (c *Context) Filepaths() iter.Seq2[string, GameID] {
	return func(yield func(string, GameID) bool) {
		for _, path := range slices.Sorted(maps.Keys(c.index.byPath)) {
			game, ok := c.GameByFilepath(path)
			if !ok {
				continue
			}
			if !yield(path, game) {
				return
			}
		}
	}
}

// Files iterates every live game file in creation order.
func (c *Context) Files() iter.Seq2[FileID, *PendingFile] {
	return func(yield func(FileID, *PendingFile) bool) {
		for h, f := range c.files.all() {
			if !yield(FileID(h), f) {
				return
			}
		}
	}
}

// Games iterates every live game in creation order.
func (c *Context) Games() iter.Seq2[GameID, *PendingGame] {
	return func(yield func(GameID, *PendingGame) bool) {
		for h, g := range c.games.all() {
			if !yield(GameID(h), g) {
				return
			}
		}
	}
}

// Identity returns the identity of the game's first file.
func (c *Context) Identity(id GameID) string {
	game := c.Game(id)
	if game == nil || len(game.files) == 0 {
		return ""
	}
	if f := c.File(game.files[0]); f != nil {
		return f.identity()
	}
	return ""
}
