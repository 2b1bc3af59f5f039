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


package playtime

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// every connection would get its own empty in-memory database
	db.SetMaxOpenConns(1)
	return db
}

func TestPlaytime_RecordAndLoad(t *testing.T) {
	t.Parallel()

	p, err := NewWithDB(openMemory(t))
	require.NoError(t, err)

	start := time.Unix(1700000000, 0)
	rom := &model.GameFile{Path: "/games/a.rom"}
	p.GameFinished(rom, start, 10*time.Minute)
	p.GameFinished(rom, start.Add(time.Hour), 5*time.Minute)
	p.GameFinished(&model.GameFile{URI: "steam:420"}, start, -time.Minute)
	p.GameFinished(&model.GameFile{}, start, time.Minute)

	require.Eventually(t, func() bool {
		var n int
		err := p.db.QueryRow(`select count(*) from plays;`).Scan(&n)
		return err == nil && n == 3
	}, 5*time.Second, 10*time.Millisecond)

	sctx := search.New(search.Options{Fs: afero.NewMemMapFs()})
	t.Cleanup(sctx.CloseDownloads)
	coll := sctx.GetOrCreateCollection("Mixed")
	a := sctx.CreateGameFor(coll)
	fa, _ := sctx.GameAddFilepath(a, "/games/a.rom")
	b := sctx.CreateGameFor(coll)
	fb, _ := sctx.GameAddURI(b, "steam:420")
	c := sctx.CreateGameFor(coll)
	fc, _ := sctx.GameAddFilepath(c, "/games/never.rom")

	require.NoError(t, p.Run(context.Background(), sctx, func(float64) {}))

	assert.Equal(t, 2, sctx.File(fa).PlayCount)
	assert.Equal(t, 15*time.Minute, sctx.File(fa).PlayTime)
	assert.Equal(t, start.Add(time.Hour+5*time.Minute).Unix(), sctx.File(fa).LastPlayed.Unix())
	assert.Equal(t, 1, sctx.File(fb).PlayCount)
	assert.Equal(t, time.Duration(0), sctx.File(fb).PlayTime)
	assert.Zero(t, sctx.File(fc).PlayCount)

	res := sctx.Finalize()
	for _, g := range res.Games {
		if g.Identity() == "/games/a.rom" {
			assert.Equal(t, 2, g.PlayCount)
			assert.Equal(t, 15*time.Minute, g.PlayTime)
		}
	}

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestPlaytime_CloseFlushes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats.db")
	p, err := Open(path)
	require.NoError(t, err)
	for i := range 20 {
		p.GameFinished(&model.GameFile{Path: "/games/a.rom"}, time.Unix(int64(i), 0), time.Second)
	}
	require.NoError(t, p.Close())

	// sessions after close are dropped
	p.GameFinished(&model.GameFile{Path: "/games/a.rom"}, time.Unix(99, 0), time.Second)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	require.NoError(t, db.QueryRow(`select count(*) from plays;`).Scan(&n))
	assert.Equal(t, 20, n)
	var paths int
	require.NoError(t, db.QueryRow(`select count(*) from paths;`).Scan(&paths))
	assert.Equal(t, 1, paths)
}

func TestOpen_CreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "stats.db")
	p, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	p, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestNewWithDB_Nil(t *testing.T) {
	t.Parallel()

	_, err := NewWithDB(nil)
	require.ErrorIs(t, err, ErrNullSQL)
}
