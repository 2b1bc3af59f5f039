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

package lutris

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	testsqlmock "github.com/ZaparooProject/zaparoo-library/pkg/testing/sqlmock"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScan(t *testing.T, fs afero.Fs) (*search.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)
	sctx := search.New(search.Options{Fs: fs, Logger: &logger})
	t.Cleanup(sctx.CloseDownloads)
	return sctx, buf
}

func TestRun_SQLiteDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFileName))
	require.NoError(t, err)
	_, err = db.Exec(`
		create table games (id integer primary key, slug text, name text, installed integer);
		insert into games values (1, 'quake', 'Quake', 1);
		insert into games values (2, 'doom', 'Doom', 0);
		insert into games values (3, 'hexen', 'Hexen', 1);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	icons := filepath.Join(dir, "icons")
	for _, path := range []string{
		filepath.Join(dir, "banners", "quake.jpg"),
		filepath.Join(dir, "coverart", "quake.png"),
		filepath.Join(icons, "lutris_hexen.png"),
	} {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("img"), 0o600))
	}

	sctx, _ := newScan(t, afero.NewOsFs())
	p := New(Options{Dirs: []string{dir}, IconsDir: icons})
	var last float64
	require.NoError(t, p.Run(context.Background(), sctx, func(v float64) { last = v }))
	assert.InDelta(t, 1.0, last, 1e-9)

	res := sctx.Finalize()
	require.Len(t, res.Collections, 1)
	assert.Equal(t, CollectionName, res.Collections[0].Name)
	require.Len(t, res.Games, 2)

	byURI := map[string]*model.Game{}
	for _, g := range res.Games {
		byURI[g.Identity()] = g
	}
	quake := byURI["lutris:quake"]
	require.NotNil(t, quake)
	assert.Equal(t, "Quake", quake.Title)
	assert.Equal(t, "lutris lutris:rungameid/1", quake.LaunchCmd)
	assert.Equal(t, helpers.FileURL(filepath.Join(dir, "banners", "quake.jpg")), quake.Assets.Single(model.AssetSteamGrid))
	assert.Equal(t, helpers.FileURL(filepath.Join(dir, "coverart", "quake.png")), quake.Assets.Single(model.AssetBoxFront))

	hexen := byURI["lutris:hexen"]
	require.NotNil(t, hexen)
	assert.Equal(t, helpers.FileURL(filepath.Join(icons, "lutris_hexen.png")), hexen.Assets.Single(model.AssetTile))
	assert.Empty(t, hexen.Assets.Single(model.AssetSteamGrid))
}

func TestRun_MockDatabase(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/lutris/pga.db", nil, 0o600))

	db, mock, err := testsqlmock.NewSQLMockWithPing()
	require.NoError(t, err)
	expectSchema(mock, true, true)
	mock.ExpectQuery(`from games where installed = 1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name"}).
			AddRow(7, "", "No Slug").
			AddRow(8, "heretic", ""))
	mock.ExpectClose()

	var opened string
	p := New(Options{
		Dirs:     []string{"/lutris"},
		IconsDir: "/icons",
		Open: func(path string) (*sql.DB, error) {
			opened = path
			return db, nil
		},
	})
	sctx, buf := newScan(t, fs)
	require.NoError(t, p.Run(context.Background(), sctx, func(float64) {}))
	assert.Equal(t, filepath.Join("/lutris", dbFileName), opened)
	assert.Contains(t, buf.String(), "lutris game has no slug")
	require.NoError(t, mock.ExpectationsWereMet())

	res := sctx.Finalize()
	require.Len(t, res.Games, 1)
	assert.Equal(t, "heretic", res.Games[0].Title)
}

func TestRun_NoDatabase(t *testing.T) {
	t.Parallel()

	sctx, _ := newScan(t, afero.NewMemMapFs())
	p := New(Options{Dirs: []string{"/lutris"}, Open: func(string) (*sql.DB, error) {
		t.Fatal("database must not be opened")
		return nil, nil
	}})
	err := p.Run(context.Background(), sctx, func(float64) {})
	require.ErrorIs(t, err, providers.ErrSourceNotFound)
}
