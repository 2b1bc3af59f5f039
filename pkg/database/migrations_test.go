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

package database

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	migrations := fstest.MapFS{
		"migrations/20260101000000_init.sql": &fstest.MapFile{Data: []byte(
			"-- +goose Up\nCREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT NOT NULL);\n" +
				"-- +goose Down\nDROP TABLE things;\n",
		)},
	}

	require.NoError(t, MigrateUp(db, migrations, "migrations"))
	// applying twice is a no-op
	require.NoError(t, MigrateUp(db, migrations, "migrations"))

	_, err = db.Exec("INSERT INTO things (name) VALUES ('a')")
	require.NoError(t, err)

	v, err := Version(db)
	require.NoError(t, err)
	assert.Equal(t, int64(20260101000000), v)
}
