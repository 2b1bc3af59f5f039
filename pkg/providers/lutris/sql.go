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
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type gameRow struct {
	slug string
	name string
	id   int64
}

func sqlHasTable(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		`select name from sqlite_master where type = 'table' and name = ?;`, table,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return true, nil
}

func sqlHasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`select count(*) from pragma_table_info(?) where name = ?;`, table, column,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to look up column %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

// sqlInstalledGames returns the installed games of pga.db. Databases
// without a games table hold no games. Old databases without the installed
// column list every game.
func sqlInstalledGames(ctx context.Context, db *sql.DB) ([]gameRow, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to open lutris database: %w", err)
	}

	ok, err := sqlHasTable(ctx, db, "games")
	if err != nil || !ok {
		return nil, err
	}
	installed, err := sqlHasColumn(ctx, db, "games", "installed")
	if err != nil {
		return nil, err
	}

	query := `select id, slug, name from games where installed = 1 order by id;`
	if !installed {
		query = `select id, slug, name from games order by id;`
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lutris games: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()

	var out []gameRow
	for rows.Next() {
		var (
			row  gameRow
			slug sql.NullString
			name sql.NullString
		)
		if err := rows.Scan(&row.id, &slug, &name); err != nil {
			return out, fmt.Errorf("failed to scan lutris game: %w", err)
		}
		row.slug = slug.String
		row.name = name.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("failed to iterate lutris games: %w", err)
	}
	return out, nil
}
