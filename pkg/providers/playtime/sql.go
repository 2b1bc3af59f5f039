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
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Stats are the play statistics of one identity.
type Stats struct {
	LastPlayed time.Time
	PlayTime   time.Duration
	PlayCount  int
}

type play struct {
	start    time.Time
	identity string
	duration time.Duration
}

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run play time migrations: %w", err)
	}
	return nil
}

func sqlPlayStats(ctx context.Context, db *sql.DB) (map[string]Stats, error) {
	rows, err := db.QueryContext(ctx, `
		select paths.path,
			count(plays.id),
			coalesce(sum(max(plays.duration, 0)), 0),
			max(plays.start_time + plays.duration)
		from plays
		inner join paths on plays.path_id = paths.id
		group by paths.path;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query play stats: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()

	out := make(map[string]Stats)
	for rows.Next() {
		var (
			path     string
			count    int
			seconds  int64
			lastSecs int64
		)
		if err := rows.Scan(&path, &count, &seconds, &lastSecs); err != nil {
			return nil, fmt.Errorf("failed to scan play stats: %w", err)
		}
		out[path] = Stats{
			PlayCount:  count,
			PlayTime:   time.Duration(seconds) * time.Second,
			LastPlayed: time.Unix(lastSecs, 0),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate play stats: %w", err)
	}
	return out, nil
}

// sqlPathID returns the id of path, inserting it when missing.
func sqlPathID(ctx context.Context, tx *sql.Tx, path string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `select id from paths where path = ?;`, path).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up path: %w", err)
	}

	res, err := tx.ExecContext(ctx, `insert into paths(path) values (?);`, path)
	if err != nil {
		return 0, fmt.Errorf("failed to insert path: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get path id: %w", err)
	}
	return id, nil
}

// sqlAddPlays appends every play in one transaction. Plays are never
// updated in place.
func sqlAddPlays(ctx context.Context, db *sql.DB, plays []play) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("failed to roll back play time transaction")
		}
	}()

	for _, p := range plays {
		pathID, err := sqlPathID(ctx, tx, p.identity)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`insert into plays(path_id, start_time, duration) values (?, ?, ?);`,
			pathID, p.start.Unix(), int64(p.duration/time.Second),
		)
		if err != nil {
			return fmt.Errorf("failed to insert play: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plays: %w", err)
	}
	return nil
}
