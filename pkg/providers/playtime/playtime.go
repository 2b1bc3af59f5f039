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


// Package playtime records finished play sessions in a sqlite database and
// loads the per file statistics during a scan.
package playtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/database"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

var ErrNullSQL = errors.New("play time database is not connected")

// Provider owns the database. Sessions are appended by a writer goroutine
// which takes every session queued since its last batch.
type Provider struct {
	db      *sql.DB
	ctx     context.Context
	cancel  context.CancelFunc
	wake    chan struct{}
	stop    chan struct{}
	pending []play
	wg      sync.WaitGroup
	mu      syncutil.Mutex
	once    sync.Once
	closed  bool
}

// Open opens or creates the database at path and migrates it.
func Open(path string) (*Provider, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}
	db, err := sql.Open("sqlite3", path+database.SqliteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	p, err := NewWithDB(db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close database")
		}
		return nil, err
	}
	return p, nil
}

// OpenDefault opens the database in the data directory.
func OpenDefault() (*Provider, error) {
	return Open(filepath.Join(helpers.DataDir(), config.StatsDbFile))
}

// NewWithDB migrates db and starts the writer goroutine. The provider takes
// ownership of db.
func NewWithDB(db *sql.DB) (*Provider, error) {
	if db == nil {
		return nil, ErrNullSQL
	}
	if err := sqlMigrateUp(db); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Provider{
		db:     db,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.writer()
	return p, nil
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:    config.ProviderPegasusPlaytime,
		Name:  "Play time",
		Flags: providers.FlagInternal | providers.FlagHideProgress,
	}
}

// Run sets the statistics of every file with recorded plays. Game totals
// are summed from the files when the scan is finalized.
func (p *Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	if p.db == nil {
		return ErrNullSQL
	}
	stats, err := sqlPlayStats(ctx, p.db)
	if err != nil {
		return err
	}

	matched := 0
	for identity, st := range stats {
		fid, ok := sctx.FileByIdentity(identity)
		if !ok {
			continue
		}
		f := sctx.File(fid)
		f.PlayCount = st.PlayCount
		f.PlayTime = st.PlayTime
		f.LastPlayed = st.LastPlayed
		matched++
	}

	sctx.Logger().Debug().Int("files", matched).Int("recorded", len(stats)).Msg("play time loaded")
	progress(1)
	return nil
}

// GameFinished queues a play session of file.
func (p *Provider) GameFinished(file *model.GameFile, start time.Time, duration time.Duration) {
	if file == nil || file.Identity() == "" {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		log.Warn().Str("identity", file.Identity()).Msg("play session after close, not saved")
		return
	}
	p.pending = append(p.pending, play{
		identity: file.Identity(),
		start:    start,
		duration: max(duration, 0),
	})
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Close writes the queued sessions, stops the writer and closes the
// database.
func (p *Provider) Close() error {
	var err error
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.stop)
		p.wg.Wait()
		p.cancel()
		if closeErr := p.db.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close database: %w", closeErr)
		}
	})
	return err
}

func (p *Provider) writer() {
	defer p.wg.Done()
	for {
		select {
		case <-p.wake:
			p.flush()
		case <-p.stop:
			p.flush()
			return
		}
	}
}

func (p *Provider) flush() {
	for {
		p.mu.Lock()
		batch := p.pending
		p.pending = nil
		p.mu.Unlock()
		if len(batch) == 0 {
			return
		}

		if err := sqlAddPlays(p.ctx, p.db, batch); err != nil {
			log.Warn().Err(err).Int("plays", len(batch)).Msg("play time not saved")
		}
	}
}
