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


// Package favorites keeps the favorite flag of games in a plain text file,
// one identity per line.
package favorites

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const fileHeader = "# List of favorites, one path per line"

// Provider reads favorites during a scan and rewrites the file on a
// background goroutine when they change. Changes arriving while a write is
// running replace each other, only the latest list is written next.
type Provider struct {
	fs      afero.Fs
	wake    chan struct{}
	stop    chan struct{}
	path    string
	pending []string
	wg      sync.WaitGroup
	mu      syncutil.Mutex
	once    sync.Once
	queued  bool
	closed  bool
}

// New starts the writer goroutine. Close must be called to stop it.
func New(afs afero.Fs, path string) *Provider {
	p := &Provider{
		fs:   afs,
		path: path,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.writer()
	return p
}

// NewDefault stores favorites in the config directory.
func NewDefault(afs afero.Fs) *Provider {
	return New(afs, filepath.Join(helpers.ConfigDir(), config.FavoritesFile))
}

func (*Provider) Info() providers.Info {
	return providers.Info{
		ID:    config.ProviderPegasusFavorites,
		Name:  "Favorites",
		Flags: providers.FlagInternal | providers.FlagHideProgress,
	}
}

func (p *Provider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	data, err := afero.ReadFile(p.fs, p.path)
	if errors.Is(err, fs.ErrNotExist) {
		progress(1)
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to read favorites: %w", err)
	}

	marked := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("reading favorites: %w", err)
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, ok := sctx.GameByIdentity(line)
		if !ok {
			continue
		}
		sctx.Game(id).Favorite = true
		marked++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to parse favorites: %w", err)
	}

	sctx.Logger().Debug().Int("favorites", marked).Msg("favorites loaded")
	progress(1)
	return nil
}

// FavoritesChanged queues a rewrite of the file with every favorite among
// games.
func (p *Provider) FavoritesChanged(games []*model.Game) {
	lines := []string{fileHeader}
	for _, g := range games {
		if g.Favorite && g.Identity() != "" {
			lines = append(lines, g.Identity())
		}
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		log.Warn().Msg("favorites changed after close, not saved")
		return
	}
	p.pending = lines
	p.queued = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Close writes the queued list, if any, and stops the writer.
func (p *Provider) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.stop)
	})
	p.wg.Wait()
	return nil
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
		if !p.queued {
			p.mu.Unlock()
			return
		}
		lines := p.pending
		p.pending = nil
		p.queued = false
		p.mu.Unlock()

		if err := p.write(lines); err != nil {
			log.Warn().Err(err).Str("path", p.path).Msg("favorites not saved")
		}
	}
}

func (p *Provider) write(lines []string) error {
	if err := p.fs.MkdirAll(filepath.Dir(p.path), 0o750); err != nil {
		return fmt.Errorf("failed to create favorites directory: %w", err)
	}
	data := strings.Join(lines, "\n") + "\n"
	if err := afero.WriteFile(p.fs, p.path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	return nil
}
