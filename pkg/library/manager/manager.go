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


// Package manager runs the enabled providers against a fresh search context,
// reports weighted progress and publishes the finalized result.
package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyRunning = errors.New("scan already running")

const progressBuffer = 8

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateWaitingOnNetwork
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateWaitingOnNetwork:
		return "waiting_on_network"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// Manager owns the provider list. Only one scan runs at a time; each scan
// gets its own search.Context built from the stored options.
type Manager struct {
	progress  chan float64
	finished  chan search.Result
	providers []providers.Provider
	opts      search.Options
	wg        sync.WaitGroup
	state     atomic.Int32
	// lastProgress and progressSent are only touched by the scan goroutine.
	lastProgress float64
	progressSent bool
}

// New creates a manager running providers in the given order. Every scan
// creates its search context from opts.
func New(list []providers.Provider, opts search.Options) *Manager {
	return &Manager{
		providers: list,
		opts:      opts,
		progress:  make(chan float64, progressBuffer),
		finished:  make(chan search.Result, 1),
	}
}

func (m *Manager) Providers() []providers.Provider {
	return m.providers
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// Progress delivers the overall scan progress in the 0..1 range. A slow
// reader loses the oldest values, never the latest.
func (m *Manager) Progress() <-chan float64 {
	return m.progress
}

// Finished delivers the result of every completed scan. An unread result is
// replaced by the next one.
func (m *Manager) Finished() <-chan search.Result {
	return m.finished
}

// Run starts a scan in the background. It returns ErrAlreadyRunning while a
// previous scan is still in progress.
func (m *Manager) Run(ctx context.Context) error {
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrAlreadyRunning
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.scan(ctx)
	}()
	return nil
}

// Wait blocks until the running scan, if any, has published its result.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) scan(ctx context.Context) {
	scanID := uuid.New().String()
	logger := log.With().Str("scan_id", scanID).Logger()
	started := time.Now()

	opts := m.opts
	opts.Logger = &logger
	sctx := search.New(opts)

	m.lastProgress = 0
	m.progressSent = false
	m.publishProgress(0)

	weights := progressWeights(m.providers)
	done := 0.0
	logger.Info().Int("providers", len(m.providers)).Msg("library scan started")

	for i, p := range m.providers {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("library scan cancelled")
			break
		}

		info := p.Info()
		weight := weights[i]
		base := done
		report := func(v float64) {
			m.publishProgress(base + clamp01(v)*weight)
		}

		providerStart := time.Now()
		err := p.Run(ctx, sctx, report)
		switch {
		case err == nil:
			logger.Debug().
				Str("provider", info.ID).
				Dur("took", time.Since(providerStart)).
				Msg("provider finished")
		case errors.Is(err, providers.ErrSourceNotFound):
			logger.Info().Err(err).Str("provider", info.ID).Msg("provider source not found, skipped")
		case errors.Is(err, context.Canceled):
			logger.Info().Str("provider", info.ID).Msg("provider cancelled")
		default:
			logger.Warn().Err(err).Str("provider", info.ID).Msg("provider failed")
		}

		if n := sctx.DrainDownloads(); n > 0 {
			logger.Debug().Int("delivered", n).Str("provider", info.ID).Msg("delivered downloads")
		}

		done += weight
		m.publishProgress(done)
	}

	m.publishProgress(1)

	if sctx.HasPendingDownloads() {
		m.state.Store(int32(StateWaitingOnNetwork))
		logger.Info().Int("pending", sctx.PendingDownloads()).Msg("waiting for downloads")
		if err := sctx.WaitDownloads(ctx, nil); err != nil {
			logger.Warn().Err(err).Msg("waiting for downloads interrupted")
		}
	}

	m.state.Store(int32(StateFinalizing))
	res := sctx.Finalize()
	logger.Info().
		Int("collections", len(res.Collections)).
		Int("games", len(res.Games)).
		Dur("took", time.Since(started)).
		Msg("library scan finished")

	m.state.Store(int32(StateIdle))
	m.publishResult(res)
}

// progressWeights gives every visible provider an equal share of the
// progress bar. Hidden providers get zero.
func progressWeights(list []providers.Provider) []float64 {
	weights := make([]float64, len(list))
	visible := 0
	for _, p := range list {
		if !p.Info().Flags.Has(providers.FlagHideProgress) {
			visible++
		}
	}
	if visible == 0 {
		return weights
	}
	for i, p := range list {
		if !p.Info().Flags.Has(providers.FlagHideProgress) {
			weights[i] = 1 / float64(visible)
		}
	}
	return weights
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// publishProgress sends v if it moves the progress forward. When
// the buffer is full the oldest value is discarded.
func (m *Manager) publishProgress(v float64) {
	v = clamp01(v)
	if m.progressSent && v <= m.lastProgress {
		return
	}
	m.lastProgress = v
	m.progressSent = true
	for {
		select {
		case m.progress <- v:
			return
		default:
			select {
			case <-m.progress:
			default:
			}
		}
	}
}

func (m *Manager) publishResult(res search.Result) {
	for {
		select {
		case m.finished <- res:
			return
		default:
			select {
			case <-m.finished:
			default:
			}
		}
	}
}

// GameLaunched forwards a launch to every provider tracking launches.
func (m *Manager) GameLaunched(file *model.GameFile) {
	for _, p := range m.providers {
		if h, ok := p.(providers.LaunchHook); ok {
			h.GameLaunched(file)
		}
	}
}

// GameFinished forwards a finished session to every provider recording
// play time.
func (m *Manager) GameFinished(file *model.GameFile, start time.Time, duration time.Duration) {
	for _, p := range m.providers {
		if h, ok := p.(providers.FinishHook); ok {
			h.GameFinished(file, start, duration)
		}
	}
}

// FavoritesChanged forwards the full favorites list to every provider
// persisting favorites.
func (m *Manager) FavoritesChanged(games []*model.Game) {
	for _, p := range m.providers {
		if h, ok := p.(providers.FavoritesHook); ok {
			h.FavoritesChanged(games)
		}
	}
}

// Close waits for a running scan and closes every provider holding
// resources. All close errors are returned joined.
func (m *Manager) Close() error {
	m.wg.Wait()
	var errs []error
	for _, p := range m.providers {
		c, ok := p.(providers.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Str("provider", p.Info().ID).Msg("error closing provider")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
