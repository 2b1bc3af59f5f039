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

// Package providers defines the contract between data sources and the scan
// orchestrator.
package providers

import (
	"context"
	"errors"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
)

// ErrSourceNotFound is returned, possibly wrapped, by providers whose backing
// application or directory is not installed. It is logged at info level and
// is not a failure.
var ErrSourceNotFound = errors.New("source not found")

type Flags uint8

const (
	// FlagInternal marks providers backed by the library's own files rather
	// than a third party application.
	FlagInternal Flags = 1 << iota
	// FlagHideProgress excludes the provider from the progress weights.
	FlagHideProgress
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

type Info struct {
	ID    string
	Name  string
	Flags Flags
}

// ProgressFunc reports the provider's own progress in the 0..1 range.
type ProgressFunc func(progress float64)

// Provider discovers games and collections into the search context. Run is
// called on the orchestrator goroutine and must not block on the network,
// downloads go through search.Context.ScheduleDownload.
type Provider interface {
	Info() Info
	Run(ctx context.Context, sctx *search.Context, progress ProgressFunc) error
}

// LaunchHook is implemented by providers that track game launches.
type LaunchHook interface {
	GameLaunched(file *model.GameFile)
}

// FinishHook is implemented by providers that record finished sessions.
type FinishHook interface {
	GameFinished(file *model.GameFile, start time.Time, duration time.Duration)
}

// FavoritesHook is implemented by providers that persist favorites.
type FavoritesHook interface {
	FavoritesChanged(games []*model.Game)
}

// Closer is implemented by providers holding files or databases open.
type Closer interface {
	Close() error
}
