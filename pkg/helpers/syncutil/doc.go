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


// Package syncutil provides the mutexes shared by the library. The config
// instance, the favorites writer, the play time store, the regex cache and
// the migration runner lock through it.
//
// Building with -tags=deadlock swaps in go-deadlock, which reports lock
// cycles and locks held longer than 30 seconds. The same tag makes
// cli.SearchOptions run scans in strict mode, so a provider that registers a
// path or URI already owned by another game panics instead of logging.
package syncutil
