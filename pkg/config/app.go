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

package config

import "time"

// AppVersion is overridden at build time with -ldflags.
var AppVersion = "DEVELOPMENT"

const (
	AppName          = "zaparoo-library"
	LogFile          = "library.log"
	CfgFile          = "library.toml"
	CfgEnv           = "ZAPAROO_LIBRARY_CFG"
	FavoritesFile    = "favorites.txt"
	StatsDbFile      = "stats.db"
	MetafilesDir     = "metafiles"
	DefaultTimeout   = 10 * time.Second
	DefaultSortLang  = "en"
	DefaultUserAgent = "ZaparooLibrary/1.0"
)
