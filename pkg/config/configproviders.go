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

const (
	ProviderPegasusMetadata  = "pegasus_metadata"
	ProviderES2              = "es2"
	ProviderSteam            = "steam"
	ProviderGOG              = "gog"
	ProviderLutris           = "lutris"
	ProviderLogiqx           = "logiqx"
	ProviderPegasusMedia     = "pegasus_media"
	ProviderSkraper          = "skraper"
	ProviderPegasusPlaytime  = "pegasus_playtime"
	ProviderPegasusFavorites = "pegasus_favorites"
)

// ProviderOrder is the fixed run order. Providers that enrich existing games
// come after the ones that create them.
var ProviderOrder = []string{
	ProviderPegasusMetadata,
	ProviderES2,
	ProviderSteam,
	ProviderGOG,
	ProviderLutris,
	ProviderLogiqx,
	ProviderPegasusMedia,
	ProviderSkraper,
	ProviderPegasusPlaytime,
	ProviderPegasusFavorites,
}

type ProviderToggle struct {
	Enabled *bool `toml:"enabled,omitempty"`
}

type SteamProvider struct {
	Enabled          *bool    `toml:"enabled,omitempty"`
	DownloadMetadata *bool    `toml:"download_metadata,omitempty"`
	Dirs             []string `toml:"dirs,omitempty,multiline"`
}

// GOGProvider dirs replace the default "~/GOG Games" install root.
type GOGProvider struct {
	Enabled          *bool    `toml:"enabled,omitempty"`
	DownloadMetadata *bool    `toml:"download_metadata,omitempty"`
	Dirs             []string `toml:"dirs,omitempty,multiline"`
}

type ES2Provider struct {
	Enabled      *bool    `toml:"enabled,omitempty"`
	SystemsFiles []string `toml:"systems_files,omitempty,multiline"`
}

type DirsProvider struct {
	Enabled *bool    `toml:"enabled,omitempty"`
	Dirs    []string `toml:"dirs,omitempty,multiline"`
}

type Providers struct {
	Steam            SteamProvider  `toml:"steam,omitempty"`
	GOG              GOGProvider    `toml:"gog,omitempty"`
	ES2              ES2Provider    `toml:"es2,omitempty"`
	Lutris           DirsProvider   `toml:"lutris,omitempty"`
	Logiqx           DirsProvider   `toml:"logiqx,omitempty"`
	PegasusMetadata  ProviderToggle `toml:"pegasus_metadata,omitempty"`
	PegasusMedia     ProviderToggle `toml:"pegasus_media,omitempty"`
	Skraper          ProviderToggle `toml:"skraper,omitempty"`
	PegasusPlaytime  ProviderToggle `toml:"pegasus_playtime,omitempty"`
	PegasusFavorites ProviderToggle `toml:"pegasus_favorites,omitempty"`
}

func (p *Providers) enabledFlag(id string) **bool {
	switch id {
	case ProviderPegasusMetadata:
		return &p.PegasusMetadata.Enabled
	case ProviderES2:
		return &p.ES2.Enabled
	case ProviderSteam:
		return &p.Steam.Enabled
	case ProviderGOG:
		return &p.GOG.Enabled
	case ProviderLutris:
		return &p.Lutris.Enabled
	case ProviderLogiqx:
		return &p.Logiqx.Enabled
	case ProviderPegasusMedia:
		return &p.PegasusMedia.Enabled
	case ProviderSkraper:
		return &p.Skraper.Enabled
	case ProviderPegasusPlaytime:
		return &p.PegasusPlaytime.Enabled
	case ProviderPegasusFavorites:
		return &p.PegasusFavorites.Enabled
	default:
		return nil
	}
}

// ProviderEnabled reports whether the provider should run. Every known
// provider is enabled unless the config turns it off.
func (c *Instance) ProviderEnabled(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	flag := c.vals.Providers.enabledFlag(id)
	if flag == nil {
		return false
	}
	if *flag == nil {
		return true
	}
	return **flag
}

func (c *Instance) SetProviderEnabled(id string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if flag := c.vals.Providers.enabledFlag(id); flag != nil {
		*flag = &enabled
	}
}

func (c *Instance) SteamDirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Providers.Steam.Dirs...)
}

// SteamDownloadMetadata reports whether store metadata is fetched for
// installed Steam games. Defaults to true.
func (c *Instance) SteamDownloadMetadata() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Providers.Steam.DownloadMetadata == nil {
		return true
	}
	return *c.vals.Providers.Steam.DownloadMetadata
}

func (c *Instance) GOGDirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Providers.GOG.Dirs...)
}

// GOGDownloadMetadata reports whether product data is fetched from the GOG
// API. Defaults to true.
func (c *Instance) GOGDownloadMetadata() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Providers.GOG.DownloadMetadata == nil {
		return true
	}
	return *c.vals.Providers.GOG.DownloadMetadata
}

func (c *Instance) ES2SystemsFiles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Providers.ES2.SystemsFiles...)
}

func (c *Instance) LutrisDirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Providers.Lutris.Dirs...)
}

// LogiqxDirs returns extra DAT directories, searched along with the game
// directories.
func (c *Instance) LogiqxDirs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Providers.Logiqx.Dirs...)
}
