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

package steam

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/adrg/xdg"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// FlatpakSteamID is the Flatpak app ID for Steam.
const FlatpakSteamID = "com.valvesoftware.Steam"

const manifestGlob = "steamapps/appmanifest_*.acf"

func flatpakDataDir() string {
	return filepath.Join(helpers.HomeDir(), ".var", "app", FlatpakSteamID, "data", "Steam")
}

// dataDirCandidates lists the possible Steam installs in lookup order.
// Configured directories come first.
func dataDirCandidates(goos string, overrides []string) []string {
	out := make([]string, 0, len(overrides)+4)
	for _, dir := range overrides {
		out = append(out, helpers.ExpandHome(dir))
	}
	home := helpers.HomeDir()
	switch goos {
	case "windows":
		out = append(out, `C:\Program Files (x86)\Steam`)
	case "darwin":
		out = append(out, filepath.Join(home, "Library", "Application Support", "Steam"))
	default:
		out = append(out,
			filepath.Join(xdg.DataHome, "Steam"),
			filepath.Join(home, ".steam", "steam"),
			flatpakDataDir(),
		)
	}
	return out
}

// findDataDir returns the first candidate holding a steamapps directory.
func findDataDir(afs afero.Fs, candidates []string) (string, bool) {
	for _, dir := range candidates {
		if helpers.DirExists(afs, filepath.Join(dir, "steamapps")) {
			return dir, true
		}
	}
	return "", false
}

// steamCall is the command prefix that opens steam:// links for the install
// at dataDir.
func steamCall(goos, dataDir string) string {
	switch {
	case goos == "darwin":
		return "open -a Steam --args"
	case goos == "linux" && filepath.Clean(dataDir) == filepath.Clean(flatpakDataDir()):
		return "flatpak run " + FlatpakSteamID
	default:
		return "steam"
	}
}

// libraryDirs returns dataDir followed by the extra library folders listed
// in libraryfolders.vdf. Both the current format, where every entry is a
// block with a "path" key, and the legacy one, where numbered keys map
// straight to paths, are understood.
func libraryDirs(afs afero.Fs, logger *zerolog.Logger, dataDir string) []string {
	dirs := []string{filepath.Clean(dataDir)}
	seen := map[string]struct{}{dirs[0]: {}}

	path := filepath.Join(dataDir, "steamapps", "libraryfolders.vdf")
	if !helpers.FileExists(afs, path) {
		return dirs
	}
	m, err := readVDF(afs, path)
	if err != nil {
		logger.Warn().Err(err).Str("file", path).Msg("could not read library folders")
		return dirs
	}
	folders, ok := m["libraryfolders"].(map[string]any)
	if !ok {
		logger.Warn().Str("file", path).Msg("libraryfolders is not a map")
		return dirs
	}

	keys := make([]string, 0, len(folders))
	for k := range folders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var dir string
		switch v := folders[k].(type) {
		case map[string]any:
			dir, _ = v["path"].(string)
		case string:
			if strings.Trim(k, "0123456789") == "" {
				dir = v
			}
		}
		if dir == "" {
			continue
		}
		dir = filepath.Clean(strings.ReplaceAll(dir, `\\`, `\`))
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

type manifest struct {
	appID string
	name  string
}

// findManifests globs the app manifests of a library folder.
func findManifests(afs afero.Fs, libraryDir string) ([]string, error) {
	if !helpers.DirExists(afs, filepath.Join(libraryDir, "steamapps")) {
		return nil, nil
	}
	return globUnder(afs, libraryDir, manifestGlob)
}

// globUnder matches pattern below dir and returns the sorted full paths.
func globUnder(afs afero.Fs, dir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(afs, dir)), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to match %s: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

func readManifest(afs afero.Fs, path string) (manifest, error) {
	m, err := readVDF(afs, path)
	if err != nil {
		return manifest{}, err
	}
	state, ok := m["appstate"].(map[string]any)
	if !ok {
		return manifest{}, fmt.Errorf("appstate is not a map in %s", path)
	}
	id, _ := state["appid"].(string)
	id = strings.TrimSpace(id)
	if id == "" || strings.Trim(id, "0123456789") != "" {
		return manifest{}, fmt.Errorf("missing or invalid appid in %s", path)
	}
	name, _ := state["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "App #" + id
	}
	return manifest{appID: id, name: name}, nil
}
