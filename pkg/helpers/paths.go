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

package helpers

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// ConfigDir returns the directory holding library.toml, favorites.txt and
// the global metafiles directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, config.AppName)
}

// DataDir returns the directory holding the play time database.
func DataDir() string {
	return filepath.Join(xdg.DataHome, config.AppName)
}

// CacheDir returns the root of the JSON response cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, config.AppName)
}

// EnsureDirectories creates the config, data and cache directories.
func EnsureDirectories() error {
	for _, dir := range []string{ConfigDir(), DataDir(), CacheDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// HomeDir returns the user's home directory, or an empty string.
func HomeDir() string {
	return xdg.Home
}

// ExpandHome replaces a leading "~" with the home directory.
func ExpandHome(path string) string {
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(HomeDir(), path[2:])
	}
	return path
}

// CanonicalPath returns the absolute, cleaned and symlink-resolved form of
// path. The path must exist. Symlinks are only resolved on the OS filesystem,
// in-memory filesystems used by tests have none.
func CanonicalPath(fs afero.Fs, path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	if _, ok := fs.(*afero.OsFs); ok {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		return resolved, nil
	}
	if _, err := fs.Stat(abs); err != nil {
		return "", fmt.Errorf("failed to stat path: %w", err)
	}
	return abs, nil
}

// ResolveRelative joins path onto dir unless path is already absolute.
func ResolveRelative(dir, path string) string {
	path = ExpandHome(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// FileExists reports whether path exists and is a regular file.
func FileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DirExists reports whether path exists and is a directory.
func DirExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && info.IsDir()
}

// PathWithoutExt strips the extension from the last path element.
func PathWithoutExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// LowerExt returns the lowercase extension of path without the leading dot.
func LowerExt(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// FileURL returns the file:// URL of an absolute path.
func FileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String()
}

// IsRemoteURL reports whether s is an http or https URL.
func IsRemoteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
