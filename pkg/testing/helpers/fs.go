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

// Package helpers holds filesystem fixtures shared by provider tests.
package helpers

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
)

// FSHelper builds game library fixtures on an afero filesystem.
type FSHelper struct {
	Fs afero.Fs
}

func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOSFS roots the helper on the real filesystem, for tests that need
// symlinks or sqlite files.
func NewOSFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewOsFs(),
	}
}

// WriteFile creates path with content, creating parent directories.
func (h *FSHelper) WriteFile(path, content string) error {
	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(h.Fs, path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// WriteFiles writes every path to content pair, in lexical path order.
func (h *FSHelper) WriteFiles(files map[string]string) error {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := h.WriteFile(p, files[p]); err != nil {
			return err
		}
	}
	return nil
}

// MustWriteFiles is WriteFiles that fails the test on error.
func (h *FSHelper) MustWriteFiles(t testing.TB, files map[string]string) {
	t.Helper()
	if err := h.WriteFiles(files); err != nil {
		t.Fatal(err)
	}
}

// CreateDirectoryStructure creates nested directories and files. A string or
// []byte value is a file, a map is a directory and nil is an empty directory.
func (h *FSHelper) CreateDirectoryStructure(basePath string, structure map[string]any) error {
	for name, content := range structure {
		fullPath := filepath.Join(basePath, name)

		switch v := content.(type) {
		case string:
			if err := h.WriteFile(fullPath, v); err != nil {
				return err
			}
		case []byte:
			if err := h.WriteFile(fullPath, string(v)); err != nil {
				return err
			}
		case map[string]any:
			if err := h.Fs.MkdirAll(fullPath, 0o750); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
			}
			if err := h.CreateDirectoryStructure(fullPath, v); err != nil {
				return err
			}
		case nil:
			if err := h.Fs.MkdirAll(fullPath, 0o750); err != nil {
				return fmt.Errorf("failed to create empty directory %s: %w", fullPath, err)
			}
		default:
			return fmt.Errorf("unsupported fixture type %T for %s", content, fullPath)
		}
	}
	return nil
}

// CreateGameLibrary lays out a small two-system library with a metafile and
// media folders below basePath.
func (h *FSHelper) CreateGameLibrary(basePath string) error {
	return h.CreateDirectoryStructure(basePath, map[string]any{
		"nes": map[string]any{
			"metadata.pegasus.txt": "collection: Nintendo Entertainment System\n" +
				"shortname: nes\n" +
				"extensions: nes\n" +
				"launch: fceux {file.path}\n\n" +
				"game: Super Mario Bros.\n" +
				"file: Super Mario Bros.nes\n" +
				"developer: Nintendo\n" +
				"release: 1985-09-13\n",
			"Super Mario Bros.nes": "rom",
			"Zelda.nes":            "rom",
			"media": map[string]any{
				"Zelda": map[string]any{
					"boxFront.png": "png",
				},
			},
		},
		"snes": map[string]any{
			"metadata.txt": "collection: Super Nintendo\nextension: sfc\n",
			"F-Zero.sfc":   "rom",
		},
	})
}

// FileExists reports whether path exists.
func (h *FSHelper) FileExists(path string) bool {
	exists, err := afero.Exists(h.Fs, path)
	return err == nil && exists
}

func (h *FSHelper) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(h.Fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return string(data), nil
}

// ListFiles returns the names of the entries of a directory.
func (h *FSHelper) ListFiles(path string) ([]string, error) {
	entries, err := afero.ReadDir(h.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// RemoveAll deletes path, ignoring a missing path.
func (h *FSHelper) RemoveAll(path string) error {
	if err := h.Fs.RemoveAll(path); err != nil && !errors.Is(err, afero.ErrFileNotFound) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
