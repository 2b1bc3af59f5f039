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

// Package jsoncache stores provider API responses as JSON files so later
// scans can skip the network.
package jsoncache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Cache is rooted at a directory and split into one sub directory per
// provider.
type Cache struct {
	fs   afero.Fs
	root string
}

func New(afs afero.Fs, root string) *Cache {
	return &Cache{fs: afs, root: root}
}

func (c *Cache) path(provider, entry string) string {
	return filepath.Join(c.root, provider, filepath.Base(entry)+".json")
}

// Read returns the stored entry. Entries that are not valid JSON are deleted
// and reported as missing.
func (c *Cache) Read(provider, entry string) (json.RawMessage, bool) {
	path := c.path(provider, entry)
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("failed to read cache entry")
		}
		return nil, false
	}

	if !json.Valid(data) {
		log.Warn().Str("path", path).Msg("cache entry is not valid JSON, deleting")
		c.Delete(provider, entry)
		return nil, false
	}
	return json.RawMessage(data), true
}

// Write stores data, replacing the entry atomically.
func (c *Cache) Write(provider, entry string, data []byte) error {
	if !json.Valid(data) {
		return errors.New("refusing to cache invalid JSON")
	}

	dir := filepath.Join(c.root, provider)
	if err := c.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := afero.TempFile(c.fs, dir, "."+filepath.Base(entry)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		if rmErr := c.fs.Remove(tmpName); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", tmpName).Msg("failed to remove temp file")
		}
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	if err := c.fs.Rename(tmpName, c.path(provider, entry)); err != nil {
		if rmErr := c.fs.Remove(tmpName); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", tmpName).Msg("failed to remove temp file")
		}
		return fmt.Errorf("failed to move cache entry into place: %w", err)
	}
	return nil
}

// Delete removes an entry. A missing entry is not an error.
func (c *Cache) Delete(provider, entry string) {
	path := c.path(provider, entry)
	if err := c.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("failed to delete cache entry")
	}
}
