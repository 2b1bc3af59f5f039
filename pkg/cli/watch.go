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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is how long the watched paths must stay quiet before a
// rescan starts.
const DefaultDebounce = 2 * time.Second

// WatchPaths returns the existing directories whose contents feed a scan.
func WatchPaths(cfg *config.Instance) []string {
	candidates := []string{filepath.Join(helpers.ConfigDir(), config.MetafilesDir)}
	candidates = append(candidates, cfg.GameDirs()...)
	candidates = append(candidates, cfg.LogiqxDirs()...)
	for _, f := range cfg.ES2SystemsFiles() {
		candidates = append(candidates, filepath.Dir(helpers.ExpandHome(f)))
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = filepath.Clean(helpers.ExpandHome(c))
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			out = append(out, c)
		}
	}
	return out
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return nil
}

// Watch calls onChange each time the files below paths change and then stay
// unchanged for the debounce period. It returns when ctx is done. A failing
// onChange is logged and watching continues.
func Watch(
	ctx context.Context,
	clock clockwork.Clock,
	paths []string,
	debounce time.Duration,
	onChange func(context.Context) error,
) error {
	if len(paths) == 0 {
		return errors.New("no paths to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close watcher")
		}
	}()

	for _, p := range paths {
		if err := addRecursive(w, p); err != nil {
			return err
		}
	}
	log.Info().Strs("paths", paths).Msg("watching for changes")

	changed := make(chan struct{}, 1)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
					continue
				}
				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := addRecursive(w, ev.Name); err != nil {
							log.Warn().Err(err).Msg("failed to watch new directory")
						}
					}
				}
				log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change detected")
				select {
				case changed <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				log.Warn().Err(err).Msg("watcher error")
			}
		}
	})

	g.Go(func() error {
		var timer clockwork.Timer
		var fire <-chan time.Time
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-changed:
				if timer != nil {
					timer.Stop()
				}
				timer = clock.NewTimer(debounce)
				fire = timer.Chan()
			case <-fire:
				timer = nil
				fire = nil
				log.Info().Msg("changes settled, rescanning")
				if err := onChange(gctx); err != nil {
					if gctx.Err() != nil {
						return nil
					}
					log.Error().Err(err).Msg("rescan failed")
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
