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

// Package filter selects game files from disk with include and exclude rule
// groups. Exclusion is always checked first.
package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Group is one side of a filter. Files may be relative to the filter's
// directories until the filter is resolved.
type Group struct {
	Regex      *regexp.Regexp
	Extensions []string
	Files      []string
}

func (g *Group) empty() bool {
	return len(g.Extensions) == 0 && len(g.Files) == 0 && !hasRegex(g.Regex)
}

// Filter selects files for one collection.
type Filter struct {
	Collection  string
	Directories []string
	Include     Group
	Exclude     Group
}

// New returns a filter for the collection with a single base directory.
func New(collection, baseDir string) *Filter {
	return &Filter{
		Collection:  collection,
		Directories: []string{baseDir},
	}
}

// Tidy normalizes the extension lists and removes duplicate entries.
func (f *Filter) Tidy() {
	f.Directories = dedup(f.Directories)
	f.Include.Extensions = normalizeExts(f.Include.Extensions)
	f.Exclude.Extensions = normalizeExts(f.Exclude.Extensions)
	f.Include.Files = dedup(f.Include.Files)
	f.Exclude.Files = dedup(f.Exclude.Files)
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return dedup(out)
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func hasRegex(re *regexp.Regexp) bool {
	return re != nil && re.String() != ""
}

// ResolveFiles resolves every entry of paths against every directory and
// returns the canonical paths of the ones that exist, without duplicates.
func ResolveFiles(afs afero.Fs, paths, dirs []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(paths))
	for _, dir := range dirs {
		for _, p := range paths {
			canon, err := helpers.CanonicalPath(afs, helpers.ResolveRelative(dir, p))
			if err != nil {
				continue
			}
			if _, ok := seen[canon]; ok {
				continue
			}
			seen[canon] = struct{}{}
			out = append(out, canon)
		}
	}
	return out
}

type compiledGroup struct {
	exts  map[string]struct{}
	files map[string]struct{}
	regex *regexp.Regexp
}

func compileGroup(g *Group, files []string) compiledGroup {
	cg := compiledGroup{
		exts:  make(map[string]struct{}, len(g.Extensions)),
		files: make(map[string]struct{}, len(files)),
		regex: g.Regex,
	}
	for _, ext := range normalizeExts(g.Extensions) {
		cg.exts[ext] = struct{}{}
	}
	for _, f := range files {
		cg.files[f] = struct{}{}
	}
	return cg
}

func (cg *compiledGroup) matches(path, ext string) bool {
	if _, ok := cg.exts[ext]; ok {
		return true
	}
	if _, ok := cg.files[path]; ok {
		return true
	}
	return hasRegex(cg.regex) && cg.regex.MatchString(path)
}

// Matcher is a filter with its file lists resolved to canonical paths.
type Matcher struct {
	include      compiledGroup
	exclude      compiledGroup
	includeFiles []string
}

// NewMatcher resolves the explicit file lists of f against its directories.
func NewMatcher(afs afero.Fs, f *Filter) *Matcher {
	return NewMatcherWithExcludes(afs, f, ResolveFiles(afs, f.Exclude.Files, f.Directories))
}

// NewMatcherWithExcludes is NewMatcher for callers that already resolved the
// exclude file list.
func NewMatcherWithExcludes(afs afero.Fs, f *Filter, excludeFiles []string) *Matcher {
	includeFiles := ResolveFiles(afs, f.Include.Files, f.Directories)
	return &Matcher{
		include:      compileGroup(&f.Include, includeFiles),
		exclude:      compileGroup(&f.Exclude, excludeFiles),
		includeFiles: includeFiles,
	}
}

// Excluded reports whether the canonical path is caught by the exclude group.
func (m *Matcher) Excluded(path string) bool {
	return m.exclude.matches(path, helpers.LowerExt(path))
}

// Accepts reports whether the canonical path passes the include group and is
// not excluded.
func (m *Matcher) Accepts(path string) bool {
	ext := helpers.LowerExt(path)
	if m.exclude.matches(path, ext) {
		return false
	}
	return m.include.matches(path, ext)
}

// Accepts canonicalizes path and checks it against f. Missing files are never
// accepted.
func Accepts(afs afero.Fs, path string, f *Filter) bool {
	canon, err := helpers.CanonicalPath(afs, path)
	if err != nil {
		return false
	}
	return NewMatcher(afs, f).Accepts(canon)
}

func isMediaDir(name string) bool {
	return name == "media" || name == ".media"
}

// Scan calls fn with the canonical path of every accepted file, each at most
// once. Explicitly listed files come first, then the directory contents in
// lexical order. The media folders directly below a directory are skipped.
func (f *Filter) Scan(afs afero.Fs, fn func(path string)) error {
	if f.Include.empty() {
		return nil
	}

	m := NewMatcher(afs, f)
	seen := make(map[string]struct{})
	report := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		fn(path)
	}

	for _, path := range m.includeFiles {
		if !m.Excluded(path) {
			report(path)
		}
	}

	var errs []error
	for _, dir := range f.Directories {
		if err := m.scanDir(afs, dir, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Matcher) scanDir(afs afero.Fs, dir string, report func(string)) error {
	root, err := helpers.CanonicalPath(afs, dir)
	if err != nil {
		return fmt.Errorf("directory path not found: %w", err)
	}
	entries, err := afero.ReadDir(afs, root)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", root, err)
	}

	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if !entry.IsDir() {
			m.check(afs, path, report)
			continue
		}
		if isMediaDir(entry.Name()) {
			continue
		}
		walkErr := afero.Walk(afs, path, func(p string, info fs.FileInfo, err error) error {
			if err != nil {
				log.Debug().Err(err).Str("path", p).Msg("skipping unreadable path")
				return nil
			}
			if !info.IsDir() {
				m.check(afs, p, report)
			}
			return nil
		})
		if walkErr != nil {
			return fmt.Errorf("failed to walk %s: %w", path, walkErr)
		}
	}
	return nil
}

func (m *Matcher) check(afs afero.Fs, path string, report func(string)) {
	canon, err := helpers.CanonicalPath(afs, path)
	if err != nil {
		return
	}
	if m.Accepts(canon) {
		report(canon)
	}
}
