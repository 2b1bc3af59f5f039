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
	"fmt"
	"regexp"

	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
)

// RegexCache holds compiled filter expressions. Metafiles commonly repeat the
// same regex across collections, and watch mode rescans re-read them all.
type RegexCache struct {
	cache map[string]*regexp.Regexp
	mu    syncutil.RWMutex
}

var globalRegexCache = NewRegexCache()

func NewRegexCache() *RegexCache {
	return &RegexCache{
		cache: make(map[string]*regexp.Regexp),
	}
}

// Compile returns the cached expression for pattern, compiling it on first
// use. Invalid patterns are not cached.
func (rc *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	rc.mu.RLock()
	re, ok := rc.cache[pattern]
	rc.mu.RUnlock()
	if ok {
		return re, nil
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if re, ok := rc.cache[pattern]; ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression %q: %w", pattern, err)
	}
	rc.cache[pattern] = re
	return re, nil
}

// MustCompile is Compile for patterns known at build time.
func (rc *RegexCache) MustCompile(pattern string) *regexp.Regexp {
	re, err := rc.Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

func (rc *RegexCache) Size() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.cache)
}

func CachedCompile(pattern string) (*regexp.Regexp, error) {
	return globalRegexCache.Compile(pattern)
}

func CachedMustCompile(pattern string) *regexp.Regexp {
	return globalRegexCache.MustCompile(pattern)
}
