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

package filter

import (
	"regexp"
	"slices"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0o600))
	}
	return fs
}

func TestAccepts_IncludeExtensionExcludeFile(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/games/a.rom", "/games/b.rom", "/games/c.txt")
	f := New("NES", "/games")
	f.Include.Extensions = []string{"rom"}
	f.Exclude.Files = []string{"a.rom"}

	tests := []struct {
		path     string
		expected bool
	}{
		{path: "/games/b.rom", expected: true},
		{path: "/games/a.rom", expected: false},
		{path: "/games/c.txt", expected: false},
		{path: "/games/missing.rom", expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Accepts(fs, tt.path, f))
		})
	}
}

func TestMatcher_ExcludeFirst(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/games/Game (Beta).rom", "/games/Game.rom", "/games/Game.ROM.bak")
	f := New("NES", "/games")
	f.Include.Extensions = []string{"rom"}
	f.Include.Regex = regexp.MustCompile(`\.bak$`)
	f.Exclude.Regex = regexp.MustCompile(`(?i)\(beta\)`)
	m := NewMatcher(fs, f)

	assert.False(t, m.Accepts("/games/Game (Beta).rom"))
	assert.True(t, m.Accepts("/games/Game.rom"))
	assert.True(t, m.Accepts("/games/Game.ROM.bak"))
	assert.True(t, m.Excluded("/games/Game (Beta).rom"))
}

func TestMatcher_EmptyRegexIgnored(t *testing.T) {
	t.Parallel()

	f := New("NES", "/games")
	f.Include.Extensions = []string{"rom"}
	f.Exclude.Regex = regexp.MustCompile(``)
	m := NewMatcher(afero.NewMemMapFs(), f)

	assert.True(t, m.Accepts("/games/a.rom"))
}

func TestFilter_Tidy(t *testing.T) {
	t.Parallel()

	f := &Filter{
		Directories: []string{"/a", "/a", "/b"},
		Include:     Group{Extensions: []string{".ROM", "rom", " nes ", ""}},
		Exclude:     Group{Files: []string{"x", "x"}},
	}
	f.Tidy()

	assert.Equal(t, []string{"/a", "/b"}, f.Directories)
	assert.Equal(t, []string{"rom", "nes"}, f.Include.Extensions)
	assert.Equal(t, []string{"x"}, f.Exclude.Files)
}

func TestFilter_Scan(t *testing.T) {
	t.Parallel()

	fs := newFs(t,
		"/games/a.rom",
		"/games/b.rom",
		"/games/c.txt",
		"/games/extra/e.bin",
		"/games/media/x.rom",
		"/games/.media/y.rom",
		"/games/sub/d.rom",
		"/games/sub/media/z.rom",
	)
	f := New("NES", "/games")
	f.Include.Extensions = []string{"rom"}
	f.Include.Files = []string{"extra/e.bin", "./extra/e.bin", "nope.bin"}
	f.Exclude.Files = []string{"a.rom"}

	var got []string
	require.NoError(t, f.Scan(fs, func(path string) {
		got = append(got, path)
	}))

	assert.Equal(t, []string{
		"/games/extra/e.bin",
		"/games/b.rom",
		"/games/sub/d.rom",
		"/games/sub/media/z.rom",
	}, got)
}

func TestFilter_ScanMultipleDirectories(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/one/a.rom", "/two/b.rom", "/two/shared.bin")
	f := &Filter{
		Collection:  "Mixed",
		Directories: []string{"/one", "/two", "/one"},
		Include:     Group{Extensions: []string{"rom"}, Files: []string{"shared.bin"}},
	}
	f.Tidy()

	var got []string
	require.NoError(t, f.Scan(fs, func(path string) { got = append(got, path) }))
	assert.Equal(t, []string{"/two/shared.bin", "/one/a.rom", "/two/b.rom"}, got)
}

func TestFilter_ScanNoIncludeMatchesNothing(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/games/a.rom")
	f := New("NES", "/games")
	called := false
	require.NoError(t, f.Scan(fs, func(string) { called = true }))
	assert.False(t, called)
}

func TestFilter_ScanMissingDirectory(t *testing.T) {
	t.Parallel()

	f := New("NES", "/nowhere")
	f.Include.Extensions = []string{"rom"}
	err := f.Scan(afero.NewMemMapFs(), func(string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory path not found")
}

func TestMatcher_ExtensionProperty(t *testing.T) {
	t.Parallel()

	exts := []string{"rom", "nes", "sfc", "txt", "zip"}
	rapid.Check(t, func(t *rapid.T) {
		include := rapid.SliceOfDistinct(rapid.SampledFrom(exts), rapid.ID[string]).Draw(t, "include")
		exclude := rapid.SliceOfDistinct(rapid.SampledFrom(exts), rapid.ID[string]).Draw(t, "exclude")
		ext := rapid.SampledFrom(exts).Draw(t, "ext")
		name := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "name")

		f := New("C", "/games")
		f.Include.Extensions = include
		f.Exclude.Extensions = exclude
		m := NewMatcher(afero.NewMemMapFs(), f)

		want := slices.Contains(include, ext) && !slices.Contains(exclude, ext)
		if got := m.Accepts("/games/" + name + "." + ext); got != want {
			t.Fatalf("Accepts(%s.%s) = %v, want %v", name, ext, got, want)
		}
	})
}
