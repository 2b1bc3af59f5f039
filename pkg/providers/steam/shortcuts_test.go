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
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/jsoncache"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shortcutEntry struct {
	name   string
	icon   string
	tags   []string
	appID  uint32
	hidden bool
}

func cstr(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
}

func shortcutsVDF(entries ...shortcutEntry) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x00)
	cstr(&buf, "shortcuts")
	for i, e := range entries {
		buf.WriteByte(0x00)
		cstr(&buf, string(rune('0'+i)))

		buf.WriteByte(0x02)
		cstr(&buf, "appid")
		_ = binary.Write(&buf, binary.LittleEndian, e.appID)
		buf.WriteByte(0x01)
		cstr(&buf, "AppName")
		cstr(&buf, e.name)
		buf.WriteByte(0x01)
		cstr(&buf, "icon")
		cstr(&buf, e.icon)
		buf.WriteByte(0x02)
		cstr(&buf, "IsHidden")
		hidden := uint32(0)
		if e.hidden {
			hidden = 1
		}
		_ = binary.Write(&buf, binary.LittleEndian, hidden)

		buf.WriteByte(0x00)
		cstr(&buf, "tags")
		for j, tag := range e.tags {
			buf.WriteByte(0x01)
			cstr(&buf, string(rune('0'+j)))
			cstr(&buf, tag)
		}
		buf.WriteByte(0x08)

		buf.WriteByte(0x08)
	}
	buf.WriteByte(0x08)
	buf.WriteByte(0x08)
	return buf.Bytes()
}

func TestRun_Shortcuts(t *testing.T) {
	t.Parallel()

	fs := newSteamFs(t)
	files := map[string][]byte{
		"/steam/userdata/1234/config/shortcuts.vdf": shortcutsVDF(
			shortcutEntry{appID: 3000000000, name: "RetroArch", icon: "/icons/retroarch.png", tags: []string{"Emulator"}},
			shortcutEntry{appID: 3000000001, name: "Hidden", hidden: true},
		),
		"/steam/userdata/5678/config/shortcuts.vdf": []byte("not binary"),
		"/icons/retroarch.png":                      {1},
		"/steam/userdata/1234/config/grid/3000000000p.png": {1},
		"/steam/userdata/1234/config/grid/20_hero.jpg":     {1},
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, content, 0o600))
	}

	sctx, buf := newScan(t, fs, nil)
	p := New(Options{Dirs: []string{"/steam"}, GOOS: "linux"})
	require.NoError(t, p.Run(context.Background(), sctx, func(float64) {}))

	res := sctx.Finalize()
	require.Len(t, res.Games, 4)

	ra := gameByURI(t, res, "steam:12884901888033554432")
	assert.Equal(t, "RetroArch", ra.Title)
	assert.Equal(t, "steam steam://rungameid/12884901888033554432", ra.LaunchCmd)
	assert.Equal(t, []string{"Emulator"}, ra.Tags)
	assert.Equal(t, "file:///icons/retroarch.png", ra.Assets.Single(model.AssetTile))
	assert.Equal(t, "file:///steam/userdata/1234/config/grid/3000000000p.png", ra.Assets.Single(model.AssetBoxFront))

	tf := gameByURI(t, res, "steam:20")
	assert.Equal(t, "file:///steam/userdata/1234/config/grid/20_hero.jpg", tf.Assets.Single(model.AssetBackground))

	assert.Contains(t, buf.String(), "could not read steam shortcuts")
}

func TestRun_CustomArtworkBeatsStoreImages(t *testing.T) {
	t.Parallel()

	fs := newSteamFs(t)
	require.NoError(t, afero.WriteFile(fs, "/cache/steam/10.json", []byte(counterStrike), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/steam/userdata/1/config/grid/10p.png", []byte{1}, 0o600))

	sctx, _ := newScan(t, fs, nil)
	p := New(Options{Cache: jsoncache.New(fs, "/cache"), Dirs: []string{"/steam"}, GOOS: "linux"})
	require.NoError(t, p.Run(context.Background(), sctx, func(float64) {}))

	cs := gameByURI(t, sctx.Finalize(), "steam:10")
	assert.Equal(t, "file:///steam/userdata/1/config/grid/10p.png", cs.Assets.Single(model.AssetBoxFront))
	assert.Equal(t, "https://cdn.example/bg.jpg", cs.Assets.Single(model.AssetBackground))
}
