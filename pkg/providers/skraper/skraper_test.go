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


package skraper

import (
	"context"
	"testing"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	testhelpers "github.com/ZaparooProject/zaparoo-library/pkg/testing/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addGame(t *testing.T, sctx *search.Context, coll search.CollectionID, path string) search.GameID {
	t.Helper()
	id := sctx.CreateGameFor(coll)
	_, ok := sctx.GameAddFilepath(id, path)
	require.True(t, ok)
	return id
}

func TestRun_AttachesAssets(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	h.MustWriteFiles(t, map[string]string{
		"/roms/snes/Zelda.sfc":                                  "x",
		"/roms/snes/hacks/Metroid.smc":                          "x",
		"/roms/snes/skraper/box2dfront/Zelda.png":               "x",
		"/roms/snes/skraper/supporttexture/Zelda.jpg":           "x",
		"/roms/snes/skraper/wheel/Zelda.png":                    "x",
		"/roms/snes/skraper/wheel/Zelda.txt":                    "x",
		"/roms/snes/skraper/videos/Zelda.mp4":                   "x",
		"/roms/snes/skraper/fanart/Unknown.png":                 "x",
		"/roms/snes/media/screenshot/hacks/Metroid.png":         "x",
		"/roms/snes/media/screenshottitle/hacks/Metroid.png":    "x",
		"/roms/snes/media/steamgrid/Zelda.png":                  "x",
		"/roms/snes/media/screenmarqueesmall/hacks/Metroid.png": "x",
	})
	sctx := search.New(search.Options{Fs: h.Fs})
	t.Cleanup(sctx.CloseDownloads)

	coll := sctx.GetOrCreateCollection("SNES")
	zelda := addGame(t, sctx, coll, "/roms/snes/Zelda.sfc")
	metroid := addGame(t, sctx, coll, "/roms/snes/hacks/Metroid.smc")
	sctx.AddGameRootDir("/roms/snes")

	var last float64
	require.NoError(t, New().Run(context.Background(), sctx, func(v float64) { last = v }))
	assert.InDelta(t, 1.0, last, 1e-9)

	zeldaAssets := sctx.Game(zelda).Assets
	assert.Equal(t, []string{
		"file:///roms/snes/skraper/box2dfront/Zelda.png",
		"file:///roms/snes/skraper/supporttexture/Zelda.jpg",
	}, zeldaAssets[model.AssetBoxFront])
	assert.Equal(t, []string{"file:///roms/snes/skraper/wheel/Zelda.png"}, zeldaAssets[model.AssetLogo])
	assert.Equal(t, []string{"file:///roms/snes/skraper/videos/Zelda.mp4"}, zeldaAssets[model.AssetVideo])
	assert.Equal(t, "file:///roms/snes/media/steamgrid/Zelda.png", zeldaAssets.Single(model.AssetSteamGrid))
	assert.Empty(t, zeldaAssets[model.AssetBackground])

	metroidAssets := sctx.Game(metroid).Assets
	assert.Equal(t, []string{
		"file:///roms/snes/media/screenshot/hacks/Metroid.png",
		"file:///roms/snes/media/screenshottitle/hacks/Metroid.png",
	}, metroidAssets[model.AssetScreenshot])
	assert.Equal(t, "file:///roms/snes/media/screenmarqueesmall/hacks/Metroid.png",
		metroidAssets.Single(model.AssetMarquee))
}

func TestRun_NoMediaDirs(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	h.MustWriteFiles(t, map[string]string{"/roms/nes/SMB.nes": "x"})
	sctx := search.New(search.Options{Fs: h.Fs})
	t.Cleanup(sctx.CloseDownloads)

	game := addGame(t, sctx, sctx.GetOrCreateCollection("NES"), "/roms/nes/SMB.nes")
	sctx.AddGameRootDir("/roms/nes")

	require.NoError(t, New().Run(context.Background(), sctx, func(float64) {}))
	assert.Empty(t, sctx.Game(game).Assets)
}

func TestRun_NoRootDirs(t *testing.T) {
	t.Parallel()

	sctx := search.New(search.Options{Fs: testhelpers.NewMemoryFS().Fs})
	t.Cleanup(sctx.CloseDownloads)

	err := New().Run(context.Background(), sctx, func(float64) {})
	require.ErrorIs(t, err, providers.ErrSourceNotFound)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	h.MustWriteFiles(t, map[string]string{"/roms/nes/skraper/wheel/SMB.png": "x"})
	sctx := search.New(search.Options{Fs: h.Fs})
	t.Cleanup(sctx.CloseDownloads)
	sctx.AddGameRootDir("/roms/nes")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, New().Run(ctx, sctx, func(float64) {}), context.Canceled)
}
