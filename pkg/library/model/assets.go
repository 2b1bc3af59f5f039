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

package model

import (
	"slices"
	"sort"
	"strings"
)

// AssetType identifies the role of an image, video or audio file attached to
// a game or a collection.
type AssetType int

const (
	AssetUnknown AssetType = iota
	AssetBoxFront
	AssetBoxBack
	AssetBoxSpine
	AssetBoxFull
	AssetCartridge
	AssetLogo
	AssetMarquee
	AssetBezel
	AssetPanel
	AssetCabinetLeft
	AssetCabinetRight
	AssetTile
	AssetBanner
	AssetSteamGrid
	AssetPoster
	AssetBackground
	AssetMusic
	AssetScreenshot
	AssetVideo
	AssetTitlescreen
)

var assetTypeNames = map[AssetType]string{
	AssetBoxFront:     "boxFront",
	AssetBoxBack:      "boxBack",
	AssetBoxSpine:     "boxSpine",
	AssetBoxFull:      "boxFull",
	AssetCartridge:    "cartridge",
	AssetLogo:         "logo",
	AssetMarquee:      "marquee",
	AssetBezel:        "bezel",
	AssetPanel:        "panel",
	AssetCabinetLeft:  "cabinetLeft",
	AssetCabinetRight: "cabinetRight",
	AssetTile:         "tile",
	AssetBanner:       "banner",
	AssetSteamGrid:    "steam",
	AssetPoster:       "poster",
	AssetBackground:   "background",
	AssetMusic:        "music",
	AssetScreenshot:   "screenshot",
	AssetVideo:        "video",
	AssetTitlescreen:  "titlescreen",
}

func (t AssetType) String() string {
	if name, ok := assetTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets Assets encode as an object keyed by asset name.
func (t AssetType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// assetAliases lists every name accepted in metafiles and media directories.
var assetAliases = map[string]AssetType{
	"boxfront":  AssetBoxFront,
	"box_front": AssetBoxFront,
	"boxart2d":  AssetBoxFront,

	"boxback":  AssetBoxBack,
	"box_back": AssetBoxBack,

	"boxspine":  AssetBoxSpine,
	"box_spine": AssetBoxSpine,
	"boxside":   AssetBoxSpine,
	"box_side":  AssetBoxSpine,

	"boxfull":  AssetBoxFull,
	"box_full": AssetBoxFull,
	"box":      AssetBoxFull,

	"cartridge": AssetCartridge,
	"disc":      AssetCartridge,
	"cart":      AssetCartridge,

	"logo":          AssetLogo,
	"wheel":         AssetLogo,
	"marquee":       AssetMarquee,
	"bezel":         AssetBezel,
	"screenmarquee": AssetBezel,
	"border":        AssetBezel,
	"panel":         AssetPanel,

	"cabinetleft":   AssetCabinetLeft,
	"cabinet_left":  AssetCabinetLeft,
	"cabinetright":  AssetCabinetRight,
	"cabinet_right": AssetCabinetRight,

	"tile":      AssetTile,
	"banner":    AssetBanner,
	"steam":     AssetSteamGrid,
	"steamgrid": AssetSteamGrid,
	"grid":      AssetSteamGrid,
	"poster":    AssetPoster,
	"flyer":     AssetPoster,

	"background":  AssetBackground,
	"music":       AssetMusic,
	"screenshot":  AssetScreenshot,
	"screenshots": AssetScreenshot,
	"video":       AssetVideo,
	"videos":      AssetVideo,
	"titlescreen": AssetTitlescreen,
}

// aliasesByLength is used for prefix lookups, longest alias first so that
// "boxfront2" resolves to the box front and not to the full box.
var aliasesByLength = func() []string {
	out := make([]string, 0, len(assetAliases))
	for alias := range assetAliases {
		out = append(out, alias)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// AssetTypeFromName resolves an asset name such as "boxFront", "wheel" or
// "screenshot03". Matching is case-insensitive; when no alias matches exactly
// the longest alias that prefixes the name is used.
func AssetTypeFromName(name string) AssetType {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return AssetUnknown
	}
	if t, ok := assetAliases[key]; ok {
		return t
	}
	for _, alias := range aliasesByLength {
		if strings.HasPrefix(key, alias) {
			return assetAliases[alias]
		}
	}
	return AssetUnknown
}

var (
	imageExts = []string{"png", "jpg", "jpeg", "webp", "gif", "bmp", "apng", "svg", "tga"}
	videoExts = []string{"mp4", "webm", "avi", "mkv", "mov", "m4v", "ogv"}
	audioExts = []string{"mp3", "ogg", "wav", "flac", "opus", "m4a"}
)

// AllowedExtensions returns the lowercase file extensions, without the dot,
// that can be used for the given asset type.
func AllowedExtensions(t AssetType) []string {
	switch t {
	case AssetUnknown:
		return nil
	case AssetVideo:
		return videoExts
	case AssetMusic:
		return audioExts
	default:
		return imageExts
	}
}

// ExtensionAllowed reports whether ext (with or without a leading dot) can be
// used for the asset type.
func ExtensionAllowed(t AssetType, ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return slices.Contains(AllowedExtensions(t), ext)
}

// Assets maps asset types to an ordered, duplicate free list of URIs.
type Assets map[AssetType][]string

// Add appends uri to the list of t unless it's already there.
func (a Assets) Add(t AssetType, uri string) {
	if t == AssetUnknown || uri == "" {
		return
	}
	if slices.Contains(a[t], uri) {
		return
	}
	a[t] = append(a[t], uri)
}

// SetSingle replaces the first entry of t, keeping the rest of the list.
func (a Assets) SetSingle(t AssetType, uri string) {
	if t == AssetUnknown || uri == "" {
		return
	}
	list := a[t]
	if len(list) == 0 {
		a[t] = []string{uri}
		return
	}
	idx := slices.Index(list, uri)
	if idx > 0 {
		list = slices.Delete(list, idx, idx+1)
	}
	list[0] = uri
	a[t] = list
}

// Single returns the first URI of t, or an empty string.
func (a Assets) Single(t AssetType) string {
	if list := a[t]; len(list) > 0 {
		return list[0]
	}
	return ""
}

// Merge adds every entry of other that's missing from a.
func (a Assets) Merge(other Assets) {
	for t, list := range other {
		for _, uri := range list {
			a.Add(t, uri)
		}
	}
}

// Clone returns a deep copy.
func (a Assets) Clone() Assets {
	out := make(Assets, len(a))
	for t, list := range a {
		out[t] = slices.Clone(list)
	}
	return out
}
