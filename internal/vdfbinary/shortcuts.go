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

package vdfbinary

import (
	"errors"
	"io"
	"sort"
	"strconv"
)

// Shortcut is a non-Steam game added to the Steam client.
type Shortcut struct {
	AppName       string
	Exe           string
	StartDir      string
	Icon          string
	LaunchOptions string
	Tags          []string
	AppID         uint32
	Hidden        bool
}

// GameID is the 64-bit ID that steam://rungameid/ expects for a shortcut.
func (s *Shortcut) GameID() uint64 {
	return uint64(s.AppID)<<32 | 0x02000000
}

// indexed returns the values of an array-like map in index order.
// Non-numeric keys are ignored.
func indexed(m Map) []any {
	type entry struct {
		v any
		i int
	}
	entries := make([]entry, 0, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		entries = append(entries, entry{v: v, i: i})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].i < entries[b].i })
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.v)
	}
	return out
}

// ParseShortcuts reads a shortcuts.vdf file. Entries without an app ID or a
// name are skipped. Tags, icon, launch options and the hidden flag are
// optional, tools like EmuDeck often leave them out.
func ParseShortcuts(r io.Reader) ([]Shortcut, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}
	list, ok := root.Map("shortcuts")
	if !ok {
		return nil, errors.New("no shortcuts key in vdf")
	}

	out := make([]Shortcut, 0, len(list))
	for _, v := range indexed(list) {
		entry, ok := v.(Map)
		if !ok {
			continue
		}
		appID, ok := entry.Uint("appid")
		if !ok {
			continue
		}
		name, _ := entry.String("AppName")
		if name == "" {
			continue
		}

		s := Shortcut{AppID: appID, AppName: name, Hidden: entry.Bool("IsHidden")}
		s.Exe, _ = entry.String("Exe")
		s.StartDir, _ = entry.String("StartDir")
		s.Icon, _ = entry.String("icon")
		s.LaunchOptions, _ = entry.String("LaunchOptions")
		if tags, ok := entry.Map("tags"); ok {
			for _, t := range indexed(tags) {
				if ts, ok := t.(string); ok && ts != "" {
					s.Tags = append(s.Tags, ts)
				}
			}
		}
		out = append(out, s)
	}
	return out, nil
}
