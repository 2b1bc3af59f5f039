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

// Package vdfbinary reads Valve's binary KeyValues format, the encoding of
// Steam's shortcuts.vdf.
package vdfbinary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	typeMap    byte = 0x00
	typeString byte = 0x01
	typeInt32  byte = 0x02
	typeEnd    byte = 0x08

	maxDepth = 32
)

var (
	ErrEmpty     = errors.New("binary vdf is empty")
	ErrNotBinary = errors.New("not a binary vdf, is it a text vdf?")
	ErrTruncated = errors.New("binary vdf ends early, the file may be corrupt")
)

// Map is one node of the tree. Keys are lowercased. Values are Map, string
// or uint32.
type Map map[string]any

func (m Map) Map(key string) (Map, bool) {
	v, ok := m[strings.ToLower(key)].(Map)
	return v, ok
}

func (m Map) String(key string) (string, bool) {
	v, ok := m[strings.ToLower(key)].(string)
	return v, ok
}

func (m Map) Uint(key string) (uint32, bool) {
	v, ok := m[strings.ToLower(key)].(uint32)
	return v, ok
}

// Bool is true for a non-zero integer value.
func (m Map) Bool(key string) bool {
	v, ok := m.Uint(key)
	return ok && v != 0
}

// Parse reads a whole binary VDF document.
func Parse(r io.Reader) (Map, error) {
	br := bufio.NewReader(r)

	first, err := br.Peek(1)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vdf: %w", err)
	}
	switch first[0] {
	case typeMap, typeString, typeInt32, typeEnd:
	default:
		return nil, ErrNotBinary
	}

	m, err := parseMap(br, 0)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, ErrTruncated
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func parseMap(br *bufio.Reader, depth int) (Map, error) {
	if depth > maxDepth {
		return nil, errors.New("binary vdf is nested too deeply")
	}
	m := Map{}
	for {
		t, err := br.ReadByte()
		if err != nil {
			// some writers leave off the final end marker
			if depth == 0 && errors.Is(err, io.EOF) {
				return m, nil
			}
			return nil, fmt.Errorf("failed to read type: %w", err)
		}
		if t == typeEnd {
			return m, nil
		}

		key, err := readCString(br)
		if err != nil {
			return nil, err
		}

		var v any
		switch t {
		case typeMap:
			v, err = parseMap(br, depth+1)
		case typeString:
			v, err = readCString(br)
		case typeInt32:
			var n uint32
			err = binary.Read(br, binary.LittleEndian, &n)
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			v = n
		default:
			err = fmt.Errorf("unexpected type 0x%02x for key %q", t, key)
		}
		if err != nil {
			return nil, err
		}
		m[strings.ToLower(key)] = v
	}
}

func readCString(br *bufio.Reader) (string, error) {
	s, err := br.ReadString(0)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("failed to read string: %w", err)
	}
	return s[:len(s)-1], nil
}
