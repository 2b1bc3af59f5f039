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

// Package metafile reads the line oriented "key: value" metadata format.
package metafile

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	MsgValueMissing = "attribute value missing, entry ignored"
	MsgNoAttribute  = "line starts with whitespace, but no attribute has been defined yet"
	MsgInvalidLine  = "line invalid, skipped"
	emptyLineMark   = "."
	maxLineLength   = 1024 * 1024
	utf8BOM         = "\ufeff"
)

var keyValRe = regexp.MustCompile(`^([^:]+):(.*)$`)

// Entry is one attribute. An empty string in Values stands for an empty line
// of a multiline value.
type Entry struct {
	Key    string
	Values []string
	Line   int
}

// Error is a malformed line. Reading continues after it.
type Error struct {
	Message string
	Line    int
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Read parses r, calling onEntry for every complete attribute and onError for
// every malformed line.
func Read(r io.Reader, onEntry func(Entry), onError func(Error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var entry Entry
	closeEntry := func() {
		if entry.Key != "" {
			if len(entry.Values) == 0 {
				onError(Error{Line: entry.Line, Message: MsgValueMissing})
			} else {
				onEntry(entry)
			}
		}
		entry = Entry{}
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}

		if strings.HasPrefix(line, "#") {
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			closeEntry()
			continue
		}

		if r, _ := utf8.DecodeRuneInString(line); unicode.IsSpace(r) {
			if entry.Key == "" {
				onError(Error{Line: lineNum, Message: MsgNoAttribute})
				continue
			}
			if trimmed == emptyLineMark {
				entry.Values = append(entry.Values, "")
			} else {
				entry.Values = append(entry.Values, trimmed)
			}
			continue
		}

		closeEntry()

		match := keyValRe.FindStringSubmatch(trimmed)
		if match == nil {
			onError(Error{Line: lineNum, Message: MsgInvalidLine})
			continue
		}
		entry.Key = strings.ToLower(strings.TrimSpace(match[1]))
		entry.Line = lineNum
		if value := strings.TrimSpace(match[2]); value != "" {
			entry.Values = append(entry.Values, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read metafile: %w", err)
	}

	closeEntry()
	return nil
}

// ReadFile opens path on fs and reads it with Read.
func ReadFile(fs afero.Fs, path string, onEntry func(Entry), onError func(Error)) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open metafile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", path).Msg("error closing metafile")
		}
	}()
	return Read(f, onEntry, onError)
}

// MergeLines joins the lines of a multiline value with single spaces. Empty
// lines become paragraph breaks.
func MergeLines(lines []string) string {
	var sb strings.Builder
	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n\n")
			continue
		}
		if !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte(' ')
		}
		sb.WriteString(line)
	}
	return strings.TrimSpace(sb.String())
}
