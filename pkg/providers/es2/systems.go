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

package es2

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const systemsFileName = "es_systems.cfg"

var listSeparatorRe = regexp.MustCompile(`[,\s]+`)

// system is one <system> entry of es_systems.cfg.
type system struct {
	Name      string `xml:"name"`
	FullName  string `xml:"fullname"`
	Path      string `xml:"path"`
	Extension string `xml:"extension"`
	Command   string `xml:"command"`
	Platform  string `xml:"platform"`
}

func (s *system) collectionName() string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Name
}

// extensions returns the lowercase file suffixes, each with a leading dot.
func (s *system) extensions() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, ext := range splitList(strings.ToLower(s.Extension)) {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (s *system) hasPlatform(names ...string) bool {
	for _, p := range splitList(strings.ToLower(s.Platform)) {
		for _, n := range names {
			if p == n {
				return true
			}
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range listSeparatorRe.Split(s, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizePath expands the home directory and turns Windows separators into
// forward slashes.
func normalizePath(path string) string {
	path = strings.ReplaceAll(strings.TrimSpace(path), `\`, "/")
	return filepath.Clean(helpers.ExpandHome(path))
}

var commandReplacer = strings.NewReplacer(
	`"%ROM%"`, `"{file.path}"`,
	`%ROM_RAW%`, `{file.path}`,
	`%ROM%`, `"{file.path}"`,
	`%BASENAME%`, `{file.basename}`,
)

// rewriteCommand turns an EmulationStation command into a launch command
// template.
func rewriteCommand(cmd string) string {
	return commandReplacer.Replace(strings.TrimSpace(cmd))
}

func systemsFileCandidates(overrides []string) []string {
	out := make([]string, 0, len(overrides)+2)
	for _, path := range overrides {
		out = append(out, helpers.ExpandHome(path))
	}
	return append(out,
		filepath.Join(helpers.HomeDir(), ".emulationstation", systemsFileName),
		filepath.Join("/etc", "emulationstation", systemsFileName),
	)
}

func findSystemsFile(afs afero.Fs, candidates []string) (string, bool) {
	for _, path := range candidates {
		if helpers.FileExists(afs, path) {
			return path, true
		}
	}
	return "", false
}

// readSystems returns the valid systems of the file. Entries missing a
// required field are reported and skipped.
func readSystems(afs afero.Fs, logger *zerolog.Logger, path string) ([]system, error) {
	f, err := afs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open systems file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", path).Msg("error closing systems file")
		}
	}()

	var out []system
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return out, fmt.Errorf("failed to parse systems file: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "system" {
			continue
		}

		line, _ := dec.InputPos()
		var sys system
		if err := dec.DecodeElement(&sys, &start); err != nil {
			return out, fmt.Errorf("failed to parse systems file: %w", err)
		}
		sys.Name = strings.TrimSpace(sys.Name)
		sys.FullName = strings.TrimSpace(sys.FullName)

		var missing []string
		for field, value := range map[string]string{
			"name":      sys.Name,
			"path":      sys.Path,
			"extension": sys.Extension,
			"command":   sys.Command,
		} {
			if strings.TrimSpace(value) == "" {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			logger.Warn().Str("file", path).Int("line", line).Strs("missing", missing).
				Msg("system entry is missing required fields, skipped")
			continue
		}

		sys.Path = normalizePath(sys.Path)
		out = append(out, sys)
	}
	return out, nil
}

// readMameBlacklist collects the names listed as <bios> or <device>
// elements in the MAME resource files next to the systems file.
func readMameBlacklist(afs afero.Fs, logger *zerolog.Logger, resourcesDir string) map[string]struct{} {
	out := make(map[string]struct{})
	for file, element := range map[string]string{
		"mamebioses.xml":  "bios",
		"mamedevices.xml": "device",
	} {
		path := filepath.Join(resourcesDir, file)
		data, err := afero.ReadFile(afs, path)
		if err != nil {
			continue
		}

		count := 0
		dec := xml.NewDecoder(bytes.NewReader(data))
		dec.Strict = false
		for {
			tok, err := dec.Token()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logger.Warn().Err(err).Str("file", path).Msg("could not fully read MAME list")
				}
				break
			}
			start, ok := tok.(xml.StartElement)
			if !ok || start.Name.Local != element {
				continue
			}
			var name string
			if err := dec.DecodeElement(&name, &start); err != nil {
				continue
			}
			if name = strings.TrimSpace(name); name != "" {
				out[name] = struct{}{}
				count++
			}
		}
		logger.Info().Str("file", path).Int("entries", count).Msg("loaded MAME list")
	}
	return out
}
