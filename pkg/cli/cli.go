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

// Package cli holds the flag handling and setup shared by the command line
// tools of the library.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers"
	"github.com/rs/zerolog"
)

const (
	FormatSummary = "summary"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatCSV     = "csv"
)

var formats = []string{FormatSummary, FormatJSON, FormatYAML, FormatCSV}

// dirList is a repeatable string flag.
type dirList []string

func (d *dirList) String() string {
	return strings.Join(*d, ",")
}

func (d *dirList) Set(value string) error {
	if value == "" {
		return errors.New("empty directory")
	}
	*d = append(*d, value)
	return nil
}

type Flags struct {
	Format  *string
	Out     *string
	Watch   *bool
	Version *bool
	Dirs    dirList
	set     *flag.FlagSet
}

// SetupFlags defines the scan flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		Format: fs.String(
			"format",
			FormatSummary,
			"output format: "+strings.Join(formats, ", "),
		),
		Out: fs.String(
			"out",
			"",
			"write the output to this file instead of stdout",
		),
		Watch: fs.Bool(
			"watch",
			false,
			"rescan when game directories or metafiles change",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		set: fs,
	}
	fs.Var(&f.Dirs, "dir", "extra game directory, can be repeated")
	return f
}

// Parse parses args and validates the flag values.
func (f *Flags) Parse(args []string) error {
	if err := f.set.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	for _, format := range formats {
		if *f.Format == format {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q", *f.Format)
}

// VersionString is printed by -version.
func VersionString() string {
	return fmt.Sprintf("Zaparoo Library v%s", config.AppVersion)
}

// Setup creates the library directories, starts logging and loads the user
// config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaults config.Values, writers []io.Writer) (*config.Instance, error) {
	if err := helpers.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	if err := helpers.InitLogging(helpers.DataDir(), writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return cfg, nil
}
