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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-library/pkg/cli"
	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/manager"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func writeOutput(path, format string, res search.Result) (err error) {
	if path == "" {
		return cli.WriteResult(os.Stdout, format, res)
	}
	f, err := os.Create(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", closeErr)
		}
	}()
	return cli.WriteResult(f, format, res)
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *flags.Version {
		_, _ = fmt.Println(cli.VersionString())
		return nil
	}

	cfg, err := cli.Setup(
		config.BaseDefaults,
		[]io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}},
	)
	if err != nil {
		return err
	}

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	cfg.AddGameDirs(flags.Dirs...)

	list := cli.BuildProviders(cfg, cli.DefaultFactories)
	if len(list) == 0 {
		return errors.New("all providers are disabled")
	}
	mgr := manager.New(list, cli.SearchOptions(cfg))
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Error().Err(err).Msg("error closing providers")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scan := func(ctx context.Context) error {
		res, err := cli.RunScan(ctx, mgr, os.Stderr)
		mgr.Wait()
		if err != nil {
			return err
		}
		return writeOutput(*flags.Out, *flags.Format, res)
	}

	if err := scan(ctx); err != nil {
		return err
	}

	if !*flags.Watch {
		return nil
	}

	paths := cli.WatchPaths(cfg)
	if len(paths) == 0 {
		return errors.New("nothing to watch, no game directories exist")
	}
	return cli.Watch(ctx, clockwork.NewRealClock(), paths, cli.DefaultDebounce, scan)
}
