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

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/ZaparooProject/zaparoo-library/pkg/config"
	"github.com/ZaparooProject/zaparoo-library/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/manager"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/es2"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/favorites"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/gog"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/logiqx"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/lutris"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/media"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/pegasus"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/playtime"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/skraper"
	"github.com/ZaparooProject/zaparoo-library/pkg/providers/steam"
	"github.com/ZaparooProject/zaparoo-library/pkg/shared/httpclient"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ProviderFactory creates one provider from the config.
type ProviderFactory func(cfg *config.Instance) (providers.Provider, error)

// DefaultFactories maps every provider ID to its constructor.
var DefaultFactories = map[string]ProviderFactory{
	config.ProviderPegasusMetadata: func(cfg *config.Instance) (providers.Provider, error) {
		return pegasus.NewFromConfig(cfg), nil
	},
	config.ProviderES2: func(cfg *config.Instance) (providers.Provider, error) {
		return es2.NewFromConfig(cfg), nil
	},
	config.ProviderSteam: func(cfg *config.Instance) (providers.Provider, error) {
		return steam.NewFromConfig(cfg), nil
	},
	config.ProviderGOG: func(cfg *config.Instance) (providers.Provider, error) {
		return gog.NewFromConfig(cfg), nil
	},
	config.ProviderLutris: func(cfg *config.Instance) (providers.Provider, error) {
		return lutris.NewFromConfig(cfg), nil
	},
	config.ProviderLogiqx: func(cfg *config.Instance) (providers.Provider, error) {
		return logiqx.NewFromConfig(cfg), nil
	},
	config.ProviderPegasusMedia: func(*config.Instance) (providers.Provider, error) {
		return media.New(), nil
	},
	config.ProviderSkraper: func(*config.Instance) (providers.Provider, error) {
		return skraper.New(), nil
	},
	config.ProviderPegasusPlaytime: func(*config.Instance) (providers.Provider, error) {
		p, err := playtime.OpenDefault()
		if err != nil {
			return nil, fmt.Errorf("failed to open play time database: %w", err)
		}
		return p, nil
	},
	config.ProviderPegasusFavorites: func(*config.Instance) (providers.Provider, error) {
		return favorites.NewDefault(afero.NewOsFs()), nil
	},
}

// BuildProviders creates the enabled providers in the fixed run order. A
// provider that fails to start is logged and left out.
func BuildProviders(cfg *config.Instance, factories map[string]ProviderFactory) []providers.Provider {
	var out []providers.Provider
	for _, id := range config.ProviderOrder {
		if !cfg.ProviderEnabled(id) {
			log.Info().Str("provider", id).Msg("provider disabled")
			continue
		}
		factory, ok := factories[id]
		if !ok {
			continue
		}
		p, err := factory(cfg)
		if err != nil {
			log.Warn().Err(err).Str("provider", id).Msg("provider could not be started, skipped")
			continue
		}
		out = append(out, p)
	}
	return out
}

// SearchOptions builds the per-scan options from the config. Builds with the
// deadlock tag also panic on identity conflicts.
func SearchOptions(cfg *config.Instance) search.Options {
	return search.Options{
		Fs:          afero.NewOsFs(),
		Fetcher:     httpclient.NewClientFromConfig(cfg),
		SortLocale:  cfg.SortLocale(),
		Timeout:     cfg.DownloadsTimeout(),
		Concurrency: cfg.DownloadsConcurrency(),
		RateLimit:   cfg.DownloadsRateLimit(),
		Strict:      syncutil.DeadlockEnabled,
	}
}

// RunScan starts a scan and blocks until its result is published. Progress
// is printed to progressOut when it is not nil.
func RunScan(ctx context.Context, mgr *manager.Manager, progressOut io.Writer) (search.Result, error) {
	// values left over from the previous scan
drain:
	for {
		select {
		case <-mgr.Progress():
		default:
			break drain
		}
	}

	if err := mgr.Run(ctx); err != nil {
		return search.Result{}, fmt.Errorf("failed to start scan: %w", err)
	}
	for {
		select {
		case v := <-mgr.Progress():
			if progressOut != nil {
				_, _ = fmt.Fprintf(progressOut, "\rscanning... %3.0f%%", v*100)
			}
		case res := <-mgr.Finished():
			if progressOut != nil {
				_, _ = fmt.Fprintln(progressOut)
			}
			return res, nil
		}
	}
}
