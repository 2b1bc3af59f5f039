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


package manager

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/providers"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	run      func(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error
	launched []*model.GameFile
	info     providers.Info
	closed   bool
}

func (p *fakeProvider) Info() providers.Info {
	return p.info
}

func (p *fakeProvider) Run(ctx context.Context, sctx *search.Context, progress providers.ProgressFunc) error {
	if p.run == nil {
		return nil
	}
	return p.run(ctx, sctx, progress)
}

type hookProvider struct {
	fakeProvider
}

func (p *hookProvider) GameLaunched(file *model.GameFile) {
	p.launched = append(p.launched, file)
}

func (p *hookProvider) Close() error {
	p.closed = true
	return nil
}

func newTestManager(list ...providers.Provider) *Manager {
	return New(list, search.Options{Fs: afero.NewMemMapFs()})
}

func runAndWait(t *testing.T, m *Manager) search.Result {
	t.Helper()
	require.NoError(t, m.Run(context.Background()))
	select {
	case res := <-m.Finished():
		m.Wait()
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not finish")
		return search.Result{}
	}
}

func drainProgress(m *Manager) []float64 {
	var out []float64
	for {
		select {
		case v := <-m.Progress():
			out = append(out, v)
		default:
			return out
		}
	}
}

func TestRun_TwoProvidersShareOneGame(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{
		info: providers.Info{ID: "a", Name: "A"},
		run: func(_ context.Context, sctx *search.Context, _ providers.ProgressFunc) error {
			coll := sctx.GetOrCreateCollection("NES")
			sctx.Collection(coll).CommonLaunchCmd = "emu {file.path}"
			game := sctx.CreateGameFor(coll)
			if _, ok := sctx.GameAddFilepath(game, "/games/mario.rom"); !ok {
				return errors.New("path rejected")
			}
			return nil
		},
	}
	b := &fakeProvider{
		info: providers.Info{ID: "b", Name: "B"},
		run: func(_ context.Context, sctx *search.Context, _ providers.ProgressFunc) error {
			game, ok := sctx.GameByFilepath("/games/mario.rom")
			if !ok {
				return errors.New("game from the first provider not found")
			}
			g := sctx.Game(game)
			if g.Assets == nil {
				g.Assets = model.Assets{}
			}
			g.Assets.Add(model.AssetBoxFront, "file:///games/media/mario/boxFront.png")
			return nil
		},
	}

	m := newTestManager(a, b)
	res := runAndWait(t, m)

	require.Len(t, res.Games, 1)
	game := res.Games[0]
	assert.Equal(t, "mario", game.Title)
	assert.Equal(t, "emu {file.path}", game.LaunchCmd)
	assert.Equal(t, "file:///games/media/mario/boxFront.png", game.Assets.Single(model.AssetBoxFront))
	require.Len(t, res.Collections, 1)
	assert.Equal(t, "NES", res.Collections[0].Name)
	assert.Equal(t, StateIdle, m.State())
}

func TestRun_ProgressIsMonotonicAndComplete(t *testing.T) {
	t.Parallel()

	stepping := func(steps int) func(context.Context, *search.Context, providers.ProgressFunc) error {
		return func(_ context.Context, _ *search.Context, progress providers.ProgressFunc) error {
			for i := 0; i <= steps; i++ {
				progress(float64(i) / float64(steps))
			}
			// going backwards must not be visible
			progress(0.1)
			return nil
		}
	}

	m := newTestManager(
		&fakeProvider{info: providers.Info{ID: "one"}, run: stepping(3)},
		&fakeProvider{info: providers.Info{ID: "hidden", Flags: providers.FlagHideProgress}, run: stepping(2)},
		&fakeProvider{info: providers.Info{ID: "two"}, run: stepping(4)},
	)

	var seen []float64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := range m.Progress() {
			seen = append(seen, v)
			if v == 1 {
				return
			}
		}
	}()

	runAndWait(t, m)
	<-done

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "progress went backwards at %d", i)
	}
	assert.InDelta(t, 1.0, seen[len(seen)-1], 0)
}

func TestRun_ProgressKeepsLatestForSlowReader(t *testing.T) {
	t.Parallel()

	m := newTestManager(&fakeProvider{
		info: providers.Info{ID: "busy"},
		run: func(_ context.Context, _ *search.Context, progress providers.ProgressFunc) error {
			for i := 1; i <= 100; i++ {
				progress(float64(i) / 100)
			}
			return nil
		},
	})

	runAndWait(t, m)
	seen := drainProgress(m)

	require.NotEmpty(t, seen)
	assert.LessOrEqual(t, len(seen), progressBuffer)
	assert.InDelta(t, 1.0, seen[len(seen)-1], 0)
}

func TestRun_AlreadyRunning(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	m := newTestManager(&fakeProvider{
		info: providers.Info{ID: "slow"},
		run: func(_ context.Context, _ *search.Context, _ providers.ProgressFunc) error {
			close(started)
			<-release
			return nil
		},
	})

	require.NoError(t, m.Run(context.Background()))
	<-started
	assert.Equal(t, StateRunning, m.State())
	require.ErrorIs(t, m.Run(context.Background()), ErrAlreadyRunning)

	close(release)
	<-m.Finished()
	m.Wait()
	assert.Equal(t, StateIdle, m.State())
}

func TestRun_ProviderErrorsDoNotStopScan(t *testing.T) {
	t.Parallel()

	var ran []string
	mk := func(id string, err error) *fakeProvider {
		return &fakeProvider{
			info: providers.Info{ID: id},
			run: func(_ context.Context, sctx *search.Context, _ providers.ProgressFunc) error {
				ran = append(ran, id)
				if err != nil {
					return err
				}
				game := sctx.CreateGameFor(sctx.GetOrCreateCollection("PC"))
				sctx.GameAddURI(game, "test:"+id)
				return nil
			},
		}
	}

	m := newTestManager(
		mk("missing", fmt.Errorf("no install dir: %w", providers.ErrSourceNotFound)),
		mk("broken", errors.New("parse failure")),
		mk("ok", nil),
	)
	res := runAndWait(t, m)

	assert.Equal(t, []string{"missing", "broken", "ok"}, ran)
	require.Len(t, res.Games, 1)
	assert.Equal(t, "test:ok", res.Games[0].Title)
}

func TestRun_WaitsForDownloads(t *testing.T) {
	t.Parallel()

	fetcher := fetchFunc(func(_ context.Context, url string) ([]byte, error) {
		return []byte("summary of " + url), nil
	})
	m := New([]providers.Provider{&fakeProvider{
		info: providers.Info{ID: "net"},
		run: func(_ context.Context, sctx *search.Context, _ providers.ProgressFunc) error {
			game := sctx.CreateGameFor(sctx.GetOrCreateCollection("Steam"))
			sctx.GameAddURI(game, "steam:1")
			sctx.ScheduleDownload("http://store/1", func(body []byte, err error) {
				if err == nil {
					sctx.Game(game).Summary = string(body)
				}
			})
			return nil
		},
	}}, search.Options{Fs: afero.NewMemMapFs(), Fetcher: fetcher})

	res := runAndWait(t, m)
	require.Len(t, res.Games, 1)
	assert.Equal(t, "summary of http://store/1", res.Games[0].Summary)
}

func TestRun_CancelledContextSkipsProviders(t *testing.T) {
	t.Parallel()

	called := false
	m := newTestManager(&fakeProvider{
		info: providers.Info{ID: "never"},
		run: func(context.Context, *search.Context, providers.ProgressFunc) error {
			called = true
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, m.Run(ctx))
	res := <-m.Finished()
	m.Wait()

	assert.False(t, called)
	assert.Empty(t, res.Games)
}

func TestHooksAndClose(t *testing.T) {
	t.Parallel()

	hooked := &hookProvider{fakeProvider{info: providers.Info{ID: "hooked"}}}
	plain := &fakeProvider{info: providers.Info{ID: "plain"}}
	m := newTestManager(plain, hooked)

	file := &model.GameFile{Path: "/games/mario.rom"}
	m.GameLaunched(file)
	m.GameFinished(file, time.Now(), time.Minute)
	m.FavoritesChanged(nil)

	assert.Equal(t, []*model.GameFile{file}, hooked.launched)
	assert.Empty(t, plain.launched)

	require.NoError(t, m.Close())
	assert.True(t, hooked.closed)
	assert.False(t, plain.closed)
}

func TestProgressWeights(t *testing.T) {
	t.Parallel()

	weights := progressWeights([]providers.Provider{
		&fakeProvider{info: providers.Info{ID: "a"}},
		&fakeProvider{info: providers.Info{ID: "b", Flags: providers.FlagHideProgress}},
		&fakeProvider{info: providers.Info{ID: "c", Flags: providers.FlagInternal}},
		&fakeProvider{info: providers.Info{ID: "d"}},
	})
	assert.InDeltaSlice(t, []float64{1.0 / 3, 0, 1.0 / 3, 1.0 / 3}, weights, 1e-9)

	assert.Equal(t, []float64{0}, progressWeights([]providers.Provider{
		&fakeProvider{info: providers.Info{ID: "h", Flags: providers.FlagHideProgress}},
	}))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "waiting_on_network", StateWaitingOnNetwork.String())
	assert.Equal(t, "unknown", State(42).String())
}

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}
