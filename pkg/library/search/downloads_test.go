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

package search

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func echoFetcher() Fetcher {
	return fetchFunc(func(_ context.Context, url string) ([]byte, error) {
		if url == "http://fail" {
			return nil, errors.New("boom")
		}
		return []byte("body of " + url), nil
	})
}

func hungFetcher() Fetcher {
	return fetchFunc(func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func TestWaitDownloads_DeliversOnCallerGoroutine(t *testing.T) {
	t.Parallel()

	sctx := New(Options{Fs: afero.NewMemMapFs(), Fetcher: echoFetcher(), Concurrency: 2})
	defer sctx.CloseDownloads()

	// plain variables: callbacks must not race with the test goroutine
	bodies := map[string]string{}
	var failures int
	for _, url := range []string{"http://a", "http://b", "http://c", "http://fail"} {
		sctx.ScheduleDownload(url, func(body []byte, err error) {
			if err != nil {
				failures++
				return
			}
			bodies[url] = string(body)
		})
	}
	assert.True(t, sctx.HasPendingDownloads())

	delivered := 0
	require.NoError(t, sctx.WaitDownloads(context.Background(), func() { delivered++ }))

	assert.False(t, sctx.HasPendingDownloads())
	assert.Equal(t, 4, delivered)
	assert.Equal(t, 1, failures)
	assert.Equal(t, map[string]string{
		"http://a": "body of http://a",
		"http://b": "body of http://b",
		"http://c": "body of http://c",
	}, bodies)
}

func TestWaitDownloads_FailureIsLeftToCallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	sctx := New(Options{Fs: afero.NewMemMapFs(), Fetcher: echoFetcher(), Logger: &logger})
	defer sctx.CloseDownloads()

	var got error
	sctx.ScheduleDownload("http://fail", func(_ []byte, err error) { got = err })
	require.NoError(t, sctx.WaitDownloads(context.Background(), nil))

	require.Error(t, got)
	assert.Zero(t, strings.Count(buf.String(), `"level":"warn"`))
}

func TestDrainDownloads(t *testing.T) {
	t.Parallel()

	sctx := New(Options{Fs: afero.NewMemMapFs(), Fetcher: echoFetcher()})
	defer sctx.CloseDownloads()

	called := 0
	sctx.ScheduleDownload("http://x", func([]byte, error) { called++ })

	assert.Eventually(t, func() bool {
		sctx.DrainDownloads()
		return called == 1
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, sctx.PendingDownloads())
	assert.Equal(t, 0, sctx.DrainDownloads())
}

func TestWaitDownloads_InactivityTimeout(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	sctx := New(Options{
		Fs:      afero.NewMemMapFs(),
		Fetcher: hungFetcher(),
		Clock:   clock,
		Timeout: 10 * time.Second,
	})

	invoked := make(chan struct{}, 1)
	sctx.ScheduleDownload("http://hung", func([]byte, error) { invoked <- struct{}{} })

	done := make(chan error, 1)
	go func() { done <- sctx.WaitDownloads(context.Background(), nil) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("WaitDownloads did not return after the timeout")
	}

	assert.False(t, sctx.HasPendingDownloads())
	select {
	case <-invoked:
		t.Fatal("callback of an abandoned download must never run")
	default:
	}

	// the queue is closed, later schedules are ignored
	sctx.ScheduleDownload("http://late", func([]byte, error) { invoked <- struct{}{} })
	assert.False(t, sctx.HasPendingDownloads())
}

func TestWaitDownloads_ContextCancelled(t *testing.T) {
	t.Parallel()

	sctx := New(Options{Fs: afero.NewMemMapFs(), Fetcher: hungFetcher()})
	called := false
	sctx.ScheduleDownload("http://hung", func([]byte, error) { called = true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sctx.WaitDownloads(ctx, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.False(t, sctx.HasPendingDownloads())
}

func TestScheduleDownload_NoFetcher(t *testing.T) {
	t.Parallel()

	sctx := newTestContext(t)
	var got error
	sctx.ScheduleDownload("http://x", func(_ []byte, err error) { got = err })

	require.ErrorIs(t, got, ErrNoFetcher)
	assert.False(t, sctx.HasPendingDownloads())
}

func TestScheduleDownload_RateLimited(t *testing.T) {
	t.Parallel()

	sctx := New(Options{Fs: afero.NewMemMapFs(), Fetcher: echoFetcher(), RateLimit: 1000})
	defer sctx.CloseDownloads()

	n := 0
	for range 3 {
		sctx.ScheduleDownload("http://r", func([]byte, error) { n++ })
	}
	require.NoError(t, sctx.WaitDownloads(context.Background(), nil))
	assert.Equal(t, 3, n)
}
