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
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrNoFetcher is passed to download callbacks when the context was created
// without network access.
var ErrNoFetcher = errors.New("downloads are disabled")

// Fetcher performs a single GET request and returns the response body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DownloadFunc receives the response body, or the error of a failed request.
type DownloadFunc func(body []byte, err error)

type completion struct {
	err  error
	body []byte
	id   uint64
}

type pendingDownload struct {
	callback DownloadFunc
	url      string
}

// downloadQueue runs requests on their own goroutines and hands the results
// back to the goroutine owning the Context, which runs the callbacks.
type downloadQueue struct {
	ctx      context.Context
	fetcher  Fetcher
	log      zerolog.Logger
	clock    clockwork.Clock
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	cancel   context.CancelFunc
	results  chan completion
	inflight map[uint64]pendingDownload
	wg       sync.WaitGroup
	timeout  time.Duration
	pending  atomic.Int64
	nextID   uint64
}

func newDownloadQueue(opts Options) *downloadQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &downloadQueue{
		ctx:      ctx,
		cancel:   cancel,
		fetcher:  opts.Fetcher,
		log:      *opts.Logger,
		clock:    opts.Clock,
		timeout:  opts.Timeout,
		sem:      semaphore.NewWeighted(int64(opts.Concurrency)),
		results:  make(chan completion, opts.Concurrency),
		inflight: make(map[uint64]pendingDownload),
	}
	if opts.RateLimit > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return q
}

// ScheduleDownload fetches url in the background. The callback runs later on
// the goroutine that owns the Context, from DrainDownloads or
// WaitDownloads. A download abandoned by the inactivity timeout never runs
// its callback.
func (c *Context) ScheduleDownload(url string, callback DownloadFunc) {
	q := c.downloads
	if q.fetcher == nil {
		callback(nil, ErrNoFetcher)
		return
	}
	if q.ctx.Err() != nil {
		c.log.Warn().Str("url", url).Msg("download scheduled after the queue was closed, ignored")
		return
	}

	q.nextID++
	id := q.nextID
	q.inflight[id] = pendingDownload{url: url, callback: callback}
	q.pending.Add(1)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.sem.Acquire(q.ctx, 1); err != nil {
			return
		}
		defer q.sem.Release(1)

		if q.limiter != nil {
			if err := q.limiter.Wait(q.ctx); err != nil {
				return
			}
		}

		body, err := q.fetcher.Fetch(q.ctx, url)
		if q.ctx.Err() != nil {
			return
		}
		select {
		case q.results <- completion{id: id, body: body, err: err}:
		case <-q.ctx.Done():
		}
	}()
}

// HasPendingDownloads reports whether any scheduled download has not run its
// callback yet. Safe for concurrent use.
func (c *Context) HasPendingDownloads() bool {
	return c.downloads.pending.Load() > 0
}

// PendingDownloads returns the number of outstanding downloads.
func (c *Context) PendingDownloads() int {
	return int(c.downloads.pending.Load())
}

func (q *downloadQueue) deliver(res completion) {
	dl, ok := q.inflight[res.id]
	if !ok {
		return
	}
	delete(q.inflight, res.id)
	q.pending.Add(-1)
	// the callback reports the failure for its game
	if res.err != nil {
		q.log.Debug().Err(res.err).Str("url", dl.url).Msg("download failed")
	}
	dl.callback(res.body, res.err)
}

// DrainDownloads runs the callbacks of every download that already finished
// and returns without waiting for the rest.
func (c *Context) DrainDownloads() int {
	n := 0
	for {
		select {
		case res := <-c.downloads.results:
			c.downloads.deliver(res)
			n++
		default:
			return n
		}
	}
}

// WaitDownloads runs callbacks until no download is pending. Each completion
// restarts the inactivity timer. When it fires, the remaining requests are
// aborted and WaitDownloads returns without running their callbacks.
func (c *Context) WaitDownloads(ctx context.Context, onDelivered func()) error {
	q := c.downloads
	timer := q.clock.NewTimer(q.timeout)
	defer timer.Stop()

	for q.pending.Load() > 0 {
		select {
		case res := <-q.results:
			q.deliver(res)
			if onDelivered != nil {
				onDelivered()
			}
			timer.Reset(q.timeout)
		case <-timer.Chan():
			for _, dl := range q.inflight {
				q.log.Warn().Str("url", dl.url).Dur("timeout", q.timeout).Msg("download timed out, abandoned")
			}
			q.close()
			return nil
		case <-ctx.Done():
			q.close()
			return ctx.Err()
		}
	}
	return nil
}

// close aborts outstanding requests and waits for their goroutines.
func (q *downloadQueue) close() {
	q.cancel()
	q.wg.Wait()
	clear(q.inflight)
	q.pending.Store(0)
	for {
		select {
		case <-q.results:
		default:
			return
		}
	}
}

// CloseDownloads aborts every outstanding download. Finalize calls it.
func (c *Context) CloseDownloads() {
	c.downloads.close()
}
