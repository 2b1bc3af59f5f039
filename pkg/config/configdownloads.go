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

package config

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	DefaultConcurrency = 4
	MaxConcurrency     = 32
)

// Downloads configures the metadata download queue.
type Downloads struct {
	Timeout     string  `toml:"timeout" validate:"omitempty,positive_duration"`
	UserAgent   string  `toml:"user_agent,omitempty"`
	Concurrency int     `toml:"concurrency" validate:"min=1,max=32"`
	RateLimit   float64 `toml:"rate_limit" validate:"min=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("positive_duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	if err != nil {
		panic(err)
	}
	return v
}

// validateValues replaces every invalid field with its default.
func validateValues(vals, defaults *Values) {
	var verrs validator.ValidationErrors
	if err := validate.Struct(vals); !errors.As(err, &verrs) {
		if err != nil {
			log.Warn().Err(err).Msg("failed to validate config")
		}
		return
	}

	for _, fe := range verrs {
		log.Warn().
			Str("field", fe.Namespace()).
			Interface("value", fe.Value()).
			Str("rule", fe.Tag()).
			Msg("invalid config value, using default")

		switch fe.StructNamespace() {
		case "Values.Downloads.Timeout":
			vals.Downloads.Timeout = defaults.Downloads.Timeout
		case "Values.Downloads.Concurrency":
			vals.Downloads.Concurrency = defaults.Downloads.Concurrency
		case "Values.Downloads.RateLimit":
			vals.Downloads.RateLimit = defaults.Downloads.RateLimit
		case "Values.Library.SortLocale":
			vals.Library.SortLocale = defaults.Library.SortLocale
		}
	}
}

// DownloadsTimeout is the inactivity window of the download queue.
func (c *Instance) DownloadsTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, err := time.ParseDuration(c.vals.Downloads.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

func (c *Instance) DownloadsConcurrency() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Downloads.Concurrency < 1 {
		return DefaultConcurrency
	}
	return min(c.vals.Downloads.Concurrency, MaxConcurrency)
}

// DownloadsRateLimit returns requests per second, zero means unlimited.
func (c *Instance) DownloadsRateLimit() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return max(c.vals.Downloads.RateLimit, 0)
}

func (c *Instance) DownloadsUserAgent() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Downloads.UserAgent == "" {
		return DefaultUserAgent
	}
	return c.vals.Downloads.UserAgent
}
