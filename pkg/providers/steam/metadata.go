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

package steam

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
)

const appDetailsURL = "https://store.steampowered.com/api/appdetails/?appids=%s&l=english"

var releaseDateFormats = []string{"2 Jan, 2006", "Jan 2, 2006", "2 Jan 2006", "Jan 2006"}

type appDetails struct {
	Data    *appData `json:"data"`
	Success bool     `json:"success"`
}

type appData struct {
	Metacritic *struct {
		Score float64 `json:"score"`
	} `json:"metacritic"`
	ReleaseDate struct {
		Date string `json:"date"`
	} `json:"release_date"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	AboutTheGame     string   `json:"about_the_game"`
	HeaderImage      string   `json:"header_image"`
	Background       string   `json:"background"`
	Developers       []string `json:"developers"`
	Publishers       []string `json:"publishers"`
	Genres           []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Screenshots []struct {
		PathThumbnail string `json:"path_thumbnail"`
	} `json:"screenshots"`
	Movies []struct {
		Webm struct {
			P480 string `json:"480"`
		} `json:"webm"`
	} `json:"movies"`
}

// parseAppDetails decodes an appdetails response. The response is an object
// keyed by the requested app ID.
func parseAppDetails(body []byte) (*appData, error) {
	var root map[string]appDetails
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("invalid appdetails json: %w", err)
	}
	for _, entry := range root {
		if !entry.Success {
			return nil, errors.New("appdetails request was not successful")
		}
		if entry.Data == nil {
			return nil, errors.New("appdetails response has no data")
		}
		return entry.Data, nil
	}
	return nil, errors.New("empty appdetails response")
}

// stripHTML returns the text content of an HTML fragment, turning line
// breaks into newlines.
func stripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, h1, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return strings.TrimSpace(doc.Text())
}

func parseReleaseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range releaseDateFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func applyAppData(game *search.PendingGame, data *appData) {
	if name := strings.TrimSpace(data.Name); name != "" {
		game.Title = name
	}
	if data.ShortDescription != "" {
		game.Summary = stripHTML(data.ShortDescription)
	}
	if data.AboutTheGame != "" {
		game.Description = stripHTML(data.AboutTheGame)
	}
	if release, ok := parseReleaseDate(data.ReleaseDate.Date); ok {
		game.Release = release
	}

	if game.Assets == nil {
		game.Assets = model.Assets{}
	}
	if data.HeaderImage != "" {
		game.Assets.SetSingle(model.AssetLogo, data.HeaderImage)
		game.Assets.SetSingle(model.AssetSteamGrid, data.HeaderImage)
		game.Assets.SetSingle(model.AssetBoxFront, data.HeaderImage)
	}
	if data.Background != "" {
		game.Assets.SetSingle(model.AssetBackground, data.Background)
	}
	for _, shot := range data.Screenshots {
		game.Assets.Add(model.AssetScreenshot, shot.PathThumbnail)
	}
	for _, movie := range data.Movies {
		game.Assets.Add(model.AssetVideo, movie.Webm.P480)
	}

	game.Developers = appendNonEmpty(game.Developers, data.Developers...)
	game.Publishers = appendNonEmpty(game.Publishers, data.Publishers...)
	for _, genre := range data.Genres {
		game.Genres = appendNonEmpty(game.Genres, genre.Description)
	}

	if data.Metacritic != nil && data.Metacritic.Score >= 0 && data.Metacritic.Score <= 100 {
		game.Rating = float32(data.Metacritic.Score / 100)
	}
}

func appendNonEmpty(dst []string, values ...string) []string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}
