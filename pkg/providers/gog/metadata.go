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


package gog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
)

const (
	productURL      = "https://api.gog.com/products/%s?expand=description,screenshots,videos"
	screenshotWidth = "ggvgm_2x"
)

type product struct {
	Description struct {
		Lead string `json:"lead"`
		Full string `json:"full"`
	} `json:"description"`
	Images struct {
		Logo2x     string `json:"logo2x"`
		Background string `json:"background"`
		Icon       string `json:"icon"`
	} `json:"images"`
	Screenshots []struct {
		FormatterTemplateURL string `json:"formatter_template_url"`
	} `json:"screenshots"`
}

func parseProduct(body []byte) (*product, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("invalid product json: %w", err)
	}
	if len(root) == 0 {
		return nil, errors.New("empty product response")
	}
	var data product
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("invalid product json: %w", err)
	}
	return &data, nil
}

// flatText returns the text content of an HTML fragment on a single line.
func flatText(fragment string) string {
	text := fragment
	if strings.ContainsAny(fragment, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if err == nil {
			doc.Find("br").ReplaceWithHtml("\n")
			doc.Find("p, h1, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
				s.AppendHtml("\n")
			})
			text = doc.Text()
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// imageURL makes the protocol relative links of the API absolute.
func imageURL(link string) string {
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	return link
}

func applyProduct(game *search.PendingGame, data *product) {
	if data.Description.Lead != "" {
		game.Summary = flatText(data.Description.Lead)
	}
	if data.Description.Full != "" {
		game.Description = flatText(data.Description.Full)
	}

	if game.Assets == nil {
		game.Assets = model.Assets{}
	}
	game.Assets.SetSingle(model.AssetBoxFront, imageURL(data.Images.Logo2x))
	game.Assets.SetSingle(model.AssetBackground, imageURL(data.Images.Background))
	game.Assets.SetSingle(model.AssetLogo, imageURL(data.Images.Icon))
	for _, shot := range data.Screenshots {
		link := strings.ReplaceAll(shot.FormatterTemplateURL, "{formatter}", screenshotWidth)
		game.Assets.Add(model.AssetScreenshot, imageURL(link))
	}
}
