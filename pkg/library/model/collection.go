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

package model

// Collection groups games, usually by platform.
type Collection struct {
	Assets                 Assets  `json:"assets,omitempty" yaml:"assets,omitempty"`
	Name                   string  `json:"name" yaml:"name"`
	ShortName              string  `json:"shortName,omitempty" yaml:"short_name,omitempty"`
	SortBy                 string  `json:"sortBy,omitempty" yaml:"sort_by,omitempty"`
	Summary                string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description            string  `json:"description,omitempty" yaml:"description,omitempty"`
	CommonLaunchCmd        string  `json:"launchCmd,omitempty" yaml:"launch_cmd,omitempty"`
	CommonLaunchWorkdir    string  `json:"launchWorkdir,omitempty" yaml:"launch_workdir,omitempty"`
	CommonLaunchCmdBasedir string  `json:"launchCmdBasedir,omitempty" yaml:"launch_cmd_basedir,omitempty"`
	Games                  []*Game `json:"-" yaml:"-"`
}
