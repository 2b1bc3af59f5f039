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

package logiqx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-library/pkg/library/model"
	"github.com/ZaparooProject/zaparoo-library/pkg/library/search"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doctype = `<!DOCTYPE datafile PUBLIC "-//Logiqx//DTD ROM Management Datafile//EN" "http://www.logiqx.com/Dats/datafile.dtd">`

const nesDat = `<?xml version="1.0"?>
` + doctype + `
<datafile>
	<header>
		<name>Nintendo - NES</name>
		<description>No-Intro NES set</description>
	</header>
	<game name="Super Mario Bros.">
		<description>Super Mario Bros. (World)</description>
		<year>1985</year>
		<manufacturer>Nintendo</manufacturer>
		<rom name="mario.nes" size="40976"/>
		<rom name="./mario.nes"/>
	</game>
	<game name="Zelda">
		<rom name="sub/zelda.nes"/>
		<rom name="missing.nes"/>
		<year>19xx</year>
	</game>
	<game name="Ghost">
		<rom name="ghost.nes"/>
	</game>
	<game name="  ">
		<rom name="mario.nes"/>
	</game>
</datafile>
`

func newScan(t *testing.T, fs afero.Fs) (*search.Context, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)
	sctx := search.New(search.Options{Fs: fs, Logger: &logger})
	t.Cleanup(sctx.CloseDownloads)
	return sctx, buf
}

func TestRun_DatFiles(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/roms/nes/nes.dat":         nesDat,
		"/roms/nes/mario.nes":       "rom",
		"/roms/nes/sub/zelda.nes":   "rom",
		"/roms/nes/plain.xml":       `<?xml version="1.0"?><gameList></gameList>`,
		"/roms/nes/other.dat":       `<?xml version="1.0"?><!DOCTYPE foo SYSTEM "foo.dtd"><foo/>`,
		"/roms/nes/sub/nested.dat":  nesDat,
		"/roms/noheader/empty.dat":  "<?xml version=\"1.0\"?>\n" + doctype + "\n<datafile><header><description>x</description></header></datafile>",
		"/roms/noheader/readme.txt": "x",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o600))
	}

	sctx, buf := newScan(t, fs)
	p := New(func() []string { return []string{"/roms/nes", "/roms/noheader", "/roms/nes/", "/missing"} })
	var last float64
	require.NoError(t, p.Run(context.Background(), sctx, func(v float64) { last = v }))
	assert.InDelta(t, 1.0, last, 1e-9)

	logs := buf.String()
	assert.Contains(t, logs, "not a Logiqx DAT file, ignored")
	assert.Contains(t, logs, "DAT header has no <name>")
	assert.Contains(t, logs, "duplicate rom entry")
	assert.Contains(t, logs, "rom file does not exist")
	assert.Contains(t, logs, "invalid <year>")
	assert.Contains(t, logs, "empty or missing name")

	res := sctx.Finalize()
	require.Len(t, res.Collections, 1)
	assert.Equal(t, "Nintendo - NES", res.Collections[0].Name)
	assert.Equal(t, "No-Intro NES set", res.Collections[0].Description)

	require.Len(t, res.Games, 2)
	byTitle := map[string]*model.Game{}
	for _, g := range res.Games {
		byTitle[g.Title] = g
	}
	mario := byTitle["Super Mario Bros."]
	require.NotNil(t, mario)
	assert.Equal(t, "Super Mario Bros. (World)", mario.Description)
	assert.Equal(t, time.Date(1985, time.January, 1, 0, 0, 0, 0, time.UTC), mario.Release)
	assert.Equal(t, []string{"Nintendo"}, mario.Developers)
	require.Len(t, mario.Files, 1)
	assert.Equal(t, "/roms/nes/mario.nes", mario.Files[0].Path)

	zelda := byTitle["Zelda"]
	require.NotNil(t, zelda)
	assert.True(t, zelda.Release.IsZero())
	assert.Equal(t, "/roms/nes/sub/zelda.nes", zelda.Identity())
}

func TestReadIntro(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		notLogiqx bool
		wantErr   bool
	}{
		{name: "valid", input: `<?xml version="1.0"?>` + doctype + `<datafile>`},
		{name: "system doctype", input: `<!DOCTYPE datafile SYSTEM "http://www.logiqx.com/Dats/datafile.dtd"><datafile>`},
		{name: "no doctype", input: `<?xml version="1.0"?><datafile>`, notLogiqx: true, wantErr: true},
		{name: "other dtd", input: `<!DOCTYPE html SYSTEM "about:legacy-compat"><html>`, notLogiqx: true, wantErr: true},
		{name: "wrong root", input: doctype + `<gameList>`, wantErr: true},
		{name: "not xml", input: `just text`, notLogiqx: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := readIntro(xml.NewDecoder(strings.NewReader(tt.input)))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.notLogiqx, errors.Is(err, errNotLogiqx))
		})
	}
}
