package tech

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const sampleTechJSON = `{
  "name": "sample",
  "grid_unit": "0.001",
  "shrink_factor": "0.9",
  "installs": [
    {"id": "pdkroot", "path": "technology.sample.install_dir"}
  ],
  "tarballs": [
    {"root": {"id": "extras.tar.gz", "path": "technology.sample.tarball_dir"}, "optional": true}
  ],
  "libraries": [
    {
      "name": "stdcells",
      "nldm_liberty_file": "pdkroot/lib/stdcells.lib",
      "lef_file": "pdkroot/lef/stdcells.lef",
      "corner": {"nmos": "typical", "pmos": "typical", "temperature": "25 C"},
      "supplies": {"VDD": "1.0 V", "GND": "0 V"},
      "provides": [{"lib_type": "stdcell", "vt": "RVT"}]
    }
  ],
  "dont_use_list": ["*SDF*", "CLKBUF*"],
  "drc_decks": [
    {"tool_name": "calibre", "deck_name": "all_rules", "path": "pdkroot/drc/all.rules"}
  ],
  "sites": [
    {"name": "core", "x": 0.2, "y": 1.71}
  ],
  "stackups": [
    {
      "name": "M5", "grid_unit": 0.001,
      "metals": [
        {"name": "M1", "index": 1, "direction": "horizontal",
         "min_width": 0.05, "pitch": 0.1, "offset": 0.05,
         "power_strap_widths_and_spacings": [
           {"width_at_least": 0, "min_spacing": 0.05},
           {"width_at_least": 0.5, "min_spacing": 0.1}
         ]}
      ]
    }
  ],
  "special_cells": [
    {"cell_type": "tapcell", "name": ["TAPCELL_X1"]}
  ]
}`

func TestParseDescriptorJSON(t *testing.T) {
	d, err := ParseDescriptorJSON([]byte(sampleTechJSON))
	require.NoError(t, err)

	require.Equal(t, "sample", d.Name)
	require.Equal(t, "0.001", *d.GridUnit)
	require.Len(t, d.Installs, 1)
	require.Equal(t, "technology.sample.install_dir", d.Installs[0].Path)
	require.True(t, d.Tarballs[0].Optional)

	require.Len(t, d.Libraries, 1)
	lib := d.Libraries[0]
	require.Equal(t, "stdcells", lib.DisplayName())
	require.Equal(t, "1.0 V", lib.Supplies.VDD)
	require.True(t, lib.ProvidesType("stdcell"))
	require.False(t, lib.ProvidesType("technology"))

	require.Equal(t, []Cell{"*SDF*", "CLKBUF*"}, d.DontUseList)
	require.True(t, d.Sites[0].X.Equal(decimal.NewFromFloat(0.2)))

	stackup := d.Stackups[0]
	require.Equal(t, "M5", stackup.Name)
	m1, err := stackup.GetMetalByName("M1")
	require.NoError(t, err)
	require.Equal(t, RoutingHorizontal, m1.Direction)
	require.Len(t, m1.PowerStrapWidthsAndSpacings, 2)

	require.Equal(t, CellTypeTapCell, d.SpecialCells[0].CellType)
}

func TestParseDescriptorJSON_NameRequired(t *testing.T) {
	_, err := ParseDescriptorJSON([]byte(`{"grid_unit": "0.001"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no name")
}

func TestParseDescriptorYAML(t *testing.T) {
	raw := []byte(`
name: sample
grid_unit: "0.001"
libraries:
  - name: stdcells
    lef_file: stdcells.lef
sites:
  - name: core
    x: 0.2
    y: 1.71
`)
	d, err := ParseDescriptorYAML(raw)
	require.NoError(t, err)
	require.Equal(t, "sample", d.Name)
	require.Equal(t, "stdcells.lef", *d.Libraries[0].LEFFile)
	require.True(t, d.Sites[0].Y.Equal(decimal.NewFromFloat(1.71)))
}

func TestLoadDescriptorFile_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.tech.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = 'sample'"), 0o600))

	_, err := LoadDescriptorFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unrecognized tech descriptor format")
}

func TestLoadFromDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sample")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.tech.json"), []byte(sampleTechJSON), 0o600))

	tt, err := LoadFromDir(dir)
	require.NoError(t, err)
	require.Equal(t, "sample", tt.Name())
	require.Equal(t, dir, tt.PackageDir())
	require.Equal(t, filepath.Join(dir, "sample.tech.json"), tt.DescriptorPath())
}

func TestLoadFromDir_MissingDescriptor(t *testing.T) {
	_, err := LoadFromDir(t.TempDir())
	require.Error(t, err)
}

func TestCoerceToGrid(t *testing.T) {
	unit := decimal.RequireFromString("0.001")

	snapped := CoerceToGrid(decimal.RequireFromString("0.0014"), unit)
	require.True(t, snapped.Equal(decimal.RequireFromString("0.001")), "got %s", snapped)

	snapped = CoerceToGrid(decimal.RequireFromString("0.0015"), unit)
	require.True(t, snapped.Equal(decimal.RequireFromString("0.002")), "got %s", snapped)

	// A zero grid unit leaves the value alone.
	raw := decimal.RequireFromString("0.1234")
	require.True(t, CoerceToGrid(raw, decimal.Zero).Equal(raw))
}

func TestSiteFromSetting(t *testing.T) {
	unit := decimal.RequireFromString("0.001")
	site, err := SiteFromSetting(unit, map[string]any{
		"name": "core",
		"x":    0.1999,
		"y":    "1.71",
	})
	require.NoError(t, err)
	require.Equal(t, "core", site.Name)
	require.True(t, site.X.Equal(decimal.RequireFromString("0.2")), "got %s", site.X)
	require.True(t, site.Y.Equal(decimal.RequireFromString("1.71")))

	_, err = SiteFromSetting(unit, map[string]any{"x": 1, "y": 2})
	require.Error(t, err)
}
