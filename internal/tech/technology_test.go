package tech

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDatabaseNotSet(t *testing.T) {
	tt := New(&Descriptor{Name: "bare"}, t.TempDir())

	require.False(t, tt.IsDatabaseSet())
	_, err := tt.GetExtraLibraries()
	require.Error(t, err)
	require.Contains(t, err.Error(), "settings database not set")
}

func TestCacheDirNotSet(t *testing.T) {
	tt := New(&Descriptor{Name: "bare"}, t.TempDir())

	_, err := tt.CacheDir()
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache dir location not set")
}

func TestExtractedTarballsDir_Precedence(t *testing.T) {
	tt := newTestTech(t, &Descriptor{Name: "mytech"}, map[string]any{
		"technology.mytech.extracted_tarballs_dir": "/per-tech/dir",
		"vlsi.technology.extracted_tarballs_dir":   "/global/dir",
	})

	dir, err := tt.ExtractedTarballsDir()
	require.NoError(t, err)
	require.Equal(t, "/per-tech/dir", dir)

	// Without the per-technology key the global one wins.
	tt = newTestTech(t, &Descriptor{Name: "mytech"}, map[string]any{
		"vlsi.technology.extracted_tarballs_dir": "/global/dir",
	})
	dir, err = tt.ExtractedTarballsDir()
	require.NoError(t, err)
	require.Equal(t, "/global/dir", dir)

	// With neither, archives go under the cache directory.
	tt = newTestTech(t, &Descriptor{Name: "mytech"}, nil)
	cache, err := tt.CacheDir()
	require.NoError(t, err)
	dir, err = tt.ExtractedTarballsDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cache, "extracted"), dir)
}

func TestGetDRCDecksForTool(t *testing.T) {
	desc := &Descriptor{
		Installs: []PathPrefix{{ID: "pdk", Path: "technology.testtech.install_dir"}},
		DRCDecks: []DRCDeck{
			{ToolName: "calibre", DeckName: "all_rules", Path: "pdk/drc/all.rules"},
			{ToolName: "pegasus", DeckName: "pegasus_rules", Path: "/abs/pegasus.rules"},
		},
	}
	tt := newTestTech(t, desc, map[string]any{
		"technology.testtech.install_dir": "/opt/pdk",
	})

	decks, err := tt.GetDRCDecksForTool("calibre")
	require.NoError(t, err)
	require.Len(t, decks, 1)
	require.Equal(t, "/opt/pdk/drc/all.rules", decks[0].Path)

	// The descriptor itself stays unresolved.
	require.Equal(t, "pdk/drc/all.rules", tt.Config().DRCDecks[0].Path)

	// A tool with no decks gets an empty list, not an error.
	decks, err = tt.GetDRCDecksForTool("unknown_tool")
	require.NoError(t, err)
	require.Empty(t, decks)
}

func TestGetDRCDecksForTool_NoneDeclared(t *testing.T) {
	tt := newTestTech(t, &Descriptor{}, nil)

	_, err := tt.GetDRCDecksForTool("calibre")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not specify any DRC decks")
}

func TestGetLVSDecksForTool(t *testing.T) {
	desc := &Descriptor{
		LVSDecks: []LVSDeck{
			{ToolName: "calibre", DeckName: "lvs_rules", Path: "/abs/lvs.rules"},
		},
	}
	tt := newTestTech(t, desc, nil)

	decks, err := tt.GetLVSDecksForTool("calibre")
	require.NoError(t, err)
	require.Equal(t, "/abs/lvs.rules", decks[0].Path)

	_, err = newTestTech(t, &Descriptor{}, nil).GetLVSDecksForTool("calibre")
	require.Error(t, err)
}

func TestGridUnitAndShrink(t *testing.T) {
	tt := newTestTech(t, &Descriptor{
		GridUnit:     strPtr("0.001"),
		ShrinkFactor: strPtr("0.9"),
	}, nil)

	unit, err := tt.GetGridUnit()
	require.NoError(t, err)
	require.True(t, unit.Equal(decimal.RequireFromString("0.001")))

	factor, err := tt.GetShrinkFactor()
	require.NoError(t, err)
	require.True(t, factor.Equal(decimal.RequireFromString("0.9")))

	shrunk, err := tt.GetPostShrinkLength(decimal.NewFromInt(100))
	require.NoError(t, err)
	require.True(t, shrunk.Equal(decimal.NewFromInt(90)))

	// No declared shrink factor means no shrink.
	plain := newTestTech(t, &Descriptor{}, nil)
	factor, err = plain.GetShrinkFactor()
	require.NoError(t, err)
	require.True(t, factor.Equal(decimal.NewFromInt(1)))

	_, err = plain.GetGridUnit()
	require.Error(t, err)
}

func TestGetStackupByName(t *testing.T) {
	desc := &Descriptor{
		Stackups: []Stackup{{Name: "M5", Metals: []Metal{{Name: "M1", Index: 1}}}},
	}
	tt := newTestTech(t, desc, nil)

	stackup, err := tt.GetStackupByName("M5")
	require.NoError(t, err)
	require.Equal(t, "M5", stackup.Name)

	_, err = tt.GetStackupByName("M9")
	require.Error(t, err)
	require.Contains(t, err.Error(), `stackup named "M9" is not defined`)

	_, err = newTestTech(t, &Descriptor{}, nil).GetStackupByName("M5")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not specify any stackups")
}

func TestGetSiteByName_AndPlacementSite(t *testing.T) {
	desc := &Descriptor{
		Sites: []Site{{
			Name: "core",
			X:    decimal.RequireFromString("0.2"),
			Y:    decimal.RequireFromString("1.71"),
		}},
	}
	tt := newTestTech(t, desc, map[string]any{
		"vlsi.technology.placement_site": "core",
	})

	site, err := tt.GetSiteByName("core")
	require.NoError(t, err)
	require.True(t, site.Y.Equal(decimal.RequireFromString("1.71")))

	site, err = tt.GetPlacementSite()
	require.NoError(t, err)
	require.Equal(t, "core", site.Name)

	_, err = tt.GetSiteByName("io")
	require.Error(t, err)
}

func TestGetSpecialCellsByType(t *testing.T) {
	desc := &Descriptor{
		SpecialCells: []SpecialCell{
			{CellType: CellTypeTapCell, Name: []string{"TAPCELL_X1"}},
			{CellType: CellTypeDecap, Name: []string{"DECAP_X1", "DECAP_X2"}},
		},
	}
	tt := newTestTech(t, desc, nil)

	taps := tt.GetSpecialCellsByType(CellTypeTapCell)
	require.Len(t, taps, 1)
	require.Equal(t, []string{"TAPCELL_X1"}, taps[0].Name)

	require.Empty(t, tt.GetSpecialCellsByType(CellTypeEndCap))
}

func TestDontUseAndPhysicalOnly_NilMeansUndeclared(t *testing.T) {
	tt := newTestTech(t, &Descriptor{}, nil)
	require.Nil(t, tt.DontUseList())
	require.Nil(t, tt.PhysicalOnlyCellsList())

	declared := newTestTech(t, &Descriptor{
		DontUseList:           []Cell{},
		PhysicalOnlyCellsList: []Cell{"FILL*"},
	}, nil)
	require.NotNil(t, declared.DontUseList())
	require.Empty(t, declared.DontUseList())
	require.Equal(t, []Cell{"FILL*"}, declared.PhysicalOnlyCellsList())
}

func TestLoadLibUnits(t *testing.T) {
	tt := newTestTech(t, &Descriptor{}, supplyAll())
	libPath := filepath.Join(tt.PackageDir(), "stdcells.lib")
	libContents := `library (stdcells) {
  time_unit : "1ns";
  capacitive_load_unit (1,pf);
}`
	require.NoError(t, os.WriteFile(libPath, []byte(libContents), 0o600))
	tt.config.Libraries = []Library{
		libWithSupplies(Library{Name: strPtr("stdcells"), NLDMLibertyFile: strPtr("stdcells.lib")}),
	}

	require.NoError(t, tt.LoadLibUnits(context.Background()))
	require.Equal(t, "1ns", tt.TimeUnit())
	require.Equal(t, "1pf", tt.CapUnit())
}

func TestLoadLibUnits_NoNLDMLibs(t *testing.T) {
	tt := newTestTech(t, &Descriptor{}, supplyAll())

	// No libs is logged, not fatal; units stay empty for the tool to decide.
	require.NoError(t, tt.LoadLibUnits(context.Background()))
	require.Empty(t, tt.TimeUnit())
	require.Empty(t, tt.CapUnit())
}

func TestGetMacroSizes(t *testing.T) {
	tt := newTestTech(t, &Descriptor{}, supplyAll())
	lefPath := filepath.Join(tt.PackageDir(), "sram.lef")
	lefContents := `VERSION 5.8 ;
MACRO SRAM1RW64x32
  CLASS BLOCK ;
  SIZE 41.6 BY 69.536 ;
END SRAM1RW64x32
END LIBRARY
`
	require.NoError(t, os.WriteFile(lefPath, []byte(lefContents), 0o600))
	tt.config.Libraries = []Library{
		libWithSupplies(Library{Name: strPtr("sram"), LEFFile: strPtr("sram.lef")}),
	}
	tt.db.Set("vlsi.technology.extra_macro_sizes", []any{
		map[string]any{"library": "override", "name": "SRAM2RW32x32", "width": "47.5", "height": "62.1"},
	})

	sizes, err := tt.GetMacroSizes(context.Background())
	require.NoError(t, err)
	require.Len(t, sizes, 2)

	// Extras come first, then LEF-derived sizes; nothing is de-duplicated.
	require.Equal(t, "SRAM2RW32x32", sizes[0].Name)
	require.Equal(t, "override", sizes[0].Library)
	require.Equal(t, "SRAM1RW64x32", sizes[1].Name)
	require.Equal(t, "sram", sizes[1].Library)
	require.True(t, sizes[1].Width.Equal(decimal.RequireFromString("41.6")))
	require.True(t, sizes[1].Height.Equal(decimal.RequireFromString("69.536")))
}

func TestMacroSizeFromSetting_Invalid(t *testing.T) {
	_, err := MacroSizeFromSetting("not-a-map")
	require.Error(t, err)
}
