package tech

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLibraryCopy_SharesNothing(t *testing.T) {
	original := Library{
		Name:          strPtr("stdcells"),
		LEFFile:       strPtr("stdcells.lef"),
		Supplies:      &Supplies{VDD: "1.0 V", GND: "0 V"},
		ExtraPrefixes: []PathPrefix{{ID: "a", Path: "/a"}},
	}

	clone := original.Copy()
	*clone.Name = "changed"
	clone.Supplies.VDD = "3.3 V"
	clone.ExtraPrefixes[0].Path = "/b"

	require.Equal(t, "stdcells", *original.Name)
	require.Equal(t, "1.0 V", original.Supplies.VDD)
	require.Equal(t, "/a", original.ExtraPrefixes[0].Path)
}

func TestExtraLibrary_StoreIntoLibrary(t *testing.T) {
	el := ExtraLibrary{
		Prefix: &PathPrefix{ID: "sram_dir", Path: "/ip/sram"},
		Library: Library{
			Name:    strPtr("sram"),
			LEFFile: strPtr("sram_dir/sram.lef"),
		},
	}

	lib := el.StoreIntoLibrary()
	require.Equal(t, []PathPrefix{{ID: "sram_dir", Path: "/ip/sram"}}, lib.ExtraPrefixes)
	// The fold-in works on a copy.
	require.Nil(t, el.Library.ExtraPrefixes)
}

func TestExtraLibraryFromSetting(t *testing.T) {
	el, err := ExtraLibraryFromSetting(map[string]any{
		"prefix": map[string]any{"id": "x", "path": "/x"},
		"library": map[string]any{
			"name":              "extra",
			"nldm_liberty_file": "x/extra.lib",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "x", el.Prefix.ID)
	require.Equal(t, "extra", el.Library.DisplayName())
	require.Equal(t, "x/extra.lib", *el.Library.NLDMLibertyFile)

	// Prefix is optional.
	el, err = ExtraLibraryFromSetting(map[string]any{
		"library": map[string]any{"name": "bare"},
	})
	require.NoError(t, err)
	require.Nil(t, el.Prefix)
	require.Empty(t, el.StoreIntoLibrary().ExtraPrefixes)
}

func TestPathPrefixPrepend(t *testing.T) {
	p := PathPrefix{ID: "Alib", Path: "/scratch/projectA/mylib"}
	require.Equal(t, "/scratch/projectA/mylib/cap150f.lib", p.Prepend("cap150f.lib"))
}
