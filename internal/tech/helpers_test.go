package tech

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cedard234/hammer/internal/settings"
)

func strPtr(s string) *string { return &s }

// newTestTech builds a Technology around the given descriptor with a fresh
// cache dir and a settings database seeded from the map.
func newTestTech(t *testing.T, desc *Descriptor, values map[string]any) *Technology {
	t.Helper()
	if desc.Name == "" {
		desc.Name = "testtech"
	}
	tt := New(desc, t.TempDir())
	tt.SetDatabase(settings.NewStoreFromMap(values))
	require.NoError(t, tt.SetCacheDir(filepath.Join(t.TempDir(), "cache")))
	return tt
}

// touch creates an empty file, making parent directories as needed.
func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte{}, 0o600))
}

// supplyAll is a settings fragment that accepts the common test supplies.
func supplyAll() map[string]any {
	return map[string]any{
		"vlsi.inputs.supplies.VDD": "1.0 V",
		"vlsi.inputs.supplies.GND": "0 V",
	}
}

// libWithSupplies annotates a library with the supplies supplyAll matches.
func libWithSupplies(lib Library) Library {
	lib.Supplies = &Supplies{VDD: "1.0 V", GND: "0 V"}
	return lib
}
