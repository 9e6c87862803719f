package tech

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/cedard234/hammer/internal/cachemanager"
	"github.com/cedard234/hammer/internal/lef"
	"github.com/cedard234/hammer/internal/log"
)

// MacroSize is the footprint of one macro, attributed to the library that
// declared it.
type MacroSize struct {
	Library string          `json:"library" yaml:"library"`
	Name    string          `json:"name" yaml:"name"`
	Width   decimal.Decimal `json:"width" yaml:"width"`
	Height  decimal.Decimal `json:"height" yaml:"height"`
}

// MacroSizeFromSetting builds a MacroSize from one element of the
// vlsi.technology.extra_macro_sizes setting.
func MacroSizeFromSetting(raw any) (MacroSize, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return MacroSize{}, fmt.Errorf("extra macro size entry must be a map, got %T", raw)
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return MacroSize{}, fmt.Errorf("encoding extra macro size entry: %w", err)
	}
	var size MacroSize
	if err := json.Unmarshal(encoded, &size); err != nil {
		return MacroSize{}, fmt.Errorf("decoding extra macro size entry: %w", err)
	}
	return size, nil
}

// lefSizeCache parses each LEF file at most once per run.
var lefSizeCache = cachemanager.NewReadThroughCache[string, []lef.MacroSize, string](
	cachemanager.NewInMemoryCacheManager[string, []lef.MacroSize](
		"lef-sizes", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
	func(ctx context.Context, path string) ([]lef.MacroSize, error) {
		contents, err := os.ReadFile(path) //nolint:gosec // G304: path came from a verified filter run
		if err != nil {
			return nil, fmt.Errorf("reading LEF file %s: %w", path, err)
		}
		return lef.ParseSizes(string(contents)), nil
	},
	false,
)

// GetExtraMacroSizes returns the macro size overrides configured in
// vlsi.technology.extra_macro_sizes.
func (t *Technology) GetExtraMacroSizes() ([]MacroSize, error) {
	db, err := t.database()
	if err != nil {
		return nil, err
	}
	if !db.Has("vlsi.technology.extra_macro_sizes") {
		return []MacroSize{}, nil
	}
	raw, err := db.GetSlice("vlsi.technology.extra_macro_sizes")
	if err != nil {
		return nil, err
	}
	sizes := make([]MacroSize, 0, len(raw))
	for _, entry := range raw {
		size, err := MacroSizeFromSetting(entry)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

// GetTechMacroSizes reads the technology's LEF files and returns the sizes
// of all macros they declare.
func (t *Technology) GetTechMacroSizes(ctx context.Context) ([]MacroSize, error) {
	// Run the LEF filter with an extraction func that carries the library
	// name along with the resolved path, since the output of a filter run
	// is a flat list of strings.
	lefPlus := LEFFilter()
	lefPlus.ExtractionFunc = func(lib Library, paths []string) []string {
		name := ""
		if lib.Name != nil {
			name = *lib.Name
		}
		encoded, err := json.Marshal([]string{paths[0], name})
		if err != nil {
			panic(fmt.Sprintf("encoding LEF path and library name: %v", err))
		}
		return []string{string(encoded)}
	}

	items, err := t.ReadLibs(ctx, []LibraryFilter{lefPlus}, ToPlainItem, nil, true)
	if err != nil {
		return nil, err
	}

	sizes := make([]MacroSize, 0)
	for _, item := range items {
		var pathAndName []string
		if err := json.Unmarshal([]byte(item), &pathAndName); err != nil || len(pathAndName) != 2 {
			return nil, fmt.Errorf("malformed LEF filter output %q", item)
		}
		path, libName := pathAndName[0], pathAndName[1]

		parsed, err := lefSizeCache.Get(ctx, path, path, cachemanager.DefaultExpiration)
		if err != nil {
			return nil, err
		}
		if len(parsed) == 0 {
			continue
		}
		if libName == "" {
			log.Warn(log.CatLEF, "No name is set for the library containing LEF file", "path", path)
		}
		for _, p := range parsed {
			sizes = append(sizes, MacroSize{
				Library: libName,
				Name:    p.Name,
				Width:   p.Width,
				Height:  p.Height,
			})
		}
	}
	return sizes, nil
}

// GetMacroSizes returns the extra macro sizes followed by the sizes read
// from the technology's LEF files. Entries with the same macro name are all
// kept; consumers decide which declaration wins.
func (t *Technology) GetMacroSizes(ctx context.Context) ([]MacroSize, error) {
	extras, err := t.GetExtraMacroSizes()
	if err != nil {
		return nil, err
	}
	tech, err := t.GetTechMacroSizes(ctx)
	if err != nil {
		return nil, err
	}
	return append(extras, tech...), nil
}
