// Package tech implements the technology-description resolution layer: it
// loads a declarative technology descriptor, materializes the archives and
// installs it references, and resolves abstract library artifacts into
// verified filesystem paths for consumption by CAD-tool drivers.
package tech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"github.com/cedard234/hammer/internal/liberty"
	"github.com/cedard234/hammer/internal/log"
	"github.com/cedard234/hammer/internal/settings"
)

// Technology is the aggregate root for one loaded technology. The descriptor
// is immutable after load; the settings database and cache directory are
// attached by the caller before any resolution runs.
type Technology struct {
	name       string
	packageDir string
	descPath   string
	config     *Descriptor

	db       *settings.Store
	cacheDir string

	// postInstall applies technology-specific hotfixes after archive
	// materialization. Defaults to a no-op.
	postInstall func(*Technology) error

	tracer trace.Tracer

	timeUnit string
	capUnit  string
}

// New wraps an already-parsed descriptor. packageDir is the directory holding
// the descriptor document; bundled-resource paths resolve relative to it.
func New(config *Descriptor, packageDir string) *Technology {
	return &Technology{
		name:       config.Name,
		packageDir: packageDir,
		config:     config,
	}
}

// LoadFromFile loads a technology from a descriptor document path.
func LoadFromFile(path string) (*Technology, error) {
	config, err := LoadDescriptorFile(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving descriptor path: %w", err)
	}
	log.Info(log.CatTech, "Loaded technology", "name", config.Name, "path", abs)
	t := New(config, filepath.Dir(abs))
	t.descPath = abs
	return t, nil
}

// LoadFromDir loads a technology from a package directory containing
// <base>.tech.json or <base>.tech.yml, where <base> is the directory name.
func LoadFromDir(dir string) (*Technology, error) {
	base := filepath.Base(filepath.Clean(dir))
	for _, name := range []string{base + ".tech.json", base + ".tech.yml", base + ".tech.yaml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return LoadFromFile(candidate)
		}
	}
	return nil, fmt.Errorf("no %s.tech.json or %s.tech.yml in %s", base, base, dir)
}

// Name returns the technology name.
func (t *Technology) Name() string { return t.name }

// PackageDir returns the directory holding the descriptor document.
func (t *Technology) PackageDir() string { return t.packageDir }

// DescriptorPath returns the descriptor document path, or "" when the
// technology was constructed from an in-memory descriptor.
func (t *Technology) DescriptorPath() string { return t.descPath }

// Config returns the parsed descriptor. Callers must treat it as read-only.
func (t *Technology) Config() *Descriptor { return t.config }

// SetDatabase attaches the settings database used for install-path
// indirection, supply matching, and extra library lookup.
func (t *Technology) SetDatabase(db *settings.Store) { t.db = db }

// IsDatabaseSet reports whether a settings database has been attached.
func (t *Technology) IsDatabaseSet() bool { return t.db != nil }

// SetPostInstallHook registers a technology-specific hook run after archive
// materialization, used to apply hotfixes to extracted files.
func (t *Technology) SetPostInstallHook(hook func(*Technology) error) {
	t.postInstall = hook
}

func (t *Technology) database() (*settings.Store, error) {
	if t.db == nil {
		return nil, errors.New("internal error: settings database not set")
	}
	return t.db, nil
}

func (t *Technology) getSettingString(key string) (string, error) {
	db, err := t.database()
	if err != nil {
		return "", err
	}
	return db.GetString(key)
}

// SetCacheDir sets the persistent cache directory for this technology,
// creating it with owner-only permissions if needed.
func (t *Technology) SetCacheDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	t.cacheDir = path
	return nil
}

// CacheDir returns the cache directory location.
func (t *Technology) CacheDir() (string, error) {
	if t.cacheDir == "" {
		return "", errors.New("internal error: cache dir location not set")
	}
	return t.cacheDir, nil
}

// ExtractedTarballsDir returns the directory that extracted archives live
// under. A technology-specific setting wins over the global one; with
// neither, archives extract under the cache directory.
func (t *Technology) ExtractedTarballsDir() (string, error) {
	techKey := fmt.Sprintf("technology.%s.extracted_tarballs_dir", t.name)
	db, err := t.database()
	if err != nil {
		return "", err
	}
	if db.Has(techKey) {
		if dir, err := db.GetString(techKey); err == nil && dir != "" {
			return dir, nil
		}
	}
	if dir := db.GetStringOr("vlsi.technology.extracted_tarballs_dir", ""); dir != "" {
		return dir, nil
	}
	cache, err := t.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "extracted"), nil
}

// TechDefinedLibraries returns the libraries declared in the descriptor.
func (t *Technology) TechDefinedLibraries() []Library {
	return t.config.Libraries
}

// GetExtraLibraries returns the extra IP libraries declared in the settings
// database under vlsi.technology.extra_libraries.
func (t *Technology) GetExtraLibraries() ([]ExtraLibrary, error) {
	db, err := t.database()
	if err != nil {
		return nil, err
	}
	if !db.Has("vlsi.technology.extra_libraries") {
		// If the key doesn't exist we can safely say there are none.
		return nil, nil
	}
	values, err := db.GetSlice("vlsi.technology.extra_libraries")
	if err != nil {
		return nil, fmt.Errorf("extra_libraries: %w", err)
	}
	extras := make([]ExtraLibrary, 0, len(values))
	for i, value := range values {
		el, err := ExtraLibraryFromSetting(value)
		if err != nil {
			return nil, fmt.Errorf("extra_libraries[%d]: %w", i, err)
		}
		extras = append(extras, el)
	}
	return extras, nil
}

// AvailableLibraries returns every IP library visible to filters: the
// technology-defined libraries plus extra libraries from the settings
// database, each with its declared prefix folded into ExtraPrefixes.
func (t *Technology) AvailableLibraries() ([]Library, error) {
	extras, err := t.GetExtraLibraries()
	if err != nil {
		return nil, err
	}
	libs := make([]Library, 0, len(t.config.Libraries)+len(extras))
	libs = append(libs, t.config.Libraries...)
	for _, el := range extras {
		libs = append(libs, el.StoreIntoLibrary())
	}
	return libs, nil
}

// DontUseList returns the blacklisted ("don't use") cells, or nil if the
// technology does not define such a list.
func (t *Technology) DontUseList() []Cell {
	return t.config.DontUseList
}

// PhysicalOnlyCellsList returns the physical-only cells, or nil if the
// technology does not define such a list.
func (t *Technology) PhysicalOnlyCellsList() []Cell {
	return t.config.PhysicalOnlyCellsList
}

// AdditionalDRCText returns free-text DRC annotations, or "".
func (t *Technology) AdditionalDRCText() string {
	if t.config.AdditionalDRCText == nil {
		return ""
	}
	return *t.config.AdditionalDRCText
}

// AdditionalLVSText returns free-text LVS annotations, or "".
func (t *Technology) AdditionalLVSText() string {
	if t.config.AdditionalLVSText == nil {
		return ""
	}
	return *t.config.AdditionalLVSText
}

// GetDRCDecksForTool returns the DRC decks declared for the given tool with
// resolved paths. A tool with zero matching decks yields an empty list; a
// descriptor with no decks section at all is a configuration error.
func (t *Technology) GetDRCDecksForTool(toolName string) ([]DRCDeck, error) {
	if t.config.DRCDecks == nil {
		return nil, errors.New("tech descriptor does not specify any DRC decks")
	}
	decks := make([]DRCDeck, 0)
	for _, deck := range t.config.DRCDecks {
		if deck.ToolName != toolName {
			continue
		}
		resolved, err := t.PrependDirPath(deck.Path, nil)
		if err != nil {
			return nil, fmt.Errorf("DRC deck %q: %w", deck.DeckName, err)
		}
		deck.Path = resolved
		decks = append(decks, deck)
	}
	return decks, nil
}

// GetLVSDecksForTool returns the LVS decks declared for the given tool with
// resolved paths, with the same semantics as GetDRCDecksForTool.
func (t *Technology) GetLVSDecksForTool(toolName string) ([]LVSDeck, error) {
	if t.config.LVSDecks == nil {
		return nil, errors.New("tech descriptor does not specify any LVS decks")
	}
	decks := make([]LVSDeck, 0)
	for _, deck := range t.config.LVSDecks {
		if deck.ToolName != toolName {
			continue
		}
		resolved, err := t.PrependDirPath(deck.Path, nil)
		if err != nil {
			return nil, fmt.Errorf("LVS deck %q: %w", deck.DeckName, err)
		}
		deck.Path = resolved
		decks = append(decks, deck)
	}
	return decks, nil
}

// GetGridUnit returns the manufacturing grid unit.
func (t *Technology) GetGridUnit() (decimal.Decimal, error) {
	if t.config.GridUnit == nil {
		return decimal.Zero, errors.New("tech descriptor does not specify a manufacturing grid unit")
	}
	unit, err := decimal.NewFromString(*t.config.GridUnit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid grid unit %q: %w", *t.config.GridUnit, err)
	}
	return unit, nil
}

// GetShrinkFactor returns the manufacturing shrink factor, defaulting to 1.
func (t *Technology) GetShrinkFactor() (decimal.Decimal, error) {
	if t.config.ShrinkFactor == nil {
		return decimal.NewFromInt(1), nil
	}
	factor, err := decimal.NewFromString(*t.config.ShrinkFactor)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid shrink factor %q: %w", *t.config.ShrinkFactor, err)
	}
	return factor, nil
}

// GetPostShrinkLength converts a drawn dimension into a manufactured
// (post-shrink) dimension.
func (t *Technology) GetPostShrinkLength(length decimal.Decimal) (decimal.Decimal, error) {
	factor, err := t.GetShrinkFactor()
	if err != nil {
		return decimal.Zero, err
	}
	return factor.Mul(length), nil
}

// GetStackupByName returns the stackup details for the given name.
func (t *Technology) GetStackupByName(name string) (Stackup, error) {
	if t.config.Stackups == nil {
		return Stackup{}, errors.New("tech descriptor does not specify any stackups")
	}
	for _, stackup := range t.config.Stackups {
		if stackup.Name == name {
			return stackup, nil
		}
	}
	return Stackup{}, fmt.Errorf("stackup named %q is not defined in tech descriptor", name)
}

// GetSiteByName returns the placement site for the given name.
func (t *Technology) GetSiteByName(name string) (Site, error) {
	if t.config.Sites == nil {
		return Site{}, errors.New("tech descriptor does not specify any sites")
	}
	for _, site := range t.config.Sites {
		if site.Name == name {
			return site, nil
		}
	}
	return Site{}, fmt.Errorf("site named %q is not defined in tech descriptor", name)
}

// GetPlacementSite returns the default placement site named by the
// vlsi.technology.placement_site setting.
func (t *Technology) GetPlacementSite() (Site, error) {
	name, err := t.getSettingString("vlsi.technology.placement_site")
	if err != nil {
		return Site{}, err
	}
	return t.GetSiteByName(name)
}

// GetSpecialCellsByType returns the special cells declared with the given
// cell type. A descriptor without special cells yields an empty list.
func (t *Technology) GetSpecialCellsByType(cellType CellType) []SpecialCell {
	cells := make([]SpecialCell, 0)
	for _, sc := range t.config.SpecialCells {
		if sc.CellType == cellType {
			cells = append(cells, sc)
		}
	}
	return cells
}

// LoadLibUnits reads time and capacitance units from the first NLDM liberty
// file. Call after the database and cache dir are attached.
func (t *Technology) LoadLibUnits(ctx context.Context) error {
	libs, err := t.ReadLibs(ctx,
		[]LibraryFilter{TimingLibWithPreference("NLDM")},
		ToPlainItem, nil, true)
	if err != nil {
		return err
	}
	if len(libs) == 0 {
		log.Error(log.CatLiberty, "No NLDM libs defined. Time/cap units will be defined by the tool or another technology.")
		return nil
	}
	contents, err := os.ReadFile(libs[0]) //nolint:gosec // G304: path came from a verified filter run
	if err != nil {
		return fmt.Errorf("reading liberty file %s: %w", libs[0], err)
	}
	if tu, ok := liberty.TimeUnit(string(contents)); ok {
		t.timeUnit = tu
	} else {
		log.Error(log.CatLiberty, "Error in parsing first NLDM Liberty file for time units", "path", libs[0])
	}
	if cu, ok := liberty.CapUnit(string(contents)); ok {
		t.capUnit = cu
	} else {
		log.Error(log.CatLiberty, "Error in parsing first NLDM Liberty file for capacitance units", "path", libs[0])
	}
	return nil
}

// TimeUnit returns the liberty time unit, or "" when not yet loaded.
func (t *Technology) TimeUnit() string { return t.timeUnit }

// CapUnit returns the liberty capacitance unit, or "" when not yet loaded.
func (t *Technology) CapUnit() string { return t.capUnit }

// useMultiCornerMode reports whether multi-mode multi-corner analysis is
// configured, in which case supply matching is bypassed entirely.
func (t *Technology) useMultiCornerMode() bool {
	if t.db == nil {
		return false
	}
	raw, err := t.db.Get("vlsi.inputs.mmmc_corners")
	if err != nil {
		return false
	}
	switch v := raw.(type) {
	case bool:
		return v
	case []any:
		return len(v) > 0
	default:
		return false
	}
}

// FilterForSupplies is the default pre-filter: it keeps libraries whose
// declared supplies match the run's configured supplies. Libraries with no
// supplies annotation are kept with a warning, and core technology-type
// libraries are always kept.
func (t *Technology) FilterForSupplies(lib Library) bool {
	// Under MMMC assume all libraries will be used rather than matching
	// against any single corner.
	if t.useMultiCornerMode() {
		return true
	}
	if lib.Supplies == nil {
		if lib.ProvidesType("technology") {
			return true
		}
		log.Warn(log.CatFilter, "Lib has no supplies annotation! Using anyway.", "lib", lib.logJSON())
		return true
	}
	vdd, err := t.getSettingString("vlsi.inputs.supplies.VDD")
	if err != nil {
		log.ErrorErr(log.CatFilter, "Cannot read VDD supply setting", err)
		return false
	}
	gnd, err := t.getSettingString("vlsi.inputs.supplies.GND")
	if err != nil {
		log.ErrorErr(log.CatFilter, "Cannot read GND supply setting", err)
		return false
	}
	return vdd == lib.Supplies.VDD && gnd == lib.Supplies.GND
}

// DefaultPreFilters returns the pre-filters applied to every query.
func (t *Technology) DefaultPreFilters() []FilterFunc {
	return []FilterFunc{t.FilterForSupplies}
}
