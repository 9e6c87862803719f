package tech

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cedard234/hammer/internal/log"
)

// Cell is a standard cell name.
type Cell = string

// DRCDeck references a DRC rule deck for a specific tool.
type DRCDeck struct {
	ToolName string `json:"tool_name" yaml:"tool_name"`
	DeckName string `json:"deck_name" yaml:"deck_name"`
	Path     string `json:"path" yaml:"path"`
}

// LVSDeck references an LVS rule deck for a specific tool.
type LVSDeck struct {
	ToolName string `json:"tool_name" yaml:"tool_name"`
	DeckName string `json:"deck_name" yaml:"deck_name"`
	Path     string `json:"path" yaml:"path"`
}

// Tarball declares an archive that carries technology files. Root.ID is both
// the archive file name and the prefix identifier its extracted contents
// resolve under; Root.Path is a settings key naming the directory holding the
// archive.
type Tarball struct {
	Root     PathPrefix `json:"root" yaml:"root"`
	Homepage string     `json:"homepage" yaml:"homepage"`
	Optional bool       `json:"optional" yaml:"optional"`
}

// Site is a standard cell placement site, the minimum unit of x and y
// dimensions a standard cell can have. Dimensions are in grid units.
type Site struct {
	Name string          `json:"name" yaml:"name"`
	X    decimal.Decimal `json:"x" yaml:"x"`
	Y    decimal.Decimal `json:"y" yaml:"y"`
}

// SiteFromSetting builds a Site from a generic settings map, coercing the
// dimensions onto the manufacturing grid.
func SiteFromSetting(gridUnit decimal.Decimal, value map[string]any) (Site, error) {
	name, ok := value["name"].(string)
	if !ok {
		return Site{}, fmt.Errorf("site setting has no name")
	}
	x, err := decimalFromSetting(value["x"])
	if err != nil {
		return Site{}, fmt.Errorf("site %q x: %w", name, err)
	}
	y, err := decimalFromSetting(value["y"])
	if err != nil {
		return Site{}, fmt.Errorf("site %q y: %w", name, err)
	}
	return Site{
		Name: name,
		X:    CoerceToGrid(x, gridUnit),
		Y:    CoerceToGrid(y, gridUnit),
	}, nil
}

func decimalFromSetting(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v (%T)", value, value)
	}
}

// CoerceToGrid snaps a dimension onto the manufacturing grid by rounding to
// the nearest whole multiple of the grid unit.
func CoerceToGrid(value, gridUnit decimal.Decimal) decimal.Decimal {
	if gridUnit.IsZero() {
		return value
	}
	return value.Div(gridUnit).Round(0).Mul(gridUnit)
}

// Descriptor is the declarative configuration for one manufacturing
// technology, parsed from <name>.tech.json or <name>.tech.yml. Every path
// field anywhere in the aggregate is an unresolved abbreviated path until run
// through Technology.PrependDirPath.
type Descriptor struct {
	Name                  string        `json:"name" yaml:"name"`
	GridUnit              *string       `json:"grid_unit,omitempty" yaml:"grid_unit,omitempty"`
	ShrinkFactor          *string       `json:"shrink_factor,omitempty" yaml:"shrink_factor,omitempty"`
	Installs              []PathPrefix  `json:"installs,omitempty" yaml:"installs,omitempty"`
	Libraries             []Library     `json:"libraries,omitempty" yaml:"libraries,omitempty"`
	GDSMapFile            *string       `json:"gds_map_file,omitempty" yaml:"gds_map_file,omitempty"`
	PhysicalOnlyCellsList []Cell        `json:"physical_only_cells_list,omitempty" yaml:"physical_only_cells_list,omitempty"`
	DontUseList           []Cell        `json:"dont_use_list,omitempty" yaml:"dont_use_list,omitempty"`
	DRCDecks              []DRCDeck     `json:"drc_decks,omitempty" yaml:"drc_decks,omitempty"`
	LVSDecks              []LVSDeck     `json:"lvs_decks,omitempty" yaml:"lvs_decks,omitempty"`
	Tarballs              []Tarball     `json:"tarballs,omitempty" yaml:"tarballs,omitempty"`
	Sites                 []Site        `json:"sites,omitempty" yaml:"sites,omitempty"`
	Stackups              []Stackup     `json:"stackups,omitempty" yaml:"stackups,omitempty"`
	SpecialCells          []SpecialCell `json:"special_cells,omitempty" yaml:"special_cells,omitempty"`
	ExtraPrefixes         []PathPrefix  `json:"extra_prefixes,omitempty" yaml:"extra_prefixes,omitempty"`
	AdditionalLVSText     *string       `json:"additional_lvs_text,omitempty" yaml:"additional_lvs_text,omitempty"`
	AdditionalDRCText     *string       `json:"additional_drc_text,omitempty" yaml:"additional_drc_text,omitempty"`
}

// ParseDescriptorJSON parses a descriptor from a strict JSON document.
func ParseDescriptorJSON(raw []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing tech JSON: %w", err)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("tech descriptor has no name")
	}
	return &d, nil
}

// ParseDescriptorYAML parses a descriptor from the human-editable YAML form
// of the same schema. The document goes through a JSON round trip because
// decimal-valued fields only unmarshal from JSON.
func ParseDescriptorYAML(raw []byte) (*Descriptor, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing tech YAML: %w", err)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalizing tech YAML: %w", err)
	}
	return ParseDescriptorJSON(encoded)
}

// LoadDescriptorFile loads a descriptor document, dispatching on the file
// extension: .json is parsed strictly, .yml/.yaml through the YAML reader.
func LoadDescriptorFile(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: descriptor path is operator input
	if err != nil {
		return nil, fmt.Errorf("reading tech descriptor: %w", err)
	}
	log.Debug(log.CatTech, "Loading tech descriptor", "path", path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseDescriptorJSON(raw)
	case ".yml", ".yaml":
		return ParseDescriptorYAML(raw)
	default:
		return nil, fmt.Errorf("unrecognized tech descriptor format: %s", path)
	}
}
