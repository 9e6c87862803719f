package tech

import (
	"encoding/json"
	"fmt"

	"github.com/cedard234/hammer/internal/log"
)

// Corner describes the process/temperature corner a library is characterized
// at.
type Corner struct {
	NMOS        string `json:"nmos" yaml:"nmos"`
	PMOS        string `json:"pmos" yaml:"pmos"`
	Temperature string `json:"temperature" yaml:"temperature"`
}

// MinMaxCap holds a min-cap/max-cap pair of extraction files.
type MinMaxCap struct {
	MaxCap string `json:"max_cap" yaml:"max_cap"`
	MinCap string `json:"min_cap" yaml:"min_cap"`
}

// Provide declares a library role, e.g. a "technology" library that carries
// the tech LEF.
type Provide struct {
	LibType string  `json:"lib_type" yaml:"lib_type"`
	VT      *string `json:"vt,omitempty" yaml:"vt,omitempty"`
}

// Supplies holds the VDD/GND supply values a library was characterized for.
type Supplies struct {
	GND string `json:"GND" yaml:"GND"`
	VDD string `json:"VDD" yaml:"VDD"`
}

// SpiceModelFile holds information about a spice model file and its corner.
type SpiceModelFile struct {
	Path      string `json:"path" yaml:"path"`
	LibCorner string `json:"lib_corner" yaml:"lib_corner"`
}

// Library is one IP/cell library's set of available artifacts. Every field is
// optional: a nil field means this library does not provide that artifact
// type, never an error. All path-valued fields are unresolved abbreviated
// paths until passed through Technology.PrependDirPath.
type Library struct {
	Name               *string         `json:"name,omitempty" yaml:"name,omitempty"`
	CCSLibertyFile     *string         `json:"ccs_liberty_file,omitempty" yaml:"ccs_liberty_file,omitempty"`
	CCSLibraryFile     *string         `json:"ccs_library_file,omitempty" yaml:"ccs_library_file,omitempty"`
	ECSMLibertyFile    *string         `json:"ecsm_liberty_file,omitempty" yaml:"ecsm_liberty_file,omitempty"`
	ECSMLibraryFile    *string         `json:"ecsm_library_file,omitempty" yaml:"ecsm_library_file,omitempty"`
	Corner             *Corner         `json:"corner,omitempty" yaml:"corner,omitempty"`
	ITFFiles           *MinMaxCap      `json:"itf_files,omitempty" yaml:"itf_files,omitempty"`
	LEFFile            *string         `json:"lef_file,omitempty" yaml:"lef_file,omitempty"`
	KLayoutTechfile    *string         `json:"klayout_techfile,omitempty" yaml:"klayout_techfile,omitempty"`
	SpiceFile          *string         `json:"spice_file,omitempty" yaml:"spice_file,omitempty"`
	GDSFile            *string         `json:"gds_file,omitempty" yaml:"gds_file,omitempty"`
	MilkywayLibInDir   *string         `json:"milkyway_lib_in_dir,omitempty" yaml:"milkyway_lib_in_dir,omitempty"`
	MilkywayTechfile   *string         `json:"milkyway_techfile,omitempty" yaml:"milkyway_techfile,omitempty"`
	NLDMLibertyFile    *string         `json:"nldm_liberty_file,omitempty" yaml:"nldm_liberty_file,omitempty"`
	NLDMLibraryFile    *string         `json:"nldm_library_file,omitempty" yaml:"nldm_library_file,omitempty"`
	OpenAccessTechfile *string         `json:"openaccess_techfile,omitempty" yaml:"openaccess_techfile,omitempty"`
	Provides           []Provide       `json:"provides,omitempty" yaml:"provides,omitempty"`
	QRCTechfile        *string         `json:"qrc_techfile,omitempty" yaml:"qrc_techfile,omitempty"`
	Supplies           *Supplies       `json:"supplies,omitempty" yaml:"supplies,omitempty"`
	TLUPlusFiles       *MinMaxCap      `json:"tluplus_files,omitempty" yaml:"tluplus_files,omitempty"`
	TLUPlusMapFile     *string         `json:"tluplus_map_file,omitempty" yaml:"tluplus_map_file,omitempty"`
	VerilogSim         *string         `json:"verilog_sim,omitempty" yaml:"verilog_sim,omitempty"`
	VerilogSynth       *string         `json:"verilog_synth,omitempty" yaml:"verilog_synth,omitempty"`
	SpiceModelFile     *SpiceModelFile `json:"spice_model_file,omitempty" yaml:"spice_model_file,omitempty"`
	PowerGridLibrary   *string         `json:"power_grid_library,omitempty" yaml:"power_grid_library,omitempty"`
	ExtraPrefixes      []PathPrefix    `json:"extra_prefixes,omitempty" yaml:"extra_prefixes,omitempty"`
}

// DisplayName returns the library name, or "" when unnamed.
func (l Library) DisplayName() string {
	if l.Name == nil {
		return ""
	}
	return *l.Name
}

// ProvidesType reports whether the library declares the given lib_type role.
func (l Library) ProvidesType(libType string) bool {
	for _, provided := range l.Provides {
		if provided.LibType == libType {
			return true
		}
	}
	return false
}

// Copy performs a deep copy of the library via a JSON round trip, so the
// result shares no pointers or slices with the original.
func (l Library) Copy() Library {
	raw, err := json.Marshal(l)
	if err != nil {
		// Library is a plain data record; marshaling cannot fail.
		panic(fmt.Sprintf("tech: marshaling Library: %v", err))
	}
	var out Library
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("tech: unmarshaling Library copy: %v", err))
	}
	return out
}

// LibraryFromJSON parses a Library from a JSON document.
func LibraryFromJSON(raw []byte) (Library, error) {
	var lib Library
	if err := json.Unmarshal(raw, &lib); err != nil {
		return Library{}, fmt.Errorf("parsing library: %w", err)
	}
	return lib, nil
}

// LibraryFromSetting parses a Library from a generic settings value (a
// decoded map), as found in vlsi.technology.extra_libraries.
func LibraryFromSetting(value any) (Library, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Library{}, fmt.Errorf("encoding library setting: %w", err)
	}
	return LibraryFromJSON(raw)
}

// ExtraLibrary is a library declared in the settings database rather than the
// technology descriptor, with an optional path prefix of its own.
type ExtraLibrary struct {
	Prefix  *PathPrefix `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Library Library     `json:"library" yaml:"library"`
}

// StoreIntoLibrary folds the extra library's prefix into ExtraPrefixes of a
// deep copy of the library, so downstream path resolution sees it.
func (e ExtraLibrary) StoreIntoLibrary() Library {
	lib := e.Library.Copy()
	var prefixes []PathPrefix
	if e.Prefix != nil {
		prefixes = append(prefixes, *e.Prefix)
	}
	lib.ExtraPrefixes = prefixes
	return lib
}

// ExtraLibraryFromSetting parses an ExtraLibrary from a generic settings
// value.
func ExtraLibraryFromSetting(value any) (ExtraLibrary, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return ExtraLibrary{}, fmt.Errorf("encoding extra library setting: %w", err)
	}
	var el ExtraLibrary
	if err := json.Unmarshal(raw, &el); err != nil {
		return ExtraLibrary{}, fmt.Errorf("parsing extra library: %w", err)
	}
	return el, nil
}

func (l Library) logJSON() string {
	raw, err := json.Marshal(l)
	if err != nil {
		log.Error(log.CatTech, "Failed to marshal library for logging")
		return l.DisplayName()
	}
	return string(raw)
}
