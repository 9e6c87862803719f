package tech

import (
	"path/filepath"
	"strings"

	"github.com/cedard234/hammer/internal/log"
)

// Pre-implemented library filters. Each call returns a fresh LibraryFilter
// value, so callers can customize a copy (e.g. swap its ExtractionFunc)
// without affecting anyone else.

// technologyFirstSort puts libraries that provide the "technology" role ahead
// of the rest; the sort is stable so everything else keeps list order.
func technologyFirstSort(lib Library) int {
	if lib.ProvidesType("technology") {
		return 0 // put the technology library in front
	}
	return 100 // put it behind
}

// TimingDBFilter selects compiled timing libraries (.db). Prefers CCS if
// available; picks NLDM as a fallback.
func TimingDBFilter() LibraryFilter {
	pathsFunc := func(lib Library) []string {
		// Choose ccs if available, if not, nldm.
		if lib.CCSLibraryFile != nil {
			return []string{*lib.CCSLibraryFile}
		}
		if lib.NLDMLibraryFile != nil {
			return []string{*lib.NLDMLibraryFile}
		}
		return nil
	}
	return LibraryFilter{
		Tag:         "timing_db",
		Description: "CCS/NLDM timing lib (compiled .db)",
		IsFile:      true,
		PathsFunc:   pathsFunc,
	}
}

// TimingLibFilter selects ASCII liberty (.lib) timing libraries. Prefers CCS
// if available; picks NLDM as a fallback.
func TimingLibFilter() LibraryFilter {
	pathsFunc := func(lib Library) []string {
		// Choose ccs if available, if not, nldm.
		if lib.CCSLibertyFile != nil {
			return []string{*lib.CCSLibertyFile}
		}
		if lib.NLDMLibertyFile != nil {
			return []string{*lib.NLDMLibertyFile}
		}
		return nil
	}
	return LibraryFilter{
		Tag:         "timing_lib",
		Description: "CCS/NLDM timing lib (ASCII .lib)",
		IsFile:      true,
		PathsFunc:   pathsFunc,
	}
}

// TimingLibWithECSMFilter selects ASCII .lib timing libraries, preferring
// ECSM, then CCS, then NLDM when multiple are present.
func TimingLibWithECSMFilter() LibraryFilter {
	pathsFunc := func(lib Library) []string {
		if lib.ECSMLibertyFile != nil {
			return []string{*lib.ECSMLibertyFile}
		}
		if lib.CCSLibertyFile != nil {
			return []string{*lib.CCSLibertyFile}
		}
		if lib.NLDMLibertyFile != nil {
			return []string{*lib.NLDMLibertyFile}
		}
		return nil
	}
	return LibraryFilter{
		Tag:         "timing_lib_with_ecsm",
		Description: "ECSM/CCS/NLDM timing lib (liberty ASCII .lib)",
		IsFile:      true,
		PathsFunc:   pathsFunc,
	}
}

// TimingLibWithPreference selects ASCII .lib timing libraries with the given
// preferred characterization first, falling back through the remaining kinds
// in NLDM, ECSM, CCS order. An unknown preference is reported and treated as
// NLDM.
func TimingLibWithPreference(libPref string) LibraryFilter {
	pref := strings.ToUpper(libPref)
	order := []string{"NLDM", "ECSM", "CCS"}
	found := false
	for i, kind := range order {
		if kind == pref {
			order = append([]string{kind}, append(append([]string{}, order[:i]...), order[i+1:]...)...)
			found = true
			break
		}
	}
	if !found {
		log.Error(log.CatFilter, "Library preference must be one of NLDM, ECSM, or CCS; using NLDM", "pref", libPref)
	}

	pathsFunc := func(lib Library) []string {
		for _, kind := range order {
			switch kind {
			case "NLDM":
				if lib.NLDMLibertyFile != nil {
					return []string{*lib.NLDMLibertyFile}
				}
			case "ECSM":
				if lib.ECSMLibertyFile != nil {
					return []string{*lib.ECSMLibertyFile}
				}
			case "CCS":
				if lib.CCSLibertyFile != nil {
					return []string{*lib.CCSLibertyFile}
				}
			}
		}
		return nil
	}
	return LibraryFilter{
		Tag:         "timing_lib_with_" + strings.ToLower(order[0]),
		Description: "ECSM/CCS/NLDM timing lib (liberty ASCII .lib)",
		IsFile:      true,
		PathsFunc:   pathsFunc,
	}
}

// QRCTechFilter selects qrc RC corner tech (qrcTech) files.
func QRCTechFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "qrc",
		Description: "qrc RC corner tech file",
		IsFile:      true,
		PathsFunc: func(lib Library) []string {
			if lib.QRCTechfile != nil {
				return []string{*lib.QRCTechfile}
			}
			return nil
		},
	}
}

// VerilogSynthFilter selects verilog_synth files: synthesizable wrappers
// (e.g. for SRAM) needed in some technologies.
func VerilogSynthFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "verilog_synth",
		Description: "Synthesizable Verilog wrappers",
		IsFile:      true,
		PathsFunc: func(lib Library) []string {
			if lib.VerilogSynth != nil {
				return []string{*lib.VerilogSynth}
			}
			return nil
		},
	}
}

// VerilogSimFilter selects verilog sim files for gate level simulation.
func VerilogSimFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "verilog_sim",
		Description: "Gate-level verilog sources",
		IsFile:      true,
		FilterFunc:  func(lib Library) bool { return lib.VerilogSim != nil },
		PathsFunc: func(lib Library) []string {
			return []string{*lib.VerilogSim}
		},
	}
}

// LEFFilter selects LEF files for physical layout. The technology LEF sorts
// first.
func LEFFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "lef",
		Description: "LEF physical design layout library",
		IsFile:      true,
		FilterFunc:  func(lib Library) bool { return lib.LEFFile != nil },
		PathsFunc: func(lib Library) []string {
			return []string{*lib.LEFFile}
		},
		SortFunc: technologyFirstSort,
	}
}

// GDSFilter selects GDS files for opaque physical information.
func GDSFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "gds",
		Description: "GDS opaque physical design layout",
		IsFile:      true,
		FilterFunc:  func(lib Library) bool { return lib.GDSFile != nil },
		PathsFunc: func(lib Library) []string {
			return []string{*lib.GDSFile}
		},
	}
}

// SpiceFilter selects SPICE netlist files.
func SpiceFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "spice",
		Description: "SPICE files",
		IsFile:      true,
		FilterFunc:  func(lib Library) bool { return lib.SpiceFile != nil },
		PathsFunc: func(lib Library) []string {
			return []string{*lib.SpiceFile}
		},
	}
}

// MilkywayLibDirFilter selects the directories containing Milkyway
// libraries.
func MilkywayLibDirFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "milkyway_dir",
		Description: "Milkyway lib",
		IsFile:      false,
		PathsFunc: func(lib Library) []string {
			if lib.MilkywayLibInDir != nil {
				return []string{filepath.Dir(*lib.MilkywayLibInDir)}
			}
			return nil
		},
	}
}

// MilkywayTechfileFilter selects Milkyway techfiles. At least one must be
// present.
func MilkywayTechfileFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "milkyway_tf",
		Description: "Milkyway techfile",
		IsFile:      true,
		PathsFunc: func(lib Library) []string {
			if lib.MilkywayTechfile != nil {
				return []string{*lib.MilkywayTechfile}
			}
			return nil
		},
		ExtraPostFilterFuncs: []PostFilterFunc{CreateNonemptyCheck("Milkyway techfile")},
	}
}

// TLUMaxCapFilter selects TLU+ max cap files.
func TLUMaxCapFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "tlu_max",
		Description: "TLU+ max cap db",
		IsFile:      true,
		PathsFunc: func(lib Library) []string {
			if lib.TLUPlusFiles != nil && lib.TLUPlusFiles.MaxCap != "" {
				return []string{lib.TLUPlusFiles.MaxCap}
			}
			return nil
		},
	}
}

// TLUMinCapFilter selects TLU+ min cap files.
func TLUMinCapFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "tlu_min",
		Description: "TLU+ min cap db",
		IsFile:      true,
		PathsFunc: func(lib Library) []string {
			if lib.TLUPlusFiles != nil && lib.TLUPlusFiles.MinCap != "" {
				return []string{lib.TLUPlusFiles.MinCap}
			}
			return nil
		},
	}
}

// TLUMapFileFilter selects TLU+ map files.
func TLUMapFileFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "tlu_map",
		Description: "TLU+ map file",
		IsFile:      true,
		PathsFunc: func(lib Library) []string {
			if lib.TLUPlusMapFile != nil {
				return []string{*lib.TLUPlusMapFile}
			}
			return nil
		},
	}
}

// SpiceModelFileFilter selects spice model files.
func SpiceModelFileFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "spice_model_file",
		Description: "Spice model file",
		IsFile:      true,
		PathsFunc: func(lib Library) []string {
			if lib.SpiceModelFile != nil && lib.SpiceModelFile.Path != "" {
				return []string{lib.SpiceModelFile.Path}
			}
			return nil
		},
	}
}

// SpiceModelLibCornerFilter selects spice model lib corners. The output is a
// corner name, not a path.
func SpiceModelLibCornerFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "spice_model_lib_corner",
		Description: "Spice model lib corner",
		IsFile:      false,
		PathsFunc: func(lib Library) []string {
			if lib.SpiceModelFile != nil && lib.SpiceModelFile.LibCorner != "" {
				return []string{lib.SpiceModelFile.LibCorner}
			}
			return nil
		},
	}
}

// PowerGridLibraryFilter selects power grid libraries for EM/IR analysis.
// The technology library sorts first.
func PowerGridLibraryFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "power_grid_library",
		Description: "Power grid library",
		IsFile:      false,
		FilterFunc:  func(lib Library) bool { return lib.PowerGridLibrary != nil },
		PathsFunc: func(lib Library) []string {
			return []string{*lib.PowerGridLibrary}
		},
		SortFunc: technologyFirstSort,
	}
}

// KLayoutTechfileFilter selects KLayout tech files for GDS streaming.
func KLayoutTechfileFilter() LibraryFilter {
	return LibraryFilter{
		Tag:         "klayout",
		Description: "GDS streaming",
		IsFile:      true,
		FilterFunc:  func(lib Library) bool { return lib.KLayoutTechfile != nil },
		PathsFunc: func(lib Library) []string {
			return []string{*lib.KLayoutTechfile}
		},
	}
}

// PredefinedFilters maps filter tags to their constructors, for callers that
// select filters by name (e.g. the CLI).
func PredefinedFilters() map[string]func() LibraryFilter {
	return map[string]func() LibraryFilter{
		"timing_db":              TimingDBFilter,
		"timing_lib":             TimingLibFilter,
		"timing_lib_with_ecsm":   TimingLibWithECSMFilter,
		"qrc":                    QRCTechFilter,
		"verilog_synth":          VerilogSynthFilter,
		"verilog_sim":            VerilogSimFilter,
		"lef":                    LEFFilter,
		"gds":                    GDSFilter,
		"spice":                  SpiceFilter,
		"milkyway_dir":           MilkywayLibDirFilter,
		"milkyway_tf":            MilkywayTechfileFilter,
		"tlu_max":                TLUMaxCapFilter,
		"tlu_min":                TLUMinCapFilter,
		"tlu_map":                TLUMapFileFilter,
		"spice_model_file":       SpiceModelFileFilter,
		"spice_model_lib_corner": SpiceModelLibCornerFilter,
		"power_grid_library":     PowerGridLibraryFilter,
		"klayout":                KLayoutTechfileFilter,
	}
}
