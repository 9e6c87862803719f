package tech

import "github.com/shopspring/decimal"

// CellType classifies a special (non-standard-logic) cell.
type CellType string

const (
	CellTypeTapCell     CellType = "tapcell"
	CellTypeStdFiller   CellType = "stdfiller"
	CellTypeDecap       CellType = "decap"
	CellTypeTieHiCell   CellType = "tiehicell"
	CellTypeTieLoCell   CellType = "tielocell"
	CellTypeTieHiLoCell CellType = "tiehilocell"
	CellTypeEndCap      CellType = "endcap"
	CellTypeIOFiller    CellType = "iofiller"
	CellTypeStdCell     CellType = "stdcell"
	CellTypeDriver      CellType = "driver"
	CellTypeCTSBuffer   CellType = "ctsbuffer"
	CellTypeCTSInverter CellType = "ctsinverter"
	CellTypeCTSGate     CellType = "ctsgate"
	CellTypeCTSLogic    CellType = "ctslogic"
)

// SpecialCell declares cells of a given type along with optional per-cell
// metadata consumed by place-and-route drivers.
type SpecialCell struct {
	CellType    CellType          `json:"cell_type" yaml:"cell_type"`
	Name        []string          `json:"name" yaml:"name"`
	Size        []decimal.Decimal `json:"size,omitempty" yaml:"size,omitempty"`
	InputPorts  []string          `json:"input_ports,omitempty" yaml:"input_ports,omitempty"`
	OutputPorts []string          `json:"output_ports,omitempty" yaml:"output_ports,omitempty"`
}
