// Package lef extracts macro dimensions from LEF physical library files. It
// is a line-oriented scanner, not a full LEF parser.
package lef

import (
	"bufio"
	"strings"

	"github.com/shopspring/decimal"
)

// MacroSize is the footprint of one macro as declared by its SIZE statement.
type MacroSize struct {
	Name   string
	Width  decimal.Decimal
	Height decimal.Decimal
}

// ParseSizes scans LEF contents for MACRO blocks and returns one entry per
// SIZE statement found. A SIZE statement outside any MACRO block (e.g. on a
// SITE) is reported with an empty name so the caller can decide what to do
// with it.
func ParseSizes(contents string) []MacroSize {
	var sizes []MacroSize
	name := ""

	scanner := bufio.NewScanner(strings.NewReader(contents))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "MACRO":
			if len(fields) >= 2 {
				name = fields[1]
			}
		case "SIZE":
			// SIZE <width> BY <height> ;
			if len(fields) < 4 || !strings.EqualFold(fields[2], "BY") {
				continue
			}
			width, err := decimal.NewFromString(fields[1])
			if err != nil {
				continue
			}
			height, err := decimal.NewFromString(strings.TrimSuffix(fields[3], ";"))
			if err != nil {
				continue
			}
			sizes = append(sizes, MacroSize{Name: name, Width: width, Height: height})
		case "END":
			if len(fields) >= 2 && fields[1] == name {
				name = ""
			}
		}
	}
	return sizes
}
