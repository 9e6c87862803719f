package tech

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoutingDirection is the preferred routing direction of a metal layer.
type RoutingDirection string

const (
	RoutingVertical       RoutingDirection = "vertical"
	RoutingHorizontal     RoutingDirection = "horizontal"
	RoutingRedistribution RoutingDirection = "redistribution"
)

// Opposite returns the perpendicular routing direction. Redistribution layers
// have no perpendicular counterpart and map to themselves.
func (d RoutingDirection) Opposite() RoutingDirection {
	switch d {
	case RoutingVertical:
		return RoutingHorizontal
	case RoutingHorizontal:
		return RoutingVertical
	default:
		return d
	}
}

// WidthSpacingTuple gives the minimum spacing required beside a wire of at
// least the given width. Entries are sorted by WidthAtLeast ascending.
type WidthSpacingTuple struct {
	WidthAtLeast decimal.Decimal `json:"width_at_least" yaml:"width_at_least"`
	MinSpacing   decimal.Decimal `json:"min_spacing" yaml:"min_spacing"`
}

// Metal describes one layer of a metal stackup.
type Metal struct {
	Name                        string              `json:"name" yaml:"name"`
	Index                       int                 `json:"index" yaml:"index"`
	Direction                   RoutingDirection    `json:"direction" yaml:"direction"`
	MinWidth                    decimal.Decimal     `json:"min_width" yaml:"min_width"`
	MaxWidth                    *decimal.Decimal    `json:"max_width,omitempty" yaml:"max_width,omitempty"`
	Pitch                       decimal.Decimal     `json:"pitch" yaml:"pitch"`
	Offset                      decimal.Decimal     `json:"offset" yaml:"offset"`
	PowerStrapWidthsAndSpacings []WidthSpacingTuple `json:"power_strap_widths_and_spacings,omitempty" yaml:"power_strap_widths_and_spacings,omitempty"`
}

// MinSpacingForWidth returns the minimum spacing required beside a wire of
// the given width, from the width/spacing table. Zero when no threshold in
// the table is small enough.
func (m Metal) MinSpacingForWidth(width decimal.Decimal) decimal.Decimal {
	spacing := decimal.Zero
	for _, ws := range m.PowerStrapWidthsAndSpacings {
		if width.GreaterThanOrEqual(ws.WidthAtLeast) {
			spacing = ws.MinSpacing
		}
	}
	return spacing
}

// Stackup is a named metal stackup: the ordered list of routing layers
// available to a place-and-route flow.
type Stackup struct {
	Name     string          `json:"name" yaml:"name"`
	GridUnit decimal.Decimal `json:"grid_unit" yaml:"grid_unit"`
	Metals   []Metal         `json:"metals" yaml:"metals"`
}

// GetMetalByName returns the metal layer with the given name.
func (s Stackup) GetMetalByName(name string) (Metal, error) {
	for _, m := range s.Metals {
		if m.Name == name {
			return m, nil
		}
	}
	return Metal{}, fmt.Errorf("metal layer %q is not in stackup %q", name, s.Name)
}

// GetMetalByIndex returns the metal layer with the given index.
func (s Stackup) GetMetalByIndex(index int) (Metal, error) {
	for _, m := range s.Metals {
		if m.Index == index {
			return m, nil
		}
	}
	return Metal{}, fmt.Errorf("metal index %d is not in stackup %q", index, s.Name)
}
