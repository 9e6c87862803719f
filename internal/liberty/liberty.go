// Package liberty scrapes unit declarations out of Liberty (.lib) timing
// library files. It is not a full Liberty parser; it only reads the handful
// of header attributes the resolution layer needs.
package liberty

import (
	"regexp"
	"strings"
)

var (
	// time_unit : "1ns";
	timeUnitRe = regexp.MustCompile(`(?m)^\s*time_unit\s*:\s*"([^"]+)"\s*;`)

	// capacitive_load_unit (1,pf);
	capUnitRe = regexp.MustCompile(`(?m)^\s*capacitive_load_unit\s*\(\s*([^,\s]+)\s*,\s*([^)\s]+)\s*\)\s*;`)
)

// TimeUnit returns the time unit declared in the given Liberty file
// contents, e.g. "1ns". The second return is false when no time_unit
// attribute is present.
func TimeUnit(contents string) (string, bool) {
	m := timeUnitRe.FindStringSubmatch(contents)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// CapUnit returns the load capacitance unit declared in the given Liberty
// file contents, with the magnitude and unit joined, e.g. "1pf" for
// `capacitive_load_unit (1,pf);`. The second return is false when no
// capacitive_load_unit attribute is present.
func CapUnit(contents string) (string, bool) {
	m := capUnitRe.FindStringSubmatch(contents)
	if m == nil {
		return "", false
	}
	unit := strings.Trim(m[2], `"`)
	return m[1] + unit, true
}
