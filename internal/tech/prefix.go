package tech

import "path/filepath"

// PathPrefix maps a short identifier to a root path.
//
// A PathPrefix{ID: "Alib", Path: "/scratch/projectA/mylib"} maps the
// identifier "Alib" to the path "/scratch/projectA/mylib", so the abbreviated
// path "Alib/cap150f.lib" resolves to "/scratch/projectA/mylib/cap150f.lib".
type PathPrefix struct {
	ID   string `json:"id" yaml:"id"`
	Path string `json:"path" yaml:"path"`
}

// Prepend joins the prefix path with the rest of an abbreviated path.
func (p PathPrefix) Prepend(restOfPath string) string {
	return filepath.Join(p.Path, restOfPath)
}
