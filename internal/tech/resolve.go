package tech

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cedard234/hammer/internal/log"
)

// ResolutionError reports a failure to turn an abbreviated path into a real
// filesystem location.
type ResolutionError struct {
	Path   string // the unresolved input path
	Prefix string // the prefix identifier in question, if any
	Reason string
}

func (e *ResolutionError) Error() string {
	if e.Prefix != "" {
		return fmt.Sprintf("path %q with prefix id %q %s", e.Path, e.Prefix, e.Reason)
	}
	return fmt.Sprintf("path %q %s", e.Path, e.Reason)
}

// PrependDirPath resolves an abbreviated path into an absolute filesystem
// path. lib, when non-nil, is the library that produced the path and
// contributes its ExtraPrefixes to the search.
//
// The input can be one of five kinds, checked in this order:
//
//  1. Absolute path: returned unchanged.
//     /path/to/a/lib/file.lib -> /path/to/a/lib/file.lib
//  2. Package-relative path: no separator; a resource bundled next to the
//     descriptor document. Must exist there.
//     techlib.lib -> <package dir>/techlib.lib
//  3. Cache-relative path: first segment is the literal "cache".
//     cache/primitives.v -> <cache dir>/primitives.v
//  4. Install/tarball-relative path: first segment matches an install id or a
//     tarball root id. Install paths go through the settings database (the
//     descriptor's install path field is a settings key, not a literal path);
//     tarball ids map under the extracted-tarballs directory.
//     pdkroot/dac/dac.lib -> /nfs/ecad/tsmc100/stdcells/dac/dac.lib
//  5. Library extra-prefix path: first segment matches an id in the owning
//     library's extra_prefixes.
//     lib1/cap150f.lib -> /design_files/caps/cap150f.lib
//
// The order is load-bearing: cache paths must win over generic prefix search,
// and bare filenames must never be parsed as a one-segment prefix. Zero or
// multiple prefix matches across cases 4-5 is a resolution error naming the
// identifier.
func (t *Technology) PrependDirPath(path string, lib *Library) (string, error) {
	if path == "" {
		return "", &ResolutionError{Path: path, Reason: "must not be empty"}
	}

	// 1. Absolute paths pass through untouched.
	if filepath.IsAbs(path) {
		return path, nil
	}

	// 2. No separator: a resource bundled with the technology package.
	if !strings.ContainsRune(path, os.PathSeparator) {
		resource := filepath.Join(t.packageDir, path)
		info, err := os.Stat(resource)
		if err != nil || info.IsDir() {
			return "", &ResolutionError{
				Path:   path,
				Reason: fmt.Sprintf("was not found in technology package %s", t.packageDir),
			}
		}
		return resource, nil
	}

	// 3-5. Split into prefix identifier and the rest of the path.
	id, rest, _ := strings.Cut(path, string(os.PathSeparator))

	// 3. "cache" is reserved for the technology cache directory.
	if id == "cache" {
		cache, err := t.CacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cache, rest), nil
	}

	// 4-5. Collect every prefix matching the identifier from installs,
	// tarballs, and the owning library's extra prefixes.
	var prefixes []PathPrefix
	for _, install := range t.config.Installs {
		if install.ID != id {
			continue
		}
		// The install's path field is a settings key set by the project
		// configuration; resolve the indirection here.
		installPath, err := t.getSettingString(install.Path)
		if err != nil {
			return "", fmt.Errorf("install %q path key %q: %w", install.ID, install.Path, err)
		}
		prefixes = append(prefixes, PathPrefix{ID: id, Path: installPath})
	}
	if len(t.config.Tarballs) > 0 {
		extractedDir, err := t.ExtractedTarballsDir()
		if err != nil {
			return "", err
		}
		for _, tarball := range t.config.Tarballs {
			if tarball.Root.ID == id {
				// Resolve against the extracted contents, not the archive.
				prefixes = append(prefixes, PathPrefix{ID: id, Path: filepath.Join(extractedDir, tarball.Root.ID)})
			}
		}
	}
	if lib != nil {
		for _, pp := range lib.ExtraPrefixes {
			if pp.ID == id {
				prefixes = append(prefixes, pp)
			}
		}
	}

	if len(prefixes) < 1 {
		return "", &ResolutionError{Path: path, Prefix: id, Reason: "did not match any tarballs or installs"}
	}
	if len(prefixes) > 1 {
		return "", &ResolutionError{Path: path, Prefix: id, Reason: fmt.Sprintf("matched more than one tarball or install: %v", prefixes)}
	}

	resolved := prefixes[0].Prepend(rest)
	log.Debug(log.CatPath, "Resolved path", "path", path, "resolved", resolved)
	return resolved, nil
}

// ExpandTechCachePath replaces a leading "cache" segment with the full cache
// directory path.
func (t *Technology) ExpandTechCachePath(path string) (string, error) {
	cache, err := t.CacheDir()
	if err != nil {
		return "", err
	}
	if path == "cache" {
		return cache, nil
	}
	if rest, ok := strings.CutPrefix(path, "cache"+string(os.PathSeparator)); ok {
		return filepath.Join(cache, rest), nil
	}
	return path, nil
}
