package tech

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cedard234/hammer/internal/log"
	"github.com/cedard234/hammer/internal/tracing"
)

// ExtractTechnologyFiles ensures that the technology files exist via tarballs
// and/or installs, then runs the post-install hook. A technology declaring
// neither installs nor tarballs is a configuration error.
func (t *Technology) ExtractTechnologyFiles(ctx context.Context) error {
	if t.config.Installs == nil && t.config.Tarballs == nil {
		return errors.New("technology specified neither tarballs nor installs")
	}
	if t.config.Installs != nil {
		// Missing install dirs are reported but do not halt extraction.
		t.CheckInstalls()
	}
	if t.config.Tarballs != nil {
		if err := t.ExtractTarballs(ctx); err != nil {
			return err
		}
	}
	if t.postInstall != nil {
		if err := t.postInstall(t); err != nil {
			return fmt.Errorf("post-install hook: %w", err)
		}
	}
	return nil
}

// CheckInstalls checks that all directories for a pre-installed technology
// actually exist. Each install's path field is a settings key that the
// project configuration points at the real install location. Returns false
// on the first missing path; failures are logged, not fatal.
func (t *Technology) CheckInstalls() bool {
	if len(t.config.Installs) == 0 {
		return false
	}
	for _, install := range t.config.Installs {
		pathKey := install.Path
		installPath, err := t.getSettingString(pathKey)
		if err != nil {
			log.ErrorErr(log.CatArchive, "Install path key is not configured", err, "key", pathKey)
			return false
		}
		if _, err := os.Stat(installPath); err != nil {
			log.Error(log.CatArchive, "Install path does not exist", "path", installPath, "key", pathKey)
			return false
		}
	}
	return true
}

// ExtractTarballs extracts each declared archive into the extracted-tarballs
// directory, or verifies that it has already been extracted. Extraction is
// idempotent: an existing target directory short-circuits before the source
// archive is even located.
func (t *Technology) ExtractTarballs(ctx context.Context) error {
	if len(t.config.Tarballs) == 0 {
		return nil
	}
	extractedDir, err := t.ExtractedTarballsDir()
	if err != nil {
		return err
	}
	for _, tarball := range t.config.Tarballs {
		if err := t.extractTarball(ctx, tarball, extractedDir); err != nil {
			return err
		}
	}
	return nil
}

func (t *Technology) extractTarball(ctx context.Context, tarball Tarball, extractedDir string) error {
	_, span := t.tracerOrNoop().Start(ctx, tracing.SpanPrefixArchive+tarball.Root.ID,
		trace.WithAttributes(
			attribute.String(tracing.AttrArchiveID, tarball.Root.ID),
			attribute.Bool(tracing.AttrArchiveOptional, tarball.Optional),
		))
	defer span.End()

	if err := t.extractTarballInner(tarball, extractedDir); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (t *Technology) extractTarballInner(tarball Tarball, extractedDir string) error {
	targetPath := filepath.Join(extractedDir, tarball.Root.ID)
	if info, err := os.Stat(targetPath); err == nil && info.IsDir() {
		// Already materialized.
		log.Debug(log.CatArchive, "Tarball already extracted", "target", targetPath)
		return nil
	}

	// The tarball's root path is a settings key naming the directory the
	// archive file lives in; its id is the archive file name.
	sourceDir, err := t.getSettingString(tarball.Root.Path)
	if err != nil {
		return fmt.Errorf("tarball %q source key %q: %w", tarball.Root.ID, tarball.Root.Path, err)
	}
	tarballPath := filepath.Join(sourceDir, tarball.Root.ID)
	if info, err := os.Stat(tarballPath); err != nil || info.IsDir() {
		if tarball.Optional {
			log.Debug(log.CatArchive, "Optional tarball missing, skipping", "path", tarballPath)
			return nil
		}
		return fmt.Errorf("path %q does not point to a valid tarball", tarballPath)
	}

	if err := os.MkdirAll(targetPath, 0o700); err != nil {
		return fmt.Errorf("creating extraction target %q: %w", targetPath, err)
	}
	log.Debug(log.CatArchive, "Extracting/verifying tarball", "path", tarballPath)
	if err := extractTarArchive(tarballPath, targetPath); err != nil {
		return fmt.Errorf("extracting %q: %w", tarballPath, err)
	}
	if err := flattenNestedArchives(targetPath); err != nil {
		return fmt.Errorf("flattening nested archives under %q: %w", targetPath, err)
	}
	return nil
}

// flattenNestedArchives walks an extracted tree, forcing owner-only
// read/write/execute on every entry and transparently replacing every nested
// archive file with its extracted contents at the same logical path.
// Recursion into freshly extracted contents bounds the work by archive
// nesting depth; re-running is safe because the caller's target-exists check
// prevents re-entry.
func flattenNestedArchives(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if err := os.Chmod(path, 0o700); err != nil {
			return err
		}
		if entry.IsDir() {
			if err := flattenNestedArchives(path); err != nil {
				return err
			}
			continue
		}
		if !isTarArchive(path) {
			continue
		}
		// Extract the nested archive beside itself, then rename the sibling
		// directory into the archive's place.
		log.Debug(log.CatArchive, "Extracting/verifying nested tarball", "path", path)
		siblingDir := path + "_dir"
		if err := os.MkdirAll(siblingDir, 0o700); err != nil {
			return err
		}
		if err := extractTarArchive(path, siblingDir); err != nil {
			return err
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		if err := os.Rename(siblingDir, path); err != nil {
			return err
		}
		if err := flattenNestedArchives(path); err != nil {
			return err
		}
	}
	return nil
}

// isTarArchive reports whether the file parses as a tar archive, gzipped or
// plain.
func isTarArchive(path string) bool {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the extraction walk
	if err != nil {
		return false
	}
	defer f.Close()

	var reader io.Reader = f
	if gz, err := gzip.NewReader(f); err == nil {
		defer gz.Close()
		reader = gz
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return false
		}
	}
	_, err = tar.NewReader(reader).Next()
	return err == nil
}

// extractTarArchive extracts a tar or tar.gz archive into target, preserving
// symlinks and forcing owner-only permissions on everything it writes.
func extractTarArchive(archivePath, target string) error {
	f, err := os.Open(archivePath) //nolint:gosec // G304: archive path was located via the settings database
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	if gz, err := gzip.NewReader(f); err == nil {
		defer gz.Close()
		reader = gz
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		dest, err := sanitizeExtractPath(target, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
				return err
			}
			out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o700) //nolint:gosec // G304: dest is sanitized above
			if err != nil {
				return err
			}
			//nolint:gosec // G110: technology archives are trusted operator inputs
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
				return err
			}
			if err := os.Symlink(header.Linkname, dest); err != nil && !errors.Is(err, os.ErrExist) {
				return err
			}
		default:
			// Hard links, devices and the like do not appear in PDK
			// archives; skip rather than fail.
			log.Warn(log.CatArchive, "Skipping unsupported tar entry", "name", header.Name, "type", header.Typeflag)
		}
	}
}

// sanitizeExtractPath guards against path traversal ("tar slip") in archive
// entry names.
func sanitizeExtractPath(target, name string) (string, error) {
	dest := filepath.Join(target, filepath.Clean(name))
	if dest != target && !strings.HasPrefix(dest, target+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction target", name)
	}
	return dest, nil
}

// ExtractGzFiles decompresses any .gz files in the list into the cache
// directory and returns the paths of the decompressed files alongside the
// unchanged non-gz inputs. Already-decompressed files are reused.
func (t *Technology) ExtractGzFiles(extractList []string) ([]string, error) {
	cache, err := t.CacheDir()
	if err != nil {
		return nil, err
	}
	destDir := filepath.Join(cache, "extracted_tarfiles")
	if err := os.MkdirAll(destDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating %q: %w", destDir, err)
	}

	fullList := make([]string, 0, len(extractList))
	for _, path := range extractList {
		if !strings.HasSuffix(path, ".gz") {
			fullList = append(fullList, path)
			continue
		}
		dest := filepath.Join(destDir, strings.TrimSuffix(filepath.Base(path), ".gz"))
		if _, err := os.Stat(dest); err == nil {
			fullList = append(fullList, dest)
			continue
		}
		if err := gunzipFile(path, dest); err != nil {
			return nil, fmt.Errorf("decompressing %q: %w", path, err)
		}
		fullList = append(fullList, dest)
	}
	return fullList, nil
}

func gunzipFile(src, dest string) error {
	f, err := os.Open(src) //nolint:gosec // G304: src is caller-supplied input
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o700) //nolint:gosec // G304: dest is under the cache dir
	if err != nil {
		return err
	}
	//nolint:gosec // G110: technology archives are trusted operator inputs
	if _, err := io.Copy(out, gz); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
