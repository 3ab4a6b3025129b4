// Package extract unpacks survey archives. The destination must not
// pre-exist unless the operator explicitly accepts overwriting, and entry
// paths are confined to the destination (zip-slip).
package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	vaulterrors "kycvault/pkg/errors"
)

// Options tunes one extraction.
type Options struct {
	// Overwrite permits extracting into an existing destination. Off by
	// default: a pre-existing directory usually means a stale extract the
	// operator forgot about.
	Overwrite bool
}

// Result summarizes a completed extraction.
type Result struct {
	ArchivePath string
	Destination string
	Files       int
	Bytes       int64
}

// Archive extracts archivePath under destDir. Fails without touching
// anything when the destination exists (unless Overwrite) or the archive is
// corrupt; a partial extraction after an I/O failure is re-run, not resumed.
func Archive(archivePath, destDir string, opts Options) (Result, error) {
	if !opts.Overwrite {
		if _, err := os.Stat(destDir); err == nil {
			return Result{}, vaulterrors.New(vaulterrors.CodeConflict,
				"destination already exists: "+destDir)
		} else if !os.IsNotExist(err) {
			return Result{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "stat destination", err)
		}
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return Result{}, vaulterrors.Wrap(vaulterrors.CodeCorruptArchive,
			"cannot open archive "+filepath.Base(archivePath), err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "create destination", err)
	}

	result := Result{ArchivePath: archivePath, Destination: destDir}
	for _, entry := range reader.File {
		target, err := securePath(destDir, entry.Name)
		if err != nil {
			return Result{}, err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return Result{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "create directory", err)
			}
			continue
		}
		n, err := writeEntry(entry, target)
		if err != nil {
			return Result{}, err
		}
		result.Files++
		result.Bytes += n
	}
	return result, nil
}

// securePath confines an entry name to the destination directory. Only a
// whole ".." path component is traversal; a filename like report..final.csv
// is legitimate.
func securePath(destDir, name string) (string, error) {
	if filepath.IsAbs(name) || hasParentComponent(name) {
		return "", vaulterrors.New(vaulterrors.CodeCorruptArchive,
			"archive entry escapes destination: "+name)
	}
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", vaulterrors.New(vaulterrors.CodeCorruptArchive,
			"archive entry escapes destination: "+name)
	}
	return target, nil
}

func hasParentComponent(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

func writeEntry(entry *zip.File, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, vaulterrors.Wrap(vaulterrors.CodeInternal, "create parent directory", err)
	}

	src, err := entry.Open()
	if err != nil {
		return 0, vaulterrors.Wrap(vaulterrors.CodeCorruptArchive,
			"open archive entry "+entry.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, vaulterrors.Wrap(vaulterrors.CodeInternal, "create "+target, err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return 0, vaulterrors.Wrap(vaulterrors.CodeCorruptArchive,
			fmt.Sprintf("extract %s: archive may be corrupt", entry.Name), err)
	}
	return n, nil
}
