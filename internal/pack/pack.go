// Package pack builds archives from a directory of edited files. Entry
// metadata is pinned so packing the same bytes twice yields byte-identical
// archives, which keeps extract/re-pack round trips checksum-stable.
package pack

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	vaulterrors "kycvault/pkg/errors"
)

// Epoch is the fixed modification time stamped on every entry. Without a
// pinned stamp, two packs of identical bytes differ and checksum equality
// stops meaning content equality.
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Result summarizes a completed pack.
type Result struct {
	ArchivePath string
	Files       int
	Bytes       int64
}

// Directory zips srcDir into archivePath. Entries are written in sorted
// path order with fixed timestamps and permissions; hidden files are
// skipped, matching how the survey teams hand-built these archives.
func Directory(srcDir, archivePath string) (Result, error) {
	entries, err := collectFiles(srcDir)
	if err != nil {
		return Result{}, err
	}
	if len(entries) == 0 {
		return Result{}, vaulterrors.New(vaulterrors.CodeBadRequest,
			"nothing to pack in "+srcDir)
	}

	out, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return Result{}, vaulterrors.New(vaulterrors.CodeImmutableArchive,
				"archive already exists: "+archivePath)
		}
		return Result{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "create archive", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	result := Result{ArchivePath: archivePath}
	for _, rel := range entries {
		n, err := writeEntry(w, srcDir, rel)
		if err != nil {
			w.Close()
			return Result{}, err
		}
		result.Files++
		result.Bytes += n
	}
	if err := w.Close(); err != nil {
		return Result{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "finalize archive", err)
	}
	if err := out.Close(); err != nil {
		return Result{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "close archive", err)
	}
	return result, nil
}

func collectFiles(srcDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() != "." && d.Name()[0] == '.' && path != srcDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name()[0] == '.' {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.CodeInternal, "walk "+srcDir, err)
	}
	sort.Strings(files)
	return files, nil
}

func writeEntry(w *zip.Writer, srcDir, rel string) (int64, error) {
	src, err := os.Open(filepath.Join(srcDir, filepath.FromSlash(rel)))
	if err != nil {
		return 0, vaulterrors.Wrap(vaulterrors.CodeInternal, "open "+rel, err)
	}
	defer src.Close()

	header := &zip.FileHeader{
		Name:     rel,
		Method:   zip.Deflate,
		Modified: Epoch,
	}
	header.SetMode(0o644)

	dst, err := w.CreateHeader(header)
	if err != nil {
		return 0, vaulterrors.Wrap(vaulterrors.CodeInternal, "add entry "+rel, err)
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		return 0, vaulterrors.Wrap(vaulterrors.CodeInternal, "write entry "+rel, err)
	}
	return n, nil
}
