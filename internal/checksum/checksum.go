// Package checksum computes and compares SHA-256 digests over archive bytes.
// Digests are the only integrity primitive the vault relies on: identical
// bytes always produce identical digests, and nothing here ever repairs a
// mismatch, it only reports one.
package checksum

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Algorithm is fixed; the naming convention's companion command is
// sha256sum, and manifests must stay interchangeable with its output.
const Algorithm = "sha256"

// ValidDigest reports whether s looks like a lowercase-insensitive SHA-256
// hex digest.
func ValidDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Equal compares two hex digests case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// File digests one file.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Entry pairs a digest with the base filename, matching one line of
// sha256sum output.
type Entry struct {
	Digest   string
	Filename string
}

// Manifest is a set of digest entries sorted by filename.
type Manifest []Entry

// Files digests every path concurrently, bounded by the number of paths.
// The resulting manifest is sorted by base filename so two runs over the
// same set compare positionally.
func Files(ctx context.Context, paths []string) (Manifest, error) {
	// Manifests key by base filename; two inputs sharing a basename would
	// collapse into one line and silently drop a digest.
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		base := filepath.Base(path)
		if prior, ok := seen[base]; ok {
			return nil, fmt.Errorf("duplicate archive filename %s (%s and %s)", base, prior, path)
		}
		seen[base] = path
	}

	entries := make([]Entry, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			digest, err := File(path)
			if err != nil {
				return err
			}
			entries[i] = Entry{Digest: digest, Filename: filepath.Base(path)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Filename < entries[j].Filename })
	return entries, nil
}

// Write renders the manifest in sha256sum format: "<digest>  <filename>".
func (m Manifest) Write(w io.Writer) error {
	for _, e := range m {
		if _, err := fmt.Fprintf(w, "%s  %s\n", e.Digest, e.Filename); err != nil {
			return err
		}
	}
	return nil
}

// ReadManifest parses sha256sum-format lines. Blank lines are skipped;
// anything else malformed is an error, since a silently dropped line would
// hide a missing archive.
func ReadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 || !ValidDigest(fields[0]) {
			return nil, fmt.Errorf("malformed manifest line: %q", line)
		}
		m = append(m, Entry{Digest: strings.ToLower(fields[0]), Filename: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.Slice(m, func(i, j int) bool { return m[i].Filename < m[j].Filename })
	return m, nil
}

// Diff is one comparison outcome between two manifests.
type Diff struct {
	Filename string
	Want     string // digest in the reference manifest, empty if absent
	Got      string // digest in the observed manifest, empty if absent
}

// Match reports whether both sides hold the file with equal digests.
func (d Diff) Match() bool {
	return d.Want != "" && d.Got != "" && Equal(d.Want, d.Got)
}

// Compare pairs two manifests by filename. Every filename present on either
// side appears exactly once in the result.
func Compare(want, got Manifest) []Diff {
	byName := make(map[string]*Diff)
	order := []string{}
	for _, e := range want {
		byName[e.Filename] = &Diff{Filename: e.Filename, Want: e.Digest}
		order = append(order, e.Filename)
	}
	for _, e := range got {
		if d, ok := byName[e.Filename]; ok {
			d.Got = e.Digest
			continue
		}
		byName[e.Filename] = &Diff{Filename: e.Filename, Got: e.Digest}
		order = append(order, e.Filename)
	}
	sort.Strings(order)
	out := make([]Diff, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}
