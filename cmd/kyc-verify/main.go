// Command kyc-verify checks archive files against recorded SHA-256 digests.
// It reads a sha256sum-style manifest or a single expected digest and prints
// one line per file; any mismatch makes the exit status non-zero.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"kycvault/internal/checksum"
)

func main() {
	manifestPath := flag.String("manifest", "", "sha256sum-style manifest to verify against")
	expected := flag.String("digest", "", "expected sha256 digest (single-file mode)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: kyc-verify [-manifest FILE | -digest HEX] ARCHIVE...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *manifestPath != "" && *expected != "" {
		fmt.Fprintln(os.Stderr, "kyc-verify: -manifest and -digest are mutually exclusive")
		os.Exit(2)
	}

	got, err := checksum.Files(context.Background(), files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyc-verify: %v\n", err)
		os.Exit(1)
	}

	want, err := expectedManifest(*manifestPath, *expected, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyc-verify: %v\n", err)
		os.Exit(1)
	}

	failed := false
	for _, d := range checksum.Compare(want, got) {
		switch {
		case d.Match():
			fmt.Printf("%s  %s  OK\n", d.Got, d.Filename)
		case d.Got == "":
			failed = true
			fmt.Fprintf(os.Stderr, "MISSING %s: listed in manifest but not supplied\n", d.Filename)
		case d.Want == "":
			failed = true
			fmt.Fprintf(os.Stderr, "UNLISTED %s: not in manifest\n", d.Filename)
		default:
			failed = true
			fmt.Fprintf(os.Stderr, "MISMATCH %s: want %s, got %s\n", d.Filename, d.Want, d.Got)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// expectedManifest builds the reference digests from the manifest file or a
// single -digest flag.
func expectedManifest(manifestPath, digest string, files []string) (checksum.Manifest, error) {
	if manifestPath != "" {
		f, err := os.Open(manifestPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return checksum.ReadManifest(f)
	}

	if digest == "" {
		return nil, fmt.Errorf("either -manifest or -digest is required")
	}
	if !checksum.ValidDigest(digest) {
		return nil, fmt.Errorf("-digest must be a sha256 hex string")
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("-digest mode verifies exactly one file")
	}
	return checksum.Manifest{{Filename: filepath.Base(files[0]), Digest: digest}}, nil
}
