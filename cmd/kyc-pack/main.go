// Command kyc-pack zips an edited directory into a new archive. The target
// name must satisfy the naming contract and must not already exist; when the
// archive being corrected is supplied, the tool prints the QA comparison
// between the old and new figures.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"kycvault/internal/archive"
	"kycvault/internal/checksum"
	"kycvault/internal/extract"
	"kycvault/internal/pack"
	"kycvault/internal/survey"
)

func main() {
	prev := flag.String("prev", "", "previous archive version to compare figures against")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: kyc-pack [-prev OLD_ARCHIVE] SRC_DIR NEW_ARCHIVE\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	srcDir, target := flag.Arg(0), flag.Arg(1)

	name, err := archive.ParseName(filepath.Base(target))
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyc-pack: %v\n", err)
		os.Exit(1)
	}

	result, err := pack.Directory(srcDir, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyc-pack: %v\n", err)
		os.Exit(1)
	}

	digest, err := checksum.File(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyc-pack: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("archive: %s (version %d)\n", filepath.Base(target), name.Version)
	fmt.Printf("sha256:  %s\n", digest)
	fmt.Printf("files:   %d (%d bytes)\n", result.Files, result.Bytes)

	if *prev != "" {
		if err := compareWithPrevious(*prev, srcDir); err != nil {
			fmt.Fprintf(os.Stderr, "kyc-pack: %v\n", err)
			os.Exit(1)
		}
	}
}

// compareWithPrevious extracts the old archive to a scratch directory and
// prints the figure deltas against the freshly packed tree.
func compareWithPrevious(prevArchive, srcDir string) error {
	scratch, err := os.MkdirTemp("", "kyc-pack-prev-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	if _, err := extract.Archive(prevArchive, filepath.Join(scratch, "prev"), extract.Options{}); err != nil {
		return err
	}

	before, err := survey.ReadDirectorySummary(filepath.Join(scratch, "prev"))
	if err != nil {
		return err
	}
	after, err := survey.ReadDirectorySummary(srcDir)
	if err != nil {
		return err
	}

	delta := survey.Compare(before, after)
	fmt.Printf("\nQA comparison against %s:\n", filepath.Base(prevArchive))
	fmt.Printf("  rows:        %d -> %d\n", delta.RowCountBefore, delta.RowCountAfter)
	fmt.Printf("  population:  %d -> %d\n", delta.PopulationBefore, delta.PopulationAfter)
	if len(delta.SettlementsAdded) > 0 {
		fmt.Printf("  added:       %s\n", strings.Join(delta.SettlementsAdded, ", "))
	}
	if len(delta.SettlementsRemoved) > 0 {
		fmt.Printf("  removed:     %s\n", strings.Join(delta.SettlementsRemoved, ", "))
	}
	if violations := survey.DerivedViolations(before.Columns, after.Columns); len(violations) > 0 {
		fmt.Printf("  new columns missing calc_ prefix: %s\n", strings.Join(violations, ", "))
	}
	if delta.Unchanged() {
		fmt.Println("  figures unchanged")
	}
	return nil
}
