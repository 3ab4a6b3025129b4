// Command kyc-extract unpacks a survey archive and prints the settlement
// figures of the extract, so the operator can compare them against the
// validated numbers before editing anything.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"kycvault/internal/archive"
	"kycvault/internal/checksum"
	"kycvault/internal/extract"
	"kycvault/internal/survey"
)

func main() {
	dest := flag.String("dest", "", "destination directory (default: archive name without .zip)")
	overwrite := flag.Bool("overwrite", false, "allow extracting into an existing directory")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: kyc-extract [-dest DIR] [-overwrite] ARCHIVE\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	archivePath := flag.Arg(0)

	name := filepath.Base(archivePath)
	if _, err := archive.ParseName(name); err != nil {
		fmt.Fprintf(os.Stderr, "kyc-extract: %v\n", err)
		os.Exit(1)
	}

	destDir := *dest
	if destDir == "" {
		destDir = archivePath[:len(archivePath)-len(".zip")]
	}

	digest, err := checksum.File(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyc-extract: %v\n", err)
		os.Exit(1)
	}

	result, err := extract.Archive(archivePath, destDir, extract.Options{Overwrite: *overwrite})
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyc-extract: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("archive:  %s\n", name)
	fmt.Printf("sha256:   %s\n", digest)
	fmt.Printf("files:    %d (%d bytes) -> %s\n", result.Files, result.Bytes, result.Destination)

	summary, err := survey.ReadDirectorySummary(destDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyc-extract: summarize tables: %v\n", err)
		os.Exit(1)
	}
	printSummary(summary)
}

func printSummary(s survey.Summary) {
	fmt.Printf("rows:        %d\n", s.RowCount)
	fmt.Printf("settlements: %d\n", len(s.SettlementIDs))
	fmt.Printf("population:  %d\n", s.PopulationSum)
}
