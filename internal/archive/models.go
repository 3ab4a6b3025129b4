// Package archive defines the archive naming contract and registry records.
// Archives are immutable: a correction registers a new archive under the next
// version, never an in-place overwrite.
package archive

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	vaulterrors "kycvault/pkg/errors"
)

// Kind distinguishes the three archive families the vault tracks.
type Kind string

const (
	// KindOriginal is an unprocessed survey table as collected.
	KindOriginal Kind = "ori"
	// KindCleaned is an analysis-ready table derived from the raw extract.
	KindCleaned Kind = "cln"
	// KindPopulation is the aggregated settlement population reference.
	KindPopulation Kind = "population"
)

var validKinds = map[Kind]bool{
	KindOriginal:   true,
	KindCleaned:    true,
	KindPopulation: true,
}

// IsValid checks the kind against the supported enum values.
func (k Kind) IsValid() bool { return validKinds[k] }

const (
	cityPrefix       = "kyc_"
	dataSegment      = "_data_"
	populationPrefix = "kyc_settlement_population_extract_v"
	zipSuffix        = ".zip"
)

// Name is the parsed form of an archive filename.
// Invariant: Filename(ParseName(s)) == s for every accepted s.
//
// City may contain underscores (Port_Harcourt); Country is always the final
// single segment, so multi-word countries are written without underscores
// (SierraLeone). Version defaults to 1 when the filename carries no _vN
// suffix.
type Name struct {
	Kind    Kind
	City    string
	Country string
	Version int
}

// ParseName parses an archive filename against the naming contract:
//
//	kyc_ori_data_<City>_<Country>.zip
//	kyc_cln_data_<City>_<Country>.zip
//	kyc_settlement_population_extract_v<N>.zip
//
// City archives accept an optional _v<N> suffix before .zip.
func ParseName(filename string) (Name, error) {
	if !strings.HasSuffix(filename, zipSuffix) {
		return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "archive name must end in .zip")
	}
	base := strings.TrimSuffix(filename, zipSuffix)

	if strings.HasPrefix(base, strings.TrimSuffix(populationPrefix, "v")) {
		raw := strings.TrimPrefix(base, strings.TrimSuffix(populationPrefix, "v"))
		if !strings.HasPrefix(raw, "v") {
			return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "population extract requires a version suffix")
		}
		digits := strings.TrimPrefix(raw, "v")
		version, err := strconv.Atoi(digits)
		if err != nil || version < 1 || strconv.Itoa(version) != digits {
			return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "population extract version must be a positive integer")
		}
		return Name{Kind: KindPopulation, Version: version}, nil
	}

	if !strings.HasPrefix(base, cityPrefix) {
		return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "archive name must start with kyc_")
	}
	rest := strings.TrimPrefix(base, cityPrefix)

	idx := strings.Index(rest, dataSegment)
	if idx < 0 {
		return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "archive name missing _data_ segment")
	}
	kind := Kind(rest[:idx])
	if kind != KindOriginal && kind != KindCleaned {
		return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "archive kind must be ori or cln")
	}
	locale := rest[idx+len(dataSegment):]

	// Only the canonical rendering of a version counts as a suffix: _v01 and
	// _v+1 would parse to names whose Filename() differs from the input.
	version := 1
	if i := strings.LastIndex(locale, "_v"); i >= 0 {
		if v, err := strconv.Atoi(locale[i+2:]); err == nil {
			if v < 1 || strconv.Itoa(v) != locale[i+2:] {
				return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "version suffix must be a canonical positive integer")
			}
			if v == 1 {
				// First publications carry no suffix; _v1 never round-trips.
				return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "version 1 archives carry no version suffix")
			}
			version = v
			locale = locale[:i]
		}
	}

	// Country is the final segment; everything before it is the city, which
	// may itself contain underscores.
	cut := strings.LastIndex(locale, "_")
	if cut <= 0 || cut == len(locale)-1 {
		return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "archive name requires both city and country segments")
	}
	city, country := locale[:cut], locale[cut+1:]
	if city == "" || country == "" {
		return Name{}, vaulterrors.New(vaulterrors.CodeInvalidName, "archive name requires both city and country segments")
	}

	return Name{Kind: kind, City: city, Country: country, Version: version}, nil
}

// Filename renders the canonical filename for this name. Version 1 city
// archives omit the suffix so first publications match the historic layout.
func (n Name) Filename() string {
	if n.Kind == KindPopulation {
		return fmt.Sprintf("%s%d%s", populationPrefix, n.Version, zipSuffix)
	}
	if n.Version > 1 {
		return fmt.Sprintf("%s%s%s%s_%s_v%d%s", cityPrefix, n.Kind, dataSegment, n.City, n.Country, n.Version, zipSuffix)
	}
	return fmt.Sprintf("%s%s%s%s_%s%s", cityPrefix, n.Kind, dataSegment, n.City, n.Country, zipSuffix)
}

// NextVersion returns the name a correcting re-pack publishes under.
func (n Name) NextVersion() Name {
	n.Version++
	return n
}

// Record is a registered archive as the vault tracks it. The bytes
// themselves stay on disk; the registry holds identity, digest, and
// supersession state.
type Record struct {
	Name         string    `json:"name"`
	Kind         Kind      `json:"kind"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country,omitempty"`
	Version      int       `json:"version"`
	Digest       string    `json:"digest"`
	SizeBytes    int64     `json:"size_bytes"`
	RegisteredAt time.Time `json:"registered_at"`
	RegisteredBy string    `json:"registered_by,omitempty"`
	// SupersededBy names the archive that replaced this one; empty while the
	// record is authoritative.
	SupersededBy string `json:"superseded_by,omitempty"`
}

// Authoritative reports whether the record is still the one to trust.
func (r Record) Authoritative() bool { return r.SupersededBy == "" }

// Verification is the outcome of one integrity check against the recorded
// digest. Mismatches are recorded, never auto-repaired.
type Verification struct {
	ArchiveName string    `json:"archive_name"`
	Digest      string    `json:"digest"`
	Match       bool      `json:"match"`
	CheckedAt   time.Time `json:"checked_at"`
	CheckedBy   string    `json:"checked_by,omitempty"`
}
