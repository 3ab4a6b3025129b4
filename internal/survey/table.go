// Package survey reads settlement tables and computes the figures QA
// compares: row counts, settlement-identifier sets, and population sums.
// It enforces nothing beyond the calc_ naming convention for derived
// columns; survey data is dirty by nature and cleaning it is a human job.
package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	vaulterrors "kycvault/pkg/errors"
)

// DerivedPrefix marks computed columns. Anything the cleaning pass adds to
// the raw table must carry it.
const DerivedPrefix = "calc_"

const (
	settlementIDColumn = "settlement_id"
	populationColumn   = "population"
)

// Summary holds the validated figures for one settlement table.
type Summary struct {
	RowCount      int
	Columns       []string
	SettlementIDs []string
	// PopulationSum counts only rows with a parseable population value;
	// blanks and "unknown" entries are the surveyor's problem, not ours.
	PopulationSum int64
}

// SettlementIDSet returns the identifiers as a set for membership checks.
func (s Summary) SettlementIDSet() map[string]bool {
	set := make(map[string]bool, len(s.SettlementIDs))
	for _, id := range s.SettlementIDs {
		set[id] = true
	}
	return set
}

// ReadSummary parses one CSV settlement table. The settlement_id column is
// required; identifiers are taken verbatim. A population (or
// calc_population) column contributes to the sum when present.
func ReadSummary(r io.Reader) (Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return Summary{}, vaulterrors.New(vaulterrors.CodeBadRequest, "settlement table is empty")
	}
	if err != nil {
		return Summary{}, vaulterrors.Wrap(vaulterrors.CodeBadRequest, "read table header", err)
	}

	idCol := -1
	popCol := -1
	columns := make([]string, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		columns[i] = name
		switch name {
		case settlementIDColumn:
			idCol = i
		case populationColumn, DerivedPrefix + populationColumn:
			popCol = i
		}
	}
	if idCol < 0 {
		return Summary{}, vaulterrors.New(vaulterrors.CodeBadRequest,
			"settlement table missing "+settlementIDColumn+" column")
	}

	summary := Summary{Columns: columns}
	seen := make(map[string]bool)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, vaulterrors.Wrap(vaulterrors.CodeBadRequest,
				fmt.Sprintf("read table row %d", summary.RowCount+2), err)
		}
		summary.RowCount++
		if idCol < len(row) {
			id := strings.TrimSpace(row[idCol])
			if id != "" && !seen[id] {
				seen[id] = true
				summary.SettlementIDs = append(summary.SettlementIDs, id)
			}
		}
		if popCol >= 0 && popCol < len(row) {
			if v, err := strconv.ParseInt(strings.TrimSpace(row[popCol]), 10, 64); err == nil {
				summary.PopulationSum += v
			}
		}
	}
	sort.Strings(summary.SettlementIDs)
	return summary, nil
}

// ReadDirectorySummary aggregates every settlement table under dir. Files
// without a settlement_id header column are ignored; archives carry
// shapefiles and notes alongside the tables.
func ReadDirectorySummary(dir string) (Summary, error) {
	var total Summary
	seen := make(map[string]bool)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		summary, err := ReadSummary(f)
		if err != nil {
			// Not a settlement table; skip it.
			return nil
		}
		total.RowCount += summary.RowCount
		total.PopulationSum += summary.PopulationSum
		for _, id := range summary.SettlementIDs {
			if !seen[id] {
				seen[id] = true
				total.SettlementIDs = append(total.SettlementIDs, id)
			}
		}
		if total.Columns == nil {
			total.Columns = summary.Columns
		}
		return nil
	})
	if err != nil {
		return Summary{}, vaulterrors.Wrap(vaulterrors.CodeInternal, "walk "+dir, err)
	}
	sort.Strings(total.SettlementIDs)
	return total, nil
}

// DerivedViolations returns cleaned-table columns that are neither present
// in the raw table nor calc_-prefixed. Those are derived columns hiding
// under raw names, which is exactly what the convention forbids.
func DerivedViolations(rawColumns, cleanedColumns []string) []string {
	raw := make(map[string]bool, len(rawColumns))
	for _, c := range rawColumns {
		raw[c] = true
	}
	var violations []string
	for _, c := range cleanedColumns {
		if raw[c] || strings.HasPrefix(c, DerivedPrefix) {
			continue
		}
		violations = append(violations, c)
	}
	return violations
}

// Delta is the QA comparison between a previous archive's figures and a
// fresh extract or re-pack. It reports; the operator decides.
type Delta struct {
	RowCountBefore     int
	RowCountAfter      int
	PopulationBefore   int64
	PopulationAfter    int64
	SettlementsAdded   []string
	SettlementsRemoved []string
}

// Compare diffs two summaries.
func Compare(before, after Summary) Delta {
	beforeSet := before.SettlementIDSet()
	afterSet := after.SettlementIDSet()

	delta := Delta{
		RowCountBefore:   before.RowCount,
		RowCountAfter:    after.RowCount,
		PopulationBefore: before.PopulationSum,
		PopulationAfter:  after.PopulationSum,
	}
	for _, id := range after.SettlementIDs {
		if !beforeSet[id] {
			delta.SettlementsAdded = append(delta.SettlementsAdded, id)
		}
	}
	for _, id := range before.SettlementIDs {
		if !afterSet[id] {
			delta.SettlementsRemoved = append(delta.SettlementsRemoved, id)
		}
	}
	return delta
}

// Unchanged reports whether the figures line up exactly.
func (d Delta) Unchanged() bool {
	return d.RowCountBefore == d.RowCountAfter &&
		d.PopulationBefore == d.PopulationAfter &&
		len(d.SettlementsAdded) == 0 &&
		len(d.SettlementsRemoved) == 0
}
