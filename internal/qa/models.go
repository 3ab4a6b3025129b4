// Package qa keeps validated figures for archives and compares fresh
// extracts against them. A note records the numbers a reviewer signed off
// on; later extracts of the same archive must reproduce them exactly.
package qa

import (
	"time"

	"kycvault/internal/survey"
	"kycvault/pkg/domain"
)

// Note is one reviewer sign-off on an archive's figures.
type Note struct {
	ID              domain.NoteID `json:"id"`
	ArchiveName     string        `json:"archive_name"`
	RowCount        int           `json:"row_count"`
	SettlementCount int           `json:"settlement_count"`
	PopulationSum   int64         `json:"population_sum"`
	Reviewer        string        `json:"reviewer"`
	ValidatedAt     time.Time     `json:"validated_at"`
}

// NoteFromSummary builds an unsigned note from computed figures.
func NoteFromSummary(archiveName string, s survey.Summary) Note {
	return Note{
		ArchiveName:     archiveName,
		RowCount:        s.RowCount,
		SettlementCount: len(s.SettlementIDs),
		PopulationSum:   s.PopulationSum,
	}
}

// Mismatch is one figure that a fresh extract failed to reproduce.
type Mismatch struct {
	Figure   string `json:"figure"`
	Expected int64  `json:"expected"`
	Actual   int64  `json:"actual"`
}

// Check compares computed figures against a validated note. An empty
// result means the extract reproduces the signed-off numbers.
func Check(note Note, s survey.Summary) []Mismatch {
	var mismatches []Mismatch
	if note.RowCount != s.RowCount {
		mismatches = append(mismatches, Mismatch{
			Figure:   "row_count",
			Expected: int64(note.RowCount),
			Actual:   int64(s.RowCount),
		})
	}
	if note.SettlementCount != len(s.SettlementIDs) {
		mismatches = append(mismatches, Mismatch{
			Figure:   "settlement_count",
			Expected: int64(note.SettlementCount),
			Actual:   int64(len(s.SettlementIDs)),
		})
	}
	if note.PopulationSum != s.PopulationSum {
		mismatches = append(mismatches, Mismatch{
			Figure:   "population_sum",
			Expected: note.PopulationSum,
			Actual:   s.PopulationSum,
		})
	}
	return mismatches
}
