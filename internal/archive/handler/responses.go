package handler

import (
	"kycvault/internal/archive"
	"kycvault/internal/provenance"
	"kycvault/internal/qa"
)

// RecordResponse is the HTTP shape of a registry record. Authoritative is
// derived so callers do not have to reimplement the supersession check.
type RecordResponse struct {
	archive.Record
	Authoritative bool `json:"authoritative"`
}

func FromRecord(record archive.Record) RecordResponse {
	return RecordResponse{Record: record, Authoritative: record.Authoritative()}
}

// ListResponse is the HTTP shape of GET /archives.
type ListResponse struct {
	Archives []RecordResponse `json:"archives"`
	Count    int              `json:"count"`
}

func FromRecords(records []archive.Record) ListResponse {
	out := ListResponse{Archives: make([]RecordResponse, 0, len(records))}
	for _, record := range records {
		out.Archives = append(out.Archives, FromRecord(record))
	}
	out.Count = len(out.Archives)
	return out
}

// HistoryResponse is the HTTP shape of GET /archives/{name}/provenance.
// ChainIntact is recomputed on every read; a false value means stored
// history was tampered with.
type HistoryResponse struct {
	Events      []provenance.Event `json:"events"`
	ChainIntact bool               `json:"chain_intact"`
}

func FromHistory(events []provenance.Event) HistoryResponse {
	return HistoryResponse{
		Events:      events,
		ChainIntact: provenance.VerifyChain(events) < 0,
	}
}

// VerificationsResponse is the HTTP shape of GET /archives/{name}/verifications.
type VerificationsResponse struct {
	Verifications []archive.Verification `json:"verifications"`
	Count         int                    `json:"count"`
}

// NotesResponse is the HTTP shape of GET /archives/{name}/qa-notes.
type NotesResponse struct {
	Notes []qa.Note `json:"notes"`
	Count int       `json:"count"`
}
