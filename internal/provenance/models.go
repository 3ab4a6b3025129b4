// Package provenance keeps the append-only history of every archive: who
// registered it, when it was verified, and what replaced it. Events are
// hash-chained per archive so tampering with history is detectable.
package provenance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	id "kycvault/pkg/domain"
)

// Category classifies provenance events by their handling requirements.
// Compliance events are written fail-closed; operations events are
// best-effort; security events feed alerting.
type Category string

const (
	// CategoryCompliance covers events that change what is authoritative.
	// The triggering operation must fail if the event cannot be persisted.
	CategoryCompliance Category = "compliance"

	// CategorySecurity covers integrity violations worth alerting on.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations Category = "operations"
)

// Action names a provenance event type.
type Action string

const (
	ActionArchiveRegistered Action = "archive_registered"
	ActionArchiveSuperseded Action = "archive_superseded"
	ActionArchiveVerified   Action = "archive_verified"
	ActionChecksumMismatch  Action = "checksum_mismatch"
	ActionArchiveExtracted  Action = "archive_extracted"
	ActionArchivePacked     Action = "archive_packed"
	ActionFiguresValidated  Action = "figures_validated"
)

// actionCategories maps each action to its category. Registration and
// supersession change which bytes are authoritative, so they are compliance.
var actionCategories = map[Action]Category{
	ActionArchiveRegistered: CategoryCompliance,
	ActionArchiveSuperseded: CategoryCompliance,
	ActionChecksumMismatch:  CategorySecurity,
	ActionArchiveVerified:   CategoryOperations,
	ActionArchiveExtracted:  CategoryOperations,
	ActionArchivePacked:     CategoryOperations,
	ActionFiguresValidated:  CategoryOperations,
}

// Category returns the handling category for this action. Unknown actions
// default to operations.
func (a Action) Category() Category {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is one entry in an archive's history. Keep it transport-agnostic so
// stores and the Kafka sink can fan out.
type Event struct {
	ID          id.EventID `json:"id"`
	ArchiveName string     `json:"archive_name"`
	Action      Action     `json:"action"`
	Actor       string     `json:"actor,omitempty"`
	Digest      string     `json:"digest,omitempty"`
	Detail      string     `json:"detail,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
	Hash        string     `json:"hash"`
	PrevHash    string     `json:"prev_hash,omitempty"`
}

// chainHash covers the identifying fields plus the previous hash, so the
// chain breaks if any historical entry is edited or reordered.
func chainHash(e Event) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		e.ArchiveName, e.Action, e.Actor, e.Digest, e.Detail,
		e.Timestamp.UTC().Format(time.RFC3339Nano), e.PrevHash)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// VerifyChain walks events in append order and reports the index of the
// first entry whose hash or back-link does not hold, or -1 when the chain is
// intact.
func VerifyChain(events []Event) int {
	prev := ""
	for i, e := range events {
		if e.PrevHash != prev {
			return i
		}
		if chainHash(e) != e.Hash {
			return i
		}
		prev = e.Hash
	}
	return -1
}
