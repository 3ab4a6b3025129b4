// Package domain holds typed identifiers shared across packages. Wrapping
// uuid.UUID keeps an event ID from being passed where a note ID is expected.
package domain

import "github.com/google/uuid"

// EventID identifies a provenance event.
type EventID uuid.UUID

// NoteID identifies a QA note.
type NoteID uuid.UUID

func NewEventID() EventID { return EventID(uuid.New()) }
func NewNoteID() NoteID   { return NoteID(uuid.New()) }

func (id EventID) String() string { return uuid.UUID(id).String() }
func (id NoteID) String() string  { return uuid.UUID(id).String() }

func (id EventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id NoteID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText renders the ID as its canonical UUID string, so JSON payloads
// and database columns carry text rather than raw bytes.
func (id EventID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id NoteID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EventID(u)
	return nil
}

func (id *NoteID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = NoteID(u)
	return nil
}

// ParseEventID parses a string into an EventID, rejecting non-UUID input.
func ParseEventID(s string) (EventID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

// ParseNoteID parses a string into a NoteID, rejecting non-UUID input.
func ParseNoteID(s string) (NoteID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NoteID{}, err
	}
	return NoteID(u), nil
}
