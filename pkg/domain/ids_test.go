package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventID(t *testing.T) {
	valid := uuid.New()

	id, err := ParseEventID(valid.String())
	require.NoError(t, err)
	assert.Equal(t, EventID(valid), id)
	assert.Equal(t, valid.String(), id.String())
	assert.False(t, id.IsNil())

	_, err = ParseEventID("not-a-uuid")
	require.Error(t, err)

	_, err = ParseEventID("")
	require.Error(t, err)
}

func TestParseNoteID(t *testing.T) {
	valid := uuid.New()

	id, err := ParseNoteID(valid.String())
	require.NoError(t, err)
	assert.Equal(t, NoteID(valid), id)

	_, err = ParseNoteID("'; DROP TABLE qa_notes;--")
	require.Error(t, err)
}

func TestIsNil(t *testing.T) {
	assert.True(t, EventID{}.IsNil())
	assert.True(t, NoteID{}.IsNil())
	assert.False(t, NewEventID().IsNil())
	assert.False(t, NewNoteID().IsNil())
}

// IDs marshal as UUID strings, not byte arrays.
func TestJSONRoundTrip(t *testing.T) {
	id := NewEventID()

	payload, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(payload))

	var decoded EventID
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, id, decoded)
}

// Distinct ID types are not interchangeable; assigning one to the other is a
// compile error.
func TestTypeDistinction(t *testing.T) {
	eventID := EventID(uuid.New())
	noteID := NoteID(uuid.New())
	assert.NotEqual(t, uuid.UUID(eventID), uuid.UUID(noteID))
}
