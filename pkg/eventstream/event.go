package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypePatternDeleted is emitted after an admin deletes a pattern.
	EventTypePatternDeleted = "qpv.pattern.deleted"
)

// ActivityEvent is a transport-neutral record of an admin action on a pattern.
type ActivityEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Actor         string    `json:"actor"`
	PatternID     int64     `json:"pattern_id"`
	FileName      string    `json:"file_name,omitempty"`
}

// NewPatternDeleted builds a deletion event stamped with a fresh id and the
// current time.
func NewPatternDeleted(actor string, patternID int64, fileName string) *ActivityEvent {
	return &ActivityEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypePatternDeleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Actor:         actor,
		PatternID:     patternID,
		FileName:      fileName,
	}
}
