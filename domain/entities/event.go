package entities

import (
	"time"

	"github.com/google/uuid"
)

// RecordAction describes what happened to a record
type RecordAction string

const (
	RecordCreated RecordAction = "created"
	RecordUpdated RecordAction = "updated"
	RecordDeleted RecordAction = "deleted"
)

// RecordEvent is published after a record has been written
type RecordEvent struct {
	ID         string       `json:"event_id"`
	Kind       string       `json:"kind"`
	Action     RecordAction `json:"action"`
	RecordID   string       `json:"record_id"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewRecordEvent creates an event with a fresh ID
func NewRecordEvent(kind string, action RecordAction, recordID string) RecordEvent {
	return RecordEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		Action:     action,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
}

// RoutingKey returns "<kind>.<action>", e.g. "parent.created"
func (e RecordEvent) RoutingKey() string {
	return e.Kind + "." + string(e.Action)
}
