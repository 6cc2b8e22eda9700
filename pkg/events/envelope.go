package events

import (
	"encoding/json"
	"time"

	"github.com/threadline/threadline-backend/pkg/enums"
)

// EventType labels assignment-events on the wire; carried as a message
// attribute so consumers can filter before decoding.
type EventType string

const (
	// EventTaskAssigned fires whenever an item's assignee changes to a new
	// non-null worker, including at creation.
	EventTaskAssigned EventType = "task.assigned"
)

const attributeEventType = "event_type"

// PayloadEnvelope is the stable payload structure published for every event.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// TaskAssignedPayload describes one assignment handed to a worker.
type TaskAssignedPayload struct {
	ItemID     string              `json:"itemId"`
	BillNumber string              `json:"billNumber"`
	ClothType  enums.ClothType     `json:"clothType"`
	Status     enums.ClothStatus   `json:"status"`
	AssignedTo string              `json:"assignedTo"`
	Action     enums.HistoryAction `json:"action"`
}
