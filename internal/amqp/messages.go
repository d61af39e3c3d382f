package amqp

import (
	"encoding/json"
	"time"
)

const EventRecordCreated = "record.created"

// RecordEvent announces a persisted record. The consumer loads the record
// itself, so the message carries only its identity.
type RecordEvent struct {
	Event     string    `json:"event"`
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordCreated(kind, id, ownerID string) *RecordEvent {
	return &RecordEvent{
		Event:     EventRecordCreated,
		Kind:      kind,
		ID:        id,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

func (m *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var msg RecordEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
