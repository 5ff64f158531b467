package amqp

import (
	"encoding/json"
	"time"
)

// ForecastAuditMessage is a lightweight notification that a forecast point
// was persisted. It carries only the row ID and owner, the worker fetches
// the full point from the database before exporting it.
type ForecastAuditMessage struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewForecastAuditMessage creates a new audit message for a persisted point
func NewForecastAuditMessage(id, ownerID int64) *ForecastAuditMessage {
	return &ForecastAuditMessage{
		ID:        id,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ForecastAuditMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ForecastAuditMessageFromJSON(data []byte) (*ForecastAuditMessage, error) {
	var msg ForecastAuditMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
