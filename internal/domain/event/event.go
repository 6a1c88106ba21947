package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is emitted after a request lifecycle operation has committed
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	RequestID int64                  `json:"request_id"`
	UserID    string                 `json:"user_id"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates a new domain event with a generated ID and timestamp
func NewEvent(eventType Type, requestID int64, userID string, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		UserID:    userID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// WithPayload returns a copy of the event with an added payload key-value pair
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	cp := *e
	cp.Payload = payload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// MetadataJSON renders the payload for storage in the activity log
func (e *Event) MetadataJSON() string {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ToJSON serializes the whole event for publishing
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
