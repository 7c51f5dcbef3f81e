package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_SEGMENTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// SessionSegmented builds the event emitted after a segmentation run has
// been stored.
func SessionSegmented(sessionId string, totalSegments int) Event {
	return BaseEvent{
		Type: "SESSION_SEGMENTED",
		Data: map[string]interface{}{
			"session_id":     sessionId,
			"total_segments": totalSegments,
		},
		OccurredAt: time.Now(),
	}
}
