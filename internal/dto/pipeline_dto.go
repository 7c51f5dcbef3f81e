package dto

import "github.com/google/uuid"

// SessionSegmentedMessage is the payload published on the segment topic
// after a segmentation run has been stored.
type SessionSegmentedMessage struct {
	SessionId     uuid.UUID `json:"session_id"`
	TotalSegments int       `json:"total_segments"`
}
