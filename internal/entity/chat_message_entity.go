package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one transcript entry of a session.
type ChatMessage struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Role      string
	Text      string
	CreatedAt time.Time
}
