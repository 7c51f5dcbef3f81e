package dto

import (
	"time"

	"mesh-explorer-be/pkg/protocol"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Name string               `json:"name" validate:"required,min=1,max=255"`
	Mesh protocol.SurfaceMesh `json:"mesh" validate:"required"`
}

type CreateSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionResponse struct {
	Id          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"created_at"`
	SegmentedAt *time.Time `json:"segmented_at,omitempty"`
}

type TranscriptMessageResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
