package entity

import (
	"time"

	"github.com/google/uuid"
)

// MeshSession is one mesh-exploration context: upload, segmentation, chat.
// Immutable after creation apart from the segmentation timestamp.
type MeshSession struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Name        string
	CreatedAt   time.Time
	SegmentedAt *time.Time
}
