package entity

import (
	"time"

	"github.com/google/uuid"
)

// SurfaceMesh is the raw uploaded geometry of one session, fetched once per
// session by the restore path.
type SurfaceMesh struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Vertices  [][3]float64
	Faces     [][3]int32
	CreatedAt time.Time
}
