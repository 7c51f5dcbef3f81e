package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SurfaceMesh struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"` // one mesh per session
	Vertices  datatypes.JSON `gorm:"type:jsonb;not null"`
	Faces     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (SurfaceMesh) TableName() string {
	return "surface_meshes"
}
