package model

import (
	"time"

	"github.com/google/uuid"
)

type MeshSession struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Name        string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	SegmentedAt *time.Time
}

func (MeshSession) TableName() string {
	return "mesh_sessions"
}
