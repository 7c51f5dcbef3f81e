package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Segment struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SegmentIndex int             `gorm:"not null"` // wire id, 0-based within the session
	Type         string          `gorm:"type:text;not null"`
	Length       float64         `gorm:"not null"`
	Curvature    float64         `gorm:"not null"`
	Angle        float64         `gorm:"not null"`
	Radius       float64         `gorm:"not null"`
	NodeIDs      datatypes.JSON  `gorm:"type:jsonb;not null"`
	FaceIDs      datatypes.JSON  `gorm:"type:jsonb"`
	Downsampled  datatypes.JSON  `gorm:"type:jsonb;not null"`
	Embedding    pgvector.Vector `gorm:"type:vector(64)"` // width must equal pipeline.EmbedDim
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
}

func (Segment) TableName() string {
	return "segments"
}
