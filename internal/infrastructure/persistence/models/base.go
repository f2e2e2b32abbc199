package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// Timestamps are owned by the domain entity, so GORM must not overwrite them.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false;index"`
}
