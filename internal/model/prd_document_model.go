package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PrdDocument timestamps are written by the service clock, not GORM.
type PrdDocument struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId            *uuid.UUID     `gorm:"type:uuid;index:idx_prd_documents_owner_created,priority:1"`
	QuestionnaireData datatypes.JSON `gorm:"not null"`
	GeneratedPrd      *string        `gorm:"type:text"`
	CreatedAt         time.Time      `gorm:"autoCreateTime:false;not null;index:idx_prd_documents_owner_created,priority:2"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime:false;not null"`
}

func (PrdDocument) TableName() string {
	return "prd_documents"
}
