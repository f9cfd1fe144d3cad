package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Stage struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string         `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Substages []*Substage    `gorm:"foreignKey:StageID;references:ID" json:"substages,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Stage) TableName() string { return "stage" }

// Substage is a finer subdivision of a stage, used for machine binding.
type Substage struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StageID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"stage_id"`
	Stage     *Stage         `gorm:"constraint:OnDelete:CASCADE;foreignKey:StageID;references:ID" json:"stage,omitempty"`
	Code      string         `gorm:"column:code;not null" json:"code"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Substage) TableName() string { return "substage" }
