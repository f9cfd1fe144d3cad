package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MachineStatusActive      = "ACTIVE"
	MachineStatusInactive    = "INACTIVE"
	MachineStatusMaintenance = "MAINTENANCE"
)

type Machine struct {
	ID           uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	Code         string               `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name         string               `gorm:"column:name;not null" json:"name"`
	Status       string               `gorm:"column:status;not null;default:ACTIVE" json:"status"`
	SegmentID    *uuid.UUID           `gorm:"type:uuid;index" json:"segment_id,omitempty"`
	Segment      *ProductionSegment   `gorm:"constraint:OnDelete:SET NULL;foreignKey:SegmentID;references:ID" json:"segment,omitempty"`
	Capabilities []*MachineCapability `gorm:"foreignKey:MachineID;references:ID" json:"capabilities,omitempty"`
	CreatedAt    time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt       `gorm:"index" json:"deleted_at,omitempty"`
}

func (Machine) TableName() string { return "machine" }

// MachineCapability binds a machine to a stage (or one of its substages) it
// can perform. A machine with no capability rows is gated on its status only.
type MachineCapability struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MachineID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"machine_id"`
	StageID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"stage_id"`
	SubstageID *uuid.UUID `gorm:"type:uuid;index" json:"substage_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (MachineCapability) TableName() string { return "machine_capability" }
