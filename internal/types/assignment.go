package types

import (
	"time"

	"github.com/google/uuid"
)

// MachineAssignment links a pallet to a machine for a specific route stage.
// CompletedAt nil means the operation is still active on that machine.
type MachineAssignment struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	PalletID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"pallet_id"`
	Pallet       *Pallet     `gorm:"constraint:OnDelete:CASCADE;foreignKey:PalletID;references:ID" json:"pallet,omitempty"`
	MachineID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"machine_id"`
	Machine      *Machine    `gorm:"foreignKey:MachineID;references:ID" json:"machine,omitempty"`
	RouteStageID uuid.UUID   `gorm:"type:uuid;not null;index" json:"route_stage_id"`
	RouteStage   *RouteStage `gorm:"foreignKey:RouteStageID;references:ID" json:"route_stage,omitempty"`
	OperatorID   *uuid.UUID  `gorm:"type:uuid;index" json:"operator_id,omitempty"`
	StartedAt    time.Time   `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt  *time.Time  `gorm:"column:completed_at;index" json:"completed_at,omitempty"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
}

func (MachineAssignment) TableName() string { return "machine_assignment" }
