package types

import (
	"time"

	"github.com/google/uuid"
)

// Pallet is a physical batch-carrier for a fixed quantity of one part.
// CurrentStepID points at the next unprocessed route stage; nil means the
// pallet has finished its route. Buffer location is independent of
// processing state.
type Pallet struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	PartID        uuid.UUID   `gorm:"type:uuid;not null;index" json:"part_id"`
	Part          *Part       `gorm:"constraint:OnDelete:CASCADE;foreignKey:PartID;references:ID" json:"part,omitempty"`
	Quantity      int         `gorm:"column:quantity;not null" json:"quantity"`
	CurrentStepID *uuid.UUID  `gorm:"type:uuid;index" json:"current_step_id,omitempty"`
	CurrentStep   *RouteStage `gorm:"foreignKey:CurrentStepID;references:ID" json:"current_step,omitempty"`
	BufferCellID  *uuid.UUID  `gorm:"type:uuid;index" json:"buffer_cell_id,omitempty"`
	BufferCell    *BufferCell `gorm:"foreignKey:BufferCellID;references:ID" json:"buffer_cell,omitempty"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
}

func (Pallet) TableName() string { return "pallet" }
