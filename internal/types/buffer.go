package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CellStatusAvailable   = "AVAILABLE"
	CellStatusOccupied    = "OCCUPIED"
	CellStatusMaintenance = "MAINTENANCE"
)

type Buffer struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Cells     []*BufferCell  `gorm:"foreignKey:BufferID;references:ID" json:"cells,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Buffer) TableName() string { return "buffer" }

// BufferCell is a capacity-bounded holding slot. Occupancy is the count of
// pallets pointing at the cell; status is OCCUPIED exactly when that count
// reaches capacity.
type BufferCell struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BufferID  uuid.UUID `gorm:"type:uuid;not null;index" json:"buffer_id"`
	Code      string    `gorm:"column:code;not null" json:"code"`
	Capacity  int       `gorm:"column:capacity;not null;default:1" json:"capacity"`
	Status    string    `gorm:"column:status;not null;default:AVAILABLE" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (BufferCell) TableName() string { return "buffer_cell" }
