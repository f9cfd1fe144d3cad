package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Part is a produced item. A part owns at most one active route; reassigning
// the route replaces the foreign key and resets route progress.
type Part struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"order_id"`
	Order         *ProductionOrder `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrderID;references:ID" json:"order,omitempty"`
	Code          string           `gorm:"column:code;not null;index" json:"code"`
	Name          string           `gorm:"column:name;not null" json:"name"`
	MaterialID    *uuid.UUID       `gorm:"type:uuid;index" json:"material_id,omitempty"`
	Material      *Material        `gorm:"constraint:OnDelete:SET NULL;foreignKey:MaterialID;references:ID" json:"material,omitempty"`
	Size          string           `gorm:"column:size" json:"size"`
	TotalQuantity int              `gorm:"column:total_quantity;not null;default:0" json:"total_quantity"`
	Status        string           `gorm:"column:status;not null;default:NEW" json:"status"`
	RouteID       *uuid.UUID       `gorm:"type:uuid;index" json:"route_id,omitempty"`
	Route         *Route           `gorm:"constraint:OnDelete:SET NULL;foreignKey:RouteID;references:ID" json:"route,omitempty"`
	Metadata      datatypes.JSON   `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	Pallets       []*Pallet        `gorm:"foreignKey:PartID;references:ID" json:"pallets,omitempty"`
	Packages      []*PartPackage   `gorm:"foreignKey:PartID;references:ID" json:"packages,omitempty"`
	CreatedAt     time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

func (Part) TableName() string { return "part" }

// PartPackage is one package's demand for a part. TotalQuantity on the part is
// the sum of these rows and may be smaller than the sum of pallet quantities.
type PartPackage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PartID      uuid.UUID `gorm:"type:uuid;not null;index" json:"part_id"`
	PackageCode string    `gorm:"column:package_code;not null" json:"package_code"`
	Quantity    int       `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (PartPackage) TableName() string { return "part_package" }
