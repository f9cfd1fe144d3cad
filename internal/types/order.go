package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPreliminary = "PRELIMINARY"
	OrderStatusApproved    = "APPROVED"
	OrderStatusLaunched    = "LAUNCHED"
	OrderStatusCompleted   = "COMPLETED"
)

type ProductionOrder struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Number       string         `gorm:"column:number;not null;uniqueIndex" json:"number"`
	Customer     string         `gorm:"column:customer" json:"customer"`
	Status       string         `gorm:"column:status;not null;default:PRELIMINARY" json:"status"`
	LaunchDate   *time.Time     `gorm:"column:launch_date" json:"launch_date,omitempty"`
	DeadlineDate *time.Time     `gorm:"column:deadline_date" json:"deadline_date,omitempty"`
	Parts        []*Part        `gorm:"foreignKey:OrderID;references:ID" json:"parts,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProductionOrder) TableName() string { return "production_order" }
