package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ProgressStatusNotProcessed = "NOT_PROCESSED"
	ProgressStatusPending      = "PENDING"
	ProgressStatusInProgress   = "IN_PROGRESS"
	ProgressStatusCompleted    = "COMPLETED"
)

// PalletStageProgress is an append-only audit log: one row per
// (pallet, route stage) attempt. Rows are never updated in place; the latest
// row is the one with the highest ID. The integer key keeps that ordering
// deterministic even when timestamps collide.
type PalletStageProgress struct {
	PalletID     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_pallet_stage_attempt,priority:1" json:"pallet_id"`
	RouteStageID uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_pallet_stage_attempt,priority:2" json:"route_stage_id"`
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Status       string     `gorm:"column:status;not null;default:NOT_PROCESSED" json:"status"`
	Attempt      int        `gorm:"column:attempt;not null;uniqueIndex:idx_pallet_stage_attempt,priority:3" json:"attempt"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
}

func (PalletStageProgress) TableName() string { return "pallet_stage_progress" }

// PartRouteProgress is the per-part route checklist: one row per stage of the
// part's active route. Wiped and recreated whenever the route is reassigned.
type PartRouteProgress struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PartID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_part_route_stage,priority:1" json:"part_id"`
	RouteStageID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_part_route_stage,priority:2" json:"route_stage_id"`
	Status       string    `gorm:"column:status;not null;default:NOT_PROCESSED" json:"status"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (PartRouteProgress) TableName() string { return "part_route_progress" }
