package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Route struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Stages    []*RouteStage  `gorm:"foreignKey:RouteID;references:ID" json:"stages,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Route) TableName() string { return "route" }

// RouteStage binds a route position to a stage and optionally a substage.
// SequenceNumber is strictly increasing and unique within a route; the entry
// with the smallest sequence number is the route's first stage.
type RouteStage struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RouteID        uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_route_stage_seq,priority:1" json:"route_id"`
	StageID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"stage_id"`
	Stage          *Stage     `gorm:"foreignKey:StageID;references:ID" json:"stage,omitempty"`
	SubstageID     *uuid.UUID `gorm:"type:uuid;index" json:"substage_id,omitempty"`
	Substage       *Substage  `gorm:"foreignKey:SubstageID;references:ID" json:"substage,omitempty"`
	SequenceNumber int        `gorm:"column:sequence_number;not null;uniqueIndex:idx_route_stage_seq,priority:2" json:"sequence_number"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

func (RouteStage) TableName() string { return "route_stage" }
