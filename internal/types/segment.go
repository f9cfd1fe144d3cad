package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductionSegment groups stages and machines addressed collectively by
// machine-facing queries.
type ProductionSegment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Stages    []*SegmentStage `gorm:"foreignKey:SegmentID;references:ID" json:"stages,omitempty"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProductionSegment) TableName() string { return "production_segment" }

// SegmentStage maps a segment to a stage or substage. Either StageID or
// SubstageID is set.
type SegmentStage struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SegmentID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"segment_id"`
	StageID    *uuid.UUID `gorm:"type:uuid;index" json:"stage_id,omitempty"`
	SubstageID *uuid.UUID `gorm:"type:uuid;index" json:"substage_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (SegmentStage) TableName() string { return "segment_stage" }

// PartSegmentCompletion is the per-(part, segment) aggregate completion flag
// upserted when processing completes with a segment supplied.
type PartSegmentCompletion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PartID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_part_segment,priority:1" json:"part_id"`
	SegmentID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_part_segment,priority:2" json:"segment_id"`
	CompletedAt time.Time `gorm:"column:completed_at;not null" json:"completed_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (PartSegmentCompletion) TableName() string { return "part_segment_completion" }
