package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type SegmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ProductionSegment) ([]*types.ProductionSegment, error)
	CreateStages(ctx context.Context, tx *gorm.DB, rows []*types.SegmentStage) ([]*types.SegmentStage, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProductionSegment, error)
	GetStages(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID) ([]*types.SegmentStage, error)
}

type segmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSegmentRepo(db *gorm.DB, baseLog *logger.Logger) SegmentRepo {
	return &segmentRepo{db: db, log: baseLog.With("repo", "SegmentRepo")}
}

func (r *segmentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ProductionSegment) ([]*types.ProductionSegment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ProductionSegment{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *segmentRepo) CreateStages(ctx context.Context, tx *gorm.DB, rows []*types.SegmentStage) ([]*types.SegmentStage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.SegmentStage{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *segmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProductionSegment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.ProductionSegment
	if err := t.WithContext(ctx).
		Preload("Stages").
		Where("id = ?", id).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *segmentRepo) GetStages(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID) ([]*types.SegmentStage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SegmentStage
	if segmentID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("segment_id = ?", segmentID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
