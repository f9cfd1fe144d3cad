package production

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type PartProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.PartRouteProgress) ([]*types.PartRouteProgress, error)
	ListByPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) ([]*types.PartRouteProgress, error)
	DeleteByPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) error
	MarkCompleted(ctx context.Context, tx *gorm.DB, partID, routeStageID uuid.UUID) error
}

type partProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPartProgressRepo(db *gorm.DB, baseLog *logger.Logger) PartProgressRepo {
	return &partProgressRepo{db: db, log: baseLog.With("repo", "PartProgressRepo")}
}

func (r *partProgressRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.PartRouteProgress) ([]*types.PartRouteProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.PartRouteProgress{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *partProgressRepo) ListByPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) ([]*types.PartRouteProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.PartRouteProgress
	if partID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *partProgressRepo) DeleteByPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if partID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Where("part_id = ?", partID).
		Delete(&types.PartRouteProgress{}).Error
}

func (r *partProgressRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, partID, routeStageID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if partID == uuid.Nil || routeStageID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.PartRouteProgress{}).
		Where("part_id = ? AND route_stage_id = ?", partID, routeStageID).
		Updates(map[string]interface{}{
			"status":     types.ProgressStatusCompleted,
			"updated_at": time.Now(),
		}).Error
}

type SegmentCompletionRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, partID, segmentID uuid.UUID, completedAt time.Time) error
	Get(ctx context.Context, tx *gorm.DB, partID, segmentID uuid.UUID) (*types.PartSegmentCompletion, error)
}

type segmentCompletionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSegmentCompletionRepo(db *gorm.DB, baseLog *logger.Logger) SegmentCompletionRepo {
	return &segmentCompletionRepo{db: db, log: baseLog.With("repo", "SegmentCompletionRepo")}
}

func (r *segmentCompletionRepo) Upsert(ctx context.Context, tx *gorm.DB, partID, segmentID uuid.UUID, completedAt time.Time) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if partID == uuid.Nil || segmentID == uuid.Nil {
		return nil
	}
	row := &types.PartSegmentCompletion{
		ID:          uuid.New(),
		PartID:      partID,
		SegmentID:   segmentID,
		CompletedAt: completedAt,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	return t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "part_id"}, {Name: "segment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed_at", "updated_at"}),
		}).
		Create(row).Error
}

func (r *segmentCompletionRepo) Get(ctx context.Context, tx *gorm.DB, partID, segmentID uuid.UUID) (*types.PartSegmentCompletion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if partID == uuid.Nil || segmentID == uuid.Nil {
		return nil, nil
	}
	var out []*types.PartSegmentCompletion
	if err := t.WithContext(ctx).
		Where("part_id = ? AND segment_id = ?", partID, segmentID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
