package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type StageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Stage) ([]*types.Stage, error)
	CreateSubstages(ctx context.Context, tx *gorm.DB, rows []*types.Substage) ([]*types.Substage, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Stage, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Stage, error)
	GetSubstageByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Substage, error)
	SubstageIDsForStage(ctx context.Context, tx *gorm.DB, stageID uuid.UUID) ([]uuid.UUID, error)
}

type stageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageRepo(db *gorm.DB, baseLog *logger.Logger) StageRepo {
	return &stageRepo{db: db, log: baseLog.With("repo", "StageRepo")}
}

func (r *stageRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Stage) ([]*types.Stage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Stage{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stageRepo) CreateSubstages(ctx context.Context, tx *gorm.DB, rows []*types.Substage) ([]*types.Substage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Substage{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Stage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Stage
	if err := t.WithContext(ctx).Where("id = ?", id).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *stageRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Stage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var out []*types.Stage
	if err := t.WithContext(ctx).Where("code = ?", code).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *stageRepo) GetSubstageByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Substage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Substage
	if err := t.WithContext(ctx).Where("id = ?", id).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *stageRepo) SubstageIDsForStage(ctx context.Context, tx *gorm.DB, stageID uuid.UUID) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if stageID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Model(&types.Substage{}).
		Where("stage_id = ?", stageID).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
