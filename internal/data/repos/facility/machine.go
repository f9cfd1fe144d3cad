package facility

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type MachineRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Machine) ([]*types.Machine, error)
	CreateCapabilities(ctx context.Context, tx *gorm.DB, rows []*types.MachineCapability) ([]*types.MachineCapability, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Machine, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Machine, error)
	ListBySegment(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID) ([]*types.Machine, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type machineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMachineRepo(db *gorm.DB, baseLog *logger.Logger) MachineRepo {
	return &machineRepo{db: db, log: baseLog.With("repo", "MachineRepo")}
}

func (r *machineRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Machine) ([]*types.Machine, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Machine{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *machineRepo) CreateCapabilities(ctx context.Context, tx *gorm.DB, rows []*types.MachineCapability) ([]*types.MachineCapability, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MachineCapability{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *machineRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Machine, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Machine
	if err := t.WithContext(ctx).
		Preload("Capabilities").
		Preload("Segment").
		Preload("Segment.Stages").
		Where("id = ?", id).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *machineRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Machine, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var out []*types.Machine
	if err := t.WithContext(ctx).
		Preload("Capabilities").
		Where("code = ?", code).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *machineRepo) ListBySegment(ctx context.Context, tx *gorm.DB, segmentID uuid.UUID) ([]*types.Machine, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Machine
	if segmentID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Preload("Capabilities").
		Where("segment_id = ?", segmentID).
		Order("code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *machineRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.Machine{}).
		Where("id = ?", id).
		Updates(updates).Error
}
