package production

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type PalletRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Pallet) ([]*types.Pallet, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Pallet, error)
	ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Pallet, error)
	ListByPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) ([]*types.Pallet, error)
	ListByCell(ctx context.Context, tx *gorm.DB, cellID uuid.UUID) ([]*types.Pallet, error)

	// CountInCell counts occupants of a cell, optionally excluding one pallet.
	CountInCell(ctx context.Context, tx *gorm.DB, cellID uuid.UUID, excludePalletID *uuid.UUID) (int64, error)

	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	// UpdateStepForPart repoints every pallet of a part at the given route
	// stage (nil clears the pointer). Used on route reassignment.
	UpdateStepForPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID, stepID *uuid.UUID) error
}

type palletRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPalletRepo(db *gorm.DB, baseLog *logger.Logger) PalletRepo {
	return &palletRepo{db: db, log: baseLog.With("repo", "PalletRepo")}
}

func (r *palletRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Pallet) ([]*types.Pallet, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Pallet{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *palletRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Pallet, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Pallet
	if err := t.WithContext(ctx).
		Preload("CurrentStep").
		Where("id = ?", id).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *palletRepo) ListByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Pallet, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Pallet
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *palletRepo) ListByPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) ([]*types.Pallet, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Pallet
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

func (r *palletRepo) ListByCell(ctx context.Context, tx *gorm.DB, cellID uuid.UUID) ([]*types.Pallet, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Pallet
	if cellID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("buffer_cell_id = ?", cellID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *palletRepo) CountInCell(ctx context.Context, tx *gorm.DB, cellID uuid.UUID, excludePalletID *uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if cellID == uuid.Nil {
		return 0, nil
	}
	q := t.WithContext(ctx).
		Model(&types.Pallet{}).
		Where("buffer_cell_id = ?", cellID)
	if excludePalletID != nil && *excludePalletID != uuid.Nil {
		q = q.Where("id <> ?", *excludePalletID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *palletRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.Pallet{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *palletRepo) UpdateStepForPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID, stepID *uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if partID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.Pallet{}).
		Where("part_id = ?", partID).
		Update("current_step_id", stepID).Error
}
