package facility

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type BufferRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Buffer) ([]*types.Buffer, error)
	CreateCells(ctx context.Context, tx *gorm.DB, rows []*types.BufferCell) ([]*types.BufferCell, error)

	GetCellByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BufferCell, error)
	// GetCellForUpdate reads the cell under a row lock so a concurrent move
	// into the same cell cannot pass the capacity check on a stale count.
	GetCellForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BufferCell, error)
	UpdateCellFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	ListCells(ctx context.Context, tx *gorm.DB, bufferID uuid.UUID) ([]*types.BufferCell, error)
}

type bufferRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBufferRepo(db *gorm.DB, baseLog *logger.Logger) BufferRepo {
	return &bufferRepo{db: db, log: baseLog.With("repo", "BufferRepo")}
}

func (r *bufferRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Buffer) ([]*types.Buffer, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Buffer{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bufferRepo) CreateCells(ctx context.Context, tx *gorm.DB, rows []*types.BufferCell) ([]*types.BufferCell, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.BufferCell{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bufferRepo) GetCellByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BufferCell, error) {
	return r.getCell(ctx, tx, id, false)
}

func (r *bufferRepo) GetCellForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.BufferCell, error) {
	return r.getCell(ctx, tx, id, true)
}

func (r *bufferRepo) getCell(ctx context.Context, tx *gorm.DB, id uuid.UUID, forUpdate bool) (*types.BufferCell, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	q := t.WithContext(ctx)
	// SQLite (used by DSN-less tests) has no FOR UPDATE; its transactions are
	// single-writer anyway.
	if forUpdate && t.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out []*types.BufferCell
	if err := q.Where("id = ?", id).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *bufferRepo) UpdateCellFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.BufferCell{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *bufferRepo) ListCells(ctx context.Context, tx *gorm.DB, bufferID uuid.UUID) ([]*types.BufferCell, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.BufferCell
	if bufferID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("buffer_id = ?", bufferID).
		Order("code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
