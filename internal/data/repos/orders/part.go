package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type PartRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Part) ([]*types.Part, error)
	CreatePackages(ctx context.Context, tx *gorm.DB, rows []*types.PartPackage) ([]*types.PartPackage, error)

	// GetByID returns the part with its route (stages ordered), pallets and
	// packages preloaded; nil when absent.
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Part, error)
	ListByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.Part, error)
	// ListByRouteStageIDs returns parts whose active route contains any of the
	// given route-stage rows.
	ListByRouteStageIDs(ctx context.Context, tx *gorm.DB, routeStageIDs []uuid.UUID) ([]*types.Part, error)

	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type partRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPartRepo(db *gorm.DB, baseLog *logger.Logger) PartRepo {
	return &partRepo{db: db, log: baseLog.With("repo", "PartRepo")}
}

func (r *partRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Part) ([]*types.Part, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Part{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *partRepo) CreatePackages(ctx context.Context, tx *gorm.DB, rows []*types.PartPackage) ([]*types.PartPackage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.PartPackage{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *partRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Part, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Part
	if err := r.withAssociations(t.WithContext(ctx)).
		Where("id = ?", id).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *partRepo) ListByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.Part, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Part
	if orderID == uuid.Nil {
		return out, nil
	}
	if err := r.withAssociations(t.WithContext(ctx)).
		Where("order_id = ?", orderID).
		Order("code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *partRepo) ListByRouteStageIDs(ctx context.Context, tx *gorm.DB, routeStageIDs []uuid.UUID) ([]*types.Part, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Part
	if len(routeStageIDs) == 0 {
		return out, nil
	}
	sub := t.WithContext(ctx).
		Model(&types.RouteStage{}).
		Select("route_id").
		Where("id IN ?", routeStageIDs)
	if err := r.withAssociations(t.WithContext(ctx)).
		Where("route_id IN (?)", sub).
		Order("code ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *partRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(ctx).
		Model(&types.Part{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *partRepo) withAssociations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Order").
		Preload("Route.Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_number ASC") }).
		Preload("Route.Stages.Stage").
		Preload("Route.Stages.Substage").
		Preload("Pallets").
		Preload("Packages")
}
