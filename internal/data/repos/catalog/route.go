package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type RouteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Route) ([]*types.Route, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Route, error)

	CreateStages(ctx context.Context, tx *gorm.DB, rows []*types.RouteStage) ([]*types.RouteStage, error)
	GetStages(ctx context.Context, tx *gorm.DB, routeID uuid.UUID) ([]*types.RouteStage, error)
	GetStageByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RouteStage, error)
	NextStage(ctx context.Context, tx *gorm.DB, routeID uuid.UUID, afterSequence int) (*types.RouteStage, error)

	FindStagesByStageOrSubstages(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, substageIDs []uuid.UUID) ([]*types.RouteStage, error)
}

type routeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRouteRepo(db *gorm.DB, baseLog *logger.Logger) RouteRepo {
	return &routeRepo{db: db, log: baseLog.With("repo", "RouteRepo")}
}

func (r *routeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Route) ([]*types.Route, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Route{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *routeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Route, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Route
	if err := t.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence_number ASC") }).
		Preload("Stages.Stage").
		Preload("Stages.Substage").
		Where("id = ?", id).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *routeRepo) CreateStages(ctx context.Context, tx *gorm.DB, rows []*types.RouteStage) ([]*types.RouteStage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.RouteStage{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *routeRepo) GetStages(ctx context.Context, tx *gorm.DB, routeID uuid.UUID) ([]*types.RouteStage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.RouteStage
	if routeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Preload("Stage").
		Preload("Substage").
		Where("route_id = ?", routeID).
		Order("sequence_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *routeRepo) GetStageByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RouteStage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.RouteStage
	if err := t.WithContext(ctx).
		Preload("Stage").
		Preload("Substage").
		Where("id = ?", id).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// NextStage returns the route entry directly after the given sequence number,
// or nil when the route has no further stages.
func (r *routeRepo) NextStage(ctx context.Context, tx *gorm.DB, routeID uuid.UUID, afterSequence int) (*types.RouteStage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.RouteStage
	if err := t.WithContext(ctx).
		Where("route_id = ? AND sequence_number > ?", routeID, afterSequence).
		Order("sequence_number ASC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// FindStagesByStageOrSubstages resolves route-stage rows across all routes
// matching either the stage directly or one of the given substages. Used to
// scope progress and assignment queries to one production segment.
func (r *routeRepo) FindStagesByStageOrSubstages(ctx context.Context, tx *gorm.DB, stageID uuid.UUID, substageIDs []uuid.UUID) ([]*types.RouteStage, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.RouteStage
	q := t.WithContext(ctx)
	switch {
	case stageID != uuid.Nil && len(substageIDs) > 0:
		q = q.Where("stage_id = ? OR substage_id IN ?", stageID, substageIDs)
	case stageID != uuid.Nil:
		q = q.Where("stage_id = ?", stageID)
	case len(substageIDs) > 0:
		q = q.Where("substage_id IN ?", substageIDs)
	default:
		return out, nil
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
