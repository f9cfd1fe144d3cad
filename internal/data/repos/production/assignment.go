package production

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

type AssignmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MachineAssignment) ([]*types.MachineAssignment, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.MachineAssignment) error

	// ActiveInStages returns the most recent still-active assignment for the
	// pallet within the given route stages, or nil.
	ActiveInStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID) (*types.MachineAssignment, error)
	// ActiveForMachineStep resolves the active assignment matching the exact
	// (pallet, machine, route stage) triple, or nil.
	ActiveForMachineStep(ctx context.Context, tx *gorm.DB, palletID, machineID, routeStageID uuid.UUID) (*types.MachineAssignment, error)

	AnyInStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID) (bool, error)
	CompletedInStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID) (bool, error)

	ListByMachine(ctx context.Context, tx *gorm.DB, machineID uuid.UUID, activeOnly bool) ([]*types.MachineAssignment, error)
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: baseLog.With("repo", "AssignmentRepo")}
}

func (r *assignmentRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MachineAssignment) ([]*types.MachineAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MachineAssignment{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assignmentRepo) Update(ctx context.Context, tx *gorm.DB, row *types.MachineAssignment) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *assignmentRepo) ActiveInStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID) (*types.MachineAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if palletID == uuid.Nil || len(routeStageIDs) == 0 {
		return nil, nil
	}
	var out []*types.MachineAssignment
	if err := t.WithContext(ctx).
		Where("pallet_id = ? AND route_stage_id IN ? AND completed_at IS NULL", palletID, routeStageIDs).
		Order("started_at DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assignmentRepo) ActiveForMachineStep(ctx context.Context, tx *gorm.DB, palletID, machineID, routeStageID uuid.UUID) (*types.MachineAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if palletID == uuid.Nil || machineID == uuid.Nil || routeStageID == uuid.Nil {
		return nil, nil
	}
	var out []*types.MachineAssignment
	if err := t.WithContext(ctx).
		Where("pallet_id = ? AND machine_id = ? AND route_stage_id = ? AND completed_at IS NULL",
			palletID, machineID, routeStageID).
		Order("started_at DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assignmentRepo) AnyInStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID) (bool, error) {
	return r.existsInStages(ctx, tx, palletID, routeStageIDs, nil)
}

func (r *assignmentRepo) CompletedInStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID) (bool, error) {
	done := true
	return r.existsInStages(ctx, tx, palletID, routeStageIDs, &done)
}

func (r *assignmentRepo) existsInStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID, completed *bool) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if palletID == uuid.Nil || len(routeStageIDs) == 0 {
		return false, nil
	}
	q := t.WithContext(ctx).
		Model(&types.MachineAssignment{}).
		Where("pallet_id = ? AND route_stage_id IN ?", palletID, routeStageIDs)
	if completed != nil {
		if *completed {
			q = q.Where("completed_at IS NOT NULL")
		} else {
			q = q.Where("completed_at IS NULL")
		}
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *assignmentRepo) ListByMachine(ctx context.Context, tx *gorm.DB, machineID uuid.UUID, activeOnly bool) ([]*types.MachineAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MachineAssignment
	if machineID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(ctx).
		Preload("Pallet").
		Preload("RouteStage").
		Where("machine_id = ?", machineID)
	if activeOnly {
		q = q.Where("completed_at IS NULL")
	}
	if err := q.Order("started_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
