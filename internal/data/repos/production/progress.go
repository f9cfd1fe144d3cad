package production

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

// ProgressRepo is the append-only pallet-stage progress log. Rows are never
// updated; each state transition appends a new attempt and "latest" is an
// explicit highest-ID query rather than an implicit primary-key assumption
// leaking into callers.
type ProgressRepo interface {
	Append(ctx context.Context, tx *gorm.DB, palletID, routeStageID uuid.UUID, status string, completedAt *time.Time) (*types.PalletStageProgress, error)

	LatestInRouteStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID) (*types.PalletStageProgress, error)
	ListByPallet(ctx context.Context, tx *gorm.DB, palletID uuid.UUID) ([]*types.PalletStageProgress, error)

	// CompletedBaseStages returns the distinct base stage ids (resolved through
	// route_stage) for which the pallet has a COMPLETED progress row, limited
	// to the given stage ids.
	CompletedBaseStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, stageIDs []uuid.UUID) ([]uuid.UUID, error)

	// CompletedInRange returns COMPLETED rows whose completion time falls in
	// [from, to), optionally restricted to the given route stages.
	CompletedInRange(ctx context.Context, tx *gorm.DB, routeStageIDs []uuid.UUID, from, to time.Time) ([]*types.PalletStageProgress, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Append(ctx context.Context, tx *gorm.DB, palletID, routeStageID uuid.UUID, status string, completedAt *time.Time) (*types.PalletStageProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var maxAttempt int
	if err := t.WithContext(ctx).
		Model(&types.PalletStageProgress{}).
		Where("pallet_id = ? AND route_stage_id = ?", palletID, routeStageID).
		Select("COALESCE(MAX(attempt), 0)").
		Scan(&maxAttempt).Error; err != nil {
		return nil, err
	}
	row := &types.PalletStageProgress{
		PalletID:     palletID,
		RouteStageID: routeStageID,
		Status:       status,
		Attempt:      maxAttempt + 1,
		CompletedAt:  completedAt,
		CreatedAt:    time.Now(),
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *progressRepo) LatestInRouteStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, routeStageIDs []uuid.UUID) (*types.PalletStageProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if palletID == uuid.Nil || len(routeStageIDs) == 0 {
		return nil, nil
	}
	var out []*types.PalletStageProgress
	if err := t.WithContext(ctx).
		Where("pallet_id = ? AND route_stage_id IN ?", palletID, routeStageIDs).
		Order("id DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *progressRepo) ListByPallet(ctx context.Context, tx *gorm.DB, palletID uuid.UUID) ([]*types.PalletStageProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.PalletStageProgress
	if palletID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("pallet_id = ?", palletID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRepo) CompletedInRange(ctx context.Context, tx *gorm.DB, routeStageIDs []uuid.UUID, from, to time.Time) ([]*types.PalletStageProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).
		Where("status = ?", types.ProgressStatusCompleted).
		Where("completed_at >= ? AND completed_at < ?", from, to)
	if len(routeStageIDs) > 0 {
		q = q.Where("route_stage_id IN ?", routeStageIDs)
	}
	var out []*types.PalletStageProgress
	if err := q.Order("completed_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressRepo) CompletedBaseStages(ctx context.Context, tx *gorm.DB, palletID uuid.UUID, stageIDs []uuid.UUID) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if palletID == uuid.Nil || len(stageIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Model(&types.PalletStageProgress{}).
		Distinct("route_stage.stage_id").
		Joins("JOIN route_stage ON route_stage.id = pallet_stage_progress.route_stage_id").
		Where("pallet_stage_progress.pallet_id = ?", palletID).
		Where("pallet_stage_progress.status = ?", types.ProgressStatusCompleted).
		Where("route_stage.stage_id IN ?", stageIDs).
		Pluck("route_stage.stage_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
