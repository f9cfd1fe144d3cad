package production

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/data/repos/testutil"
	"github.com/fabline/mes-backend/internal/types"
)

func seedStep(t *testing.T, tx *gorm.DB) *types.RouteStage {
	t.Helper()
	now := time.Now()
	stage := &types.Stage{ID: uuid.New(), Code: "CUT-" + uuid.NewString()[:8], Name: "Cutting", CreatedAt: now, UpdatedAt: now}
	if err := tx.Create(stage).Error; err != nil {
		t.Fatalf("create stage: %v", err)
	}
	route := &types.Route{ID: uuid.New(), Name: "r", CreatedAt: now, UpdatedAt: now}
	if err := tx.Create(route).Error; err != nil {
		t.Fatalf("create route: %v", err)
	}
	rs := &types.RouteStage{ID: uuid.New(), RouteID: route.ID, StageID: stage.ID, SequenceNumber: 1, CreatedAt: now, UpdatedAt: now}
	if err := tx.Create(rs).Error; err != nil {
		t.Fatalf("create route stage: %v", err)
	}
	return rs
}

func TestAppendCountsAttempts(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewProgressRepo(tx, testutil.Logger(t))
	ctx := context.Background()

	rs := seedStep(t, tx)
	palletID := uuid.New()

	first, err := repo.Append(ctx, nil, palletID, rs.ID, types.ProgressStatusInProgress, nil)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.Attempt != 1 {
		t.Errorf("first row should be attempt 1, got %d", first.Attempt)
	}

	done := time.Now()
	second, err := repo.Append(ctx, nil, palletID, rs.ID, types.ProgressStatusCompleted, &done)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if second.Attempt != 2 {
		t.Errorf("second row should be attempt 2, got %d", second.Attempt)
	}
	if second.ID <= first.ID {
		t.Error("appended rows must get increasing ids")
	}

	// Another pallet at the same step starts its own attempt count.
	other, err := repo.Append(ctx, nil, uuid.New(), rs.ID, types.ProgressStatusInProgress, nil)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if other.Attempt != 1 {
		t.Errorf("attempts are per pallet and step, got %d", other.Attempt)
	}
}

func TestLatestIsTheNewestRow(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewProgressRepo(tx, testutil.Logger(t))
	ctx := context.Background()

	rs := seedStep(t, tx)
	palletID := uuid.New()

	if _, err := repo.Append(ctx, nil, palletID, rs.ID, types.ProgressStatusInProgress, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	done := time.Now()
	if _, err := repo.Append(ctx, nil, palletID, rs.ID, types.ProgressStatusCompleted, &done); err != nil {
		t.Fatalf("append: %v", err)
	}

	latest, err := repo.LatestInRouteStages(ctx, nil, palletID, []uuid.UUID{rs.ID})
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.Status != types.ProgressStatusCompleted {
		t.Errorf("latest should be the completion row, got %+v", latest)
	}

	none, err := repo.LatestInRouteStages(ctx, nil, uuid.New(), []uuid.UUID{rs.ID})
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if none != nil {
		t.Errorf("unknown pallet should have no history, got %+v", none)
	}
}

func TestCompletedInRangeBounds(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	repo := NewProgressRepo(tx, testutil.Logger(t))
	ctx := context.Background()

	rs := seedStep(t, tx)
	palletID := uuid.New()

	done := time.Now().UTC()
	if _, err := repo.Append(ctx, nil, palletID, rs.ID, types.ProgressStatusCompleted, &done); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, err := repo.CompletedInRange(ctx, nil, []uuid.UUID{rs.ID}, done.Add(-time.Hour), done.Add(time.Hour))
	if err != nil {
		t.Fatalf("completed in range: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want the completion inside the window, got %d rows", len(rows))
	}

	rows, err = repo.CompletedInRange(ctx, nil, []uuid.UUID{rs.ID}, done.Add(time.Minute), done.Add(time.Hour))
	if err != nil {
		t.Fatalf("completed in range: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("window past the completion should be empty, got %d rows", len(rows))
	}
}
