package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/fabline/mes-backend/internal/pkg/errors"
	"github.com/fabline/mes-backend/internal/types"
)

func (f *fixture) routeChange() RouteChangeService {
	return NewRouteChangeService(f.tx, f.log, f.partRepo, f.orderRepo, f.routeRepo, f.palletRepo, f.partProgress)
}

// newExpressRoute builds a two-step CUT -> PACK alternative to the fixture's
// standard route.
func (f *fixture) newExpressRoute(t *testing.T) *types.Route {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	route := &types.Route{ID: uuid.New(), Name: "express", CreatedAt: now, UpdatedAt: now}
	if _, err := f.routeRepo.Create(ctx, nil, []*types.Route{route}); err != nil {
		t.Fatalf("create route: %v", err)
	}
	var stages []*types.RouteStage
	for i, code := range []string{"CUT", "PACK"} {
		stages = append(stages, &types.RouteStage{
			ID:             uuid.New(),
			RouteID:        route.ID,
			StageID:        f.stages[code].ID,
			SequenceNumber: i + 1,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	if _, err := f.routeRepo.CreateStages(ctx, nil, stages); err != nil {
		t.Fatalf("create route stages: %v", err)
	}
	return route
}

func TestChangeRouteRebuildsChecklistAndResetsPallets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	express := f.newExpressRoute(t)

	part, err := f.routeChange().ChangeRoute(ctx, f.part.ID, express.ID)
	if err != nil {
		t.Fatalf("change route: %v", err)
	}
	if part.RouteID == nil || *part.RouteID != express.ID {
		t.Error("part should carry the new route")
	}

	checklist, err := f.partProgress.ListByPart(ctx, nil, f.part.ID)
	if err != nil {
		t.Fatalf("list checklist: %v", err)
	}
	if len(checklist) != 2 {
		t.Fatalf("checklist should match the new route, got %d rows", len(checklist))
	}
	for _, row := range checklist {
		if row.Status != types.ProgressStatusNotProcessed {
			t.Errorf("rebuilt checklist row must start NOT_PROCESSED, got %s", row.Status)
		}
	}

	// Every pallet points at the new route's first step so stale pointers
	// cannot leak work into the old route.
	loaded, err := f.routeRepo.GetByID(ctx, nil, express.ID)
	if err != nil || loaded == nil {
		t.Fatalf("reload route: %v", err)
	}
	firstStep := loaded.Stages[0].ID
	for _, p := range f.pallets {
		pallet, err := f.palletRepo.GetByID(ctx, nil, p.ID)
		if err != nil || pallet == nil {
			t.Fatalf("load pallet: %v", err)
		}
		if pallet.CurrentStepID == nil || *pallet.CurrentStepID != firstStep {
			t.Errorf("pallet %s not reset to the first step", p.ID)
		}
	}
}

func TestChangeRouteFrozenOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	express := f.newExpressRoute(t)

	if err := f.orderRepo.UpdateFields(ctx, nil, f.order.ID, map[string]interface{}{"status": types.OrderStatusLaunched}); err != nil {
		t.Fatalf("update order: %v", err)
	}
	_, err := f.routeChange().ChangeRoute(ctx, f.part.ID, express.ID)
	if !errors.Is(err, pkgerrors.ErrDomainViolation) {
		t.Errorf("launched order should freeze the route, got %v", err)
	}
}

func TestChangeRouteToSameRoute(t *testing.T) {
	f := newFixture(t)
	_, err := f.routeChange().ChangeRoute(context.Background(), f.part.ID, f.route.ID)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("no-op change should be rejected, got %v", err)
	}
}

func TestChangeRouteUnknownRoute(t *testing.T) {
	f := newFixture(t)
	_, err := f.routeChange().ChangeRoute(context.Background(), f.part.ID, uuid.New())
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
