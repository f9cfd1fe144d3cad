package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/data/repos"
	"github.com/fabline/mes-backend/internal/data/repos/testutil"
	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

// fixture is a self-contained production line: one order, one part on a
// three-step route (CUT -> EDGE -> PACK), two pallets of five parked at the
// first step, and one active machine. Everything lives in a rolled-back
// transaction.
type fixture struct {
	tx  *gorm.DB
	log *logger.Logger

	routeRepo      repos.RouteRepo
	stageRepo      repos.StageRepo
	segmentRepo    repos.SegmentRepo
	orderRepo      repos.OrderRepo
	partRepo       repos.PartRepo
	palletRepo     repos.PalletRepo
	progressRepo   repos.ProgressRepo
	assignmentRepo repos.AssignmentRepo
	partProgress   repos.PartProgressRepo
	segCompletion  repos.SegmentCompletionRepo
	machineRepo    repos.MachineRepo
	bufferRepo     repos.BufferRepo
	userRepo       repos.UserRepo

	routing    RoutingService
	classifier ClassificationService
	palletOps  PalletOpsService

	order       *types.ProductionOrder
	part        *types.Part
	route       *types.Route
	stages      map[string]*types.Stage
	routeStages map[string]*types.RouteStage
	pallets     []*types.Pallet
	machine     *types.Machine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := testutil.Logger(t)
	tx := testutil.Tx(t, testutil.DB(t))

	f := &fixture{
		tx:  tx,
		log: log,

		routeRepo:      repos.NewRouteRepo(tx, log),
		stageRepo:      repos.NewStageRepo(tx, log),
		segmentRepo:    repos.NewSegmentRepo(tx, log),
		orderRepo:      repos.NewOrderRepo(tx, log),
		partRepo:       repos.NewPartRepo(tx, log),
		palletRepo:     repos.NewPalletRepo(tx, log),
		progressRepo:   repos.NewProgressRepo(tx, log),
		assignmentRepo: repos.NewAssignmentRepo(tx, log),
		partProgress:   repos.NewPartProgressRepo(tx, log),
		segCompletion:  repos.NewSegmentCompletionRepo(tx, log),
		machineRepo:    repos.NewMachineRepo(tx, log),
		bufferRepo:     repos.NewBufferRepo(tx, log),
		userRepo:       repos.NewUserRepo(tx, log),

		stages:      map[string]*types.Stage{},
		routeStages: map[string]*types.RouteStage{},
	}

	f.routing = NewRoutingService(log, f.routeRepo, f.stageRepo, f.segmentRepo)
	f.classifier = NewClassificationService(log, f.palletRepo, f.progressRepo, f.assignmentRepo)
	f.palletOps = NewPalletOpsService(
		tx, log,
		f.palletRepo, f.machineRepo, f.routeRepo,
		f.progressRepo, f.assignmentRepo, f.partProgress, f.segCompletion,
		f.bufferRepo, NopNotifier{},
	)

	ctx := context.Background()
	now := time.Now()

	for _, code := range []string{"CUT", "EDGE", "PACK"} {
		stage := &types.Stage{ID: uuid.New(), Code: code, Name: code, CreatedAt: now, UpdatedAt: now}
		if _, err := f.stageRepo.Create(ctx, nil, []*types.Stage{stage}); err != nil {
			t.Fatalf("create stage %s: %v", code, err)
		}
		f.stages[code] = stage
	}

	f.route = &types.Route{ID: uuid.New(), Name: "standard", CreatedAt: now, UpdatedAt: now}
	if _, err := f.routeRepo.Create(ctx, nil, []*types.Route{f.route}); err != nil {
		t.Fatalf("create route: %v", err)
	}
	var routeStages []*types.RouteStage
	for i, code := range []string{"CUT", "EDGE", "PACK"} {
		rs := &types.RouteStage{
			ID:             uuid.New(),
			RouteID:        f.route.ID,
			StageID:        f.stages[code].ID,
			SequenceNumber: i + 1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		routeStages = append(routeStages, rs)
		f.routeStages[code] = rs
	}
	if _, err := f.routeRepo.CreateStages(ctx, nil, routeStages); err != nil {
		t.Fatalf("create route stages: %v", err)
	}

	f.order = &types.ProductionOrder{
		ID:        uuid.New(),
		Number:    "ORD-" + uuid.NewString()[:8],
		Customer:  "ACME Furniture",
		Status:    types.OrderStatusPreliminary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.orderRepo.Create(ctx, nil, []*types.ProductionOrder{f.order}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	part := &types.Part{
		ID:            uuid.New(),
		OrderID:       f.order.ID,
		Code:          "P-100",
		Name:          "Side panel",
		TotalQuantity: 10,
		Status:        "NEW",
		RouteID:       &f.route.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.partRepo.Create(ctx, nil, []*types.Part{part}); err != nil {
		t.Fatalf("create part: %v", err)
	}
	f.part = part
	var checklist []*types.PartRouteProgress
	for _, rs := range routeStages {
		checklist = append(checklist, &types.PartRouteProgress{
			ID:           uuid.New(),
			PartID:       part.ID,
			RouteStageID: rs.ID,
			Status:       types.ProgressStatusNotProcessed,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if _, err := f.partProgress.Create(ctx, nil, checklist); err != nil {
		t.Fatalf("create part progress: %v", err)
	}

	firstStep := f.routeStages["CUT"].ID
	for i := 0; i < 2; i++ {
		pallet := &types.Pallet{
			ID:            uuid.New(),
			PartID:        part.ID,
			Quantity:      5,
			CurrentStepID: &firstStep,
			CreatedAt:     now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt:     now,
		}
		if _, err := f.palletRepo.Create(ctx, nil, []*types.Pallet{pallet}); err != nil {
			t.Fatalf("create pallet: %v", err)
		}
		f.pallets = append(f.pallets, pallet)
	}

	f.machine = &types.Machine{
		ID:        uuid.New(),
		Code:      "SAW-01",
		Name:      "Panel saw",
		Status:    types.MachineStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.machineRepo.Create(ctx, nil, []*types.Machine{f.machine}); err != nil {
		t.Fatalf("create machine: %v", err)
	}

	f.part = f.reloadPart(t)
	return f
}

func (f *fixture) reloadPart(t *testing.T) *types.Part {
	t.Helper()
	part, err := f.partRepo.GetByID(context.Background(), nil, f.part.ID)
	if err != nil {
		t.Fatalf("reload part: %v", err)
	}
	if part == nil {
		t.Fatal("part not found")
	}
	return part
}

func (f *fixture) stageScope(t *testing.T, code string) *StageScope {
	t.Helper()
	scope, err := f.routing.StageScope(context.Background(), f.stages[code].ID)
	if err != nil {
		t.Fatalf("stage scope %s: %v", code, err)
	}
	return scope
}

func (f *fixture) classify(t *testing.T, code string) Quantities {
	t.Helper()
	q, err := f.classifier.Classify(context.Background(), f.reloadPart(t), f.stages[code].ID, f.stageScope(t, code))
	if err != nil {
		t.Fatalf("classify at %s: %v", code, err)
	}
	return q
}

func (f *fixture) newBufferCell(t *testing.T, capacity int, status string) *types.BufferCell {
	t.Helper()
	now := time.Now()
	buffer := &types.Buffer{ID: uuid.New(), Name: "B1", CreatedAt: now, UpdatedAt: now}
	if _, err := f.bufferRepo.Create(context.Background(), nil, []*types.Buffer{buffer}); err != nil {
		t.Fatalf("create buffer: %v", err)
	}
	cell := &types.BufferCell{
		ID:        uuid.New(),
		BufferID:  buffer.ID,
		Code:      "C-" + uuid.NewString()[:4],
		Capacity:  capacity,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.bufferRepo.CreateCells(context.Background(), nil, []*types.BufferCell{cell}); err != nil {
		t.Fatalf("create buffer cell: %v", err)
	}
	return cell
}
