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

func TestAssignCreatesAssignmentAndProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := uuid.New()

	op, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["CUT"].ID, &operator)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if op.CompletedAt != nil {
		t.Error("fresh assignment must be active")
	}
	if op.OperatorID == nil || *op.OperatorID != operator {
		t.Error("operator not recorded")
	}

	rows, err := f.progressRepo.ListByPallet(ctx, nil, f.pallets[0].ID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != types.ProgressStatusInProgress {
		t.Errorf("expected one IN_PROGRESS progress row, got %+v", rows)
	}
}

func TestAssignRetargetsActiveOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := uuid.New()

	first, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["CUT"].ID, &operator)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	other := &types.Machine{
		ID: uuid.New(), Code: "SAW-02", Name: "Second saw",
		Status: types.MachineStatusActive, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if _, err := f.machineRepo.Create(ctx, nil, []*types.Machine{other}); err != nil {
		t.Fatalf("create machine: %v", err)
	}

	second, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, other.ID, f.routeStages["CUT"].ID, nil)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if second.ID != first.ID {
		t.Error("reassignment must retarget in place, not create a duplicate")
	}
	if second.MachineID != other.ID {
		t.Error("assignment should point at the new machine")
	}

	rows, err := f.progressRepo.ListByPallet(ctx, nil, f.pallets[0].ID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("retargeting must not append progress, got %d rows", len(rows))
	}
}

func TestAssignRejectsInactiveMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.machineRepo.UpdateFields(ctx, nil, f.machine.ID, map[string]interface{}{"status": types.MachineStatusMaintenance}); err != nil {
		t.Fatalf("update machine: %v", err)
	}
	_, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["CUT"].ID, nil)
	if !errors.Is(err, pkgerrors.ErrDomainViolation) {
		t.Errorf("expected domain violation, got %v", err)
	}
}

func TestAssignChecksCapabilities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	// Bind the machine to EDGE only; CUT becomes unassignable regardless of
	// machine status.
	caps := []*types.MachineCapability{{
		ID: uuid.New(), MachineID: f.machine.ID, StageID: f.stages["EDGE"].ID,
		CreatedAt: now, UpdatedAt: now,
	}}
	if _, err := f.machineRepo.CreateCapabilities(ctx, nil, caps); err != nil {
		t.Fatalf("create capabilities: %v", err)
	}

	_, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["CUT"].ID, nil)
	if !errors.Is(err, pkgerrors.ErrDomainViolation) {
		t.Errorf("expected domain violation for unbound step, got %v", err)
	}
	if _, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["EDGE"].ID, nil); err != nil {
		t.Errorf("bound step should be assignable: %v", err)
	}
}

func TestAssignMissingPallet(t *testing.T) {
	f := newFixture(t)
	_, err := f.palletOps.AssignToMachine(context.Background(), uuid.New(), f.machine.ID, f.routeStages["CUT"].ID, nil)
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCompleteAdvancesThePointer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := uuid.New()
	palletID := f.pallets[0].ID

	steps := []string{"CUT", "EDGE", "PACK"}
	for i, code := range steps {
		if _, err := f.palletOps.AssignToMachine(ctx, palletID, f.machine.ID, f.routeStages[code].ID, &operator); err != nil {
			t.Fatalf("assign at %s: %v", code, err)
		}
		if _, err := f.palletOps.CompleteProcessing(ctx, palletID, f.machine.ID, nil, nil); err != nil {
			t.Fatalf("complete at %s: %v", code, err)
		}

		pallet, err := f.palletRepo.GetByID(ctx, nil, palletID)
		if err != nil || pallet == nil {
			t.Fatalf("load pallet: %v", err)
		}
		if i < len(steps)-1 {
			next := f.routeStages[steps[i+1]].ID
			if pallet.CurrentStepID == nil || *pallet.CurrentStepID != next {
				t.Fatalf("after %s the pointer should be at %s", code, steps[i+1])
			}
		} else if pallet.CurrentStepID != nil {
			t.Error("pointer should be nil after the last stage")
		}
	}

	// The per-part checklist tracked every completion.
	checklist, err := f.partProgress.ListByPart(ctx, nil, f.part.ID)
	if err != nil {
		t.Fatalf("list checklist: %v", err)
	}
	for _, row := range checklist {
		if row.Status != types.ProgressStatusCompleted {
			t.Errorf("checklist row for %s not completed", row.RouteStageID)
		}
	}
}

func TestCompleteRequiresActiveOperation(t *testing.T) {
	f := newFixture(t)
	_, err := f.palletOps.CompleteProcessing(context.Background(), f.pallets[0].ID, f.machine.ID, nil, nil)
	if !errors.Is(err, pkgerrors.ErrDomainViolation) {
		t.Errorf("expected domain violation, got %v", err)
	}
}

func TestCompleteTwiceFailsCleanly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := uuid.New()

	if _, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["CUT"].ID, &operator); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.palletOps.CompleteProcessing(ctx, f.pallets[0].ID, f.machine.ID, nil, nil); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	// The loser of a concurrent double-complete sees the same precondition
	// failure.
	_, err := f.palletOps.CompleteProcessing(ctx, f.pallets[0].ID, f.machine.ID, nil, nil)
	if !errors.Is(err, pkgerrors.ErrDomainViolation) {
		t.Errorf("second complete should be a domain violation, got %v", err)
	}
}

func TestCompleteUpsertsSegmentCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := uuid.New()
	now := time.Now()

	segment := &types.ProductionSegment{ID: uuid.New(), Name: "Cutting", CreatedAt: now, UpdatedAt: now}
	if _, err := f.segmentRepo.Create(ctx, nil, []*types.ProductionSegment{segment}); err != nil {
		t.Fatalf("create segment: %v", err)
	}

	if _, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["CUT"].ID, &operator); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.palletOps.CompleteProcessing(ctx, f.pallets[0].ID, f.machine.ID, nil, &segment.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	flag, err := f.segCompletion.Get(ctx, nil, f.part.ID, segment.ID)
	if err != nil {
		t.Fatalf("get completion flag: %v", err)
	}
	if flag == nil {
		t.Error("segment completion flag should exist")
	}
}

func TestMoveToBufferEnforcesCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cell := f.newBufferCell(t, 1, types.CellStatusAvailable)

	moved, err := f.palletOps.MoveToBuffer(ctx, f.pallets[0].ID, cell.ID)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.BufferCellID == nil || *moved.BufferCellID != cell.ID {
		t.Error("pallet should occupy the cell")
	}
	got, err := f.bufferRepo.GetCellByID(ctx, nil, cell.ID)
	if err != nil || got == nil {
		t.Fatalf("load cell: %v", err)
	}
	if got.Status != types.CellStatusOccupied {
		t.Errorf("full cell should be OCCUPIED, got %s", got.Status)
	}

	_, err = f.palletOps.MoveToBuffer(ctx, f.pallets[1].ID, cell.ID)
	if !errors.Is(err, pkgerrors.ErrDomainViolation) {
		t.Errorf("over-capacity move should fail, got %v", err)
	}
}

func TestMoveToBufferFreesTheOldCell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.newBufferCell(t, 1, types.CellStatusAvailable)
	second := f.newBufferCell(t, 1, types.CellStatusAvailable)

	if _, err := f.palletOps.MoveToBuffer(ctx, f.pallets[0].ID, first.ID); err != nil {
		t.Fatalf("first move: %v", err)
	}
	if _, err := f.palletOps.MoveToBuffer(ctx, f.pallets[0].ID, second.ID); err != nil {
		t.Fatalf("second move: %v", err)
	}

	old, err := f.bufferRepo.GetCellByID(ctx, nil, first.ID)
	if err != nil || old == nil {
		t.Fatalf("load old cell: %v", err)
	}
	if old.Status != types.CellStatusAvailable {
		t.Errorf("vacated cell should be AVAILABLE, got %s", old.Status)
	}
}

func TestMoveToBufferRejectsMaintenanceCell(t *testing.T) {
	f := newFixture(t)
	cell := f.newBufferCell(t, 1, types.CellStatusMaintenance)

	_, err := f.palletOps.MoveToBuffer(context.Background(), f.pallets[0].ID, cell.ID)
	if !errors.Is(err, pkgerrors.ErrDomainViolation) {
		t.Errorf("maintenance cell should reject moves, got %v", err)
	}
}

func TestMoveToBufferLeavesProcessingStateAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cell := f.newBufferCell(t, 2, types.CellStatusAvailable)

	before, _ := f.palletRepo.GetByID(ctx, nil, f.pallets[0].ID)
	if _, err := f.palletOps.MoveToBuffer(ctx, f.pallets[0].ID, cell.ID); err != nil {
		t.Fatalf("move: %v", err)
	}
	after, err := f.palletRepo.GetByID(ctx, nil, f.pallets[0].ID)
	if err != nil || after == nil {
		t.Fatalf("load pallet: %v", err)
	}
	if before.CurrentStepID == nil || after.CurrentStepID == nil || *before.CurrentStepID != *after.CurrentStepID {
		t.Error("a buffer move must not touch the stage pointer")
	}
	rows, err := f.progressRepo.ListByPallet(ctx, nil, f.pallets[0].ID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(rows) != 0 {
		t.Error("a buffer move must not append progress")
	}
}
