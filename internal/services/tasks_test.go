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

func (f *fixture) tasks() TaskService {
	return NewTaskService(f.log, f.machineRepo, f.partRepo, f.orderRepo, f.partProgress, f.routing, f.classifier)
}

// newSegment builds a segment covering the given stage codes and returns it.
func (f *fixture) newSegment(t *testing.T, codes ...string) *types.ProductionSegment {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	segment := &types.ProductionSegment{ID: uuid.New(), Name: "Line", CreatedAt: now, UpdatedAt: now}
	if _, err := f.segmentRepo.Create(ctx, nil, []*types.ProductionSegment{segment}); err != nil {
		t.Fatalf("create segment: %v", err)
	}
	var rows []*types.SegmentStage
	for _, code := range codes {
		stageID := f.stages[code].ID
		rows = append(rows, &types.SegmentStage{
			ID: uuid.New(), SegmentID: segment.ID, StageID: &stageID,
			CreatedAt: now, UpdatedAt: now,
		})
	}
	if _, err := f.segmentRepo.CreateStages(ctx, nil, rows); err != nil {
		t.Fatalf("create segment stages: %v", err)
	}
	return segment
}

func TestMachineTasksByExplicitStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cut := f.stages["CUT"].ID
	tasks, err := f.tasks().MachineTasks(ctx, f.machine.ID, &cut)
	if err != nil {
		t.Fatalf("machine tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("one part sits at the cutting stage, got %d tasks", len(tasks))
	}

	task := tasks[0]
	if task.ProcessStepID == nil || *task.ProcessStepID != f.routeStages["CUT"].ID {
		t.Error("task should target the route's cutting step")
	}
	if task.Ready != 10 || task.Distributed != 0 || task.Completed != 0 {
		t.Errorf("fresh part should be all ready, got %d/%d/%d", task.Ready, task.Distributed, task.Completed)
	}
	if task.Status != types.ProgressStatusNotProcessed {
		t.Errorf("operation status should come from the checklist, got %s", task.Status)
	}
	if task.Detail == nil || task.Detail.Code != "P-100" {
		t.Error("task detail should describe the part")
	}
	if task.Order == nil || task.Order.ID != f.order.ID {
		t.Error("task should reference the order")
	}
}

func TestMachineTasksFallBackToSegment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No segment and no stage: the query is unanswerable.
	_, err := f.tasks().MachineTasks(ctx, f.machine.ID, nil)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	segment := f.newSegment(t, "CUT")
	if err := f.machineRepo.UpdateFields(ctx, nil, f.machine.ID, map[string]interface{}{"segment_id": segment.ID}); err != nil {
		t.Fatalf("bind machine to segment: %v", err)
	}
	tasks, err := f.tasks().MachineTasks(ctx, f.machine.ID, nil)
	if err != nil {
		t.Fatalf("machine tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("segment-scoped query should find the part, got %d tasks", len(tasks))
	}
}

func TestSegmentOrdersTrackRemainingWork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	segment := f.newSegment(t, "CUT")

	orders, err := f.tasks().SegmentOrders(ctx, segment.ID)
	if err != nil {
		t.Fatalf("segment orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("want the fixture order, got %d", len(orders))
	}
	if orders[0].Order.ID != f.order.ID || len(orders[0].Details) != 1 {
		t.Fatalf("unexpected grouping: %+v", orders[0])
	}
	if orders[0].Details[0].Ready != 10 {
		t.Errorf("all parts still ready, got %d", orders[0].Details[0].Ready)
	}

	// Complete everything at the segment; the order disappears from the
	// segment queue.
	operator := uuid.New()
	for _, pallet := range f.pallets {
		if _, err := f.palletOps.AssignToMachine(ctx, pallet.ID, f.machine.ID, f.routeStages["CUT"].ID, &operator); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if _, err := f.palletOps.CompleteProcessing(ctx, pallet.ID, f.machine.ID, nil, nil); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	orders, err = f.tasks().SegmentOrders(ctx, segment.ID)
	if err != nil {
		t.Fatalf("segment orders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("finished orders should drop out of the queue, got %d", len(orders))
	}
}

func TestMasterDetailsKeepFinishedParts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	segment := f.newSegment(t, "CUT")
	operator := uuid.New()

	for _, pallet := range f.pallets {
		if _, err := f.palletOps.AssignToMachine(ctx, pallet.ID, f.machine.ID, f.routeStages["CUT"].ID, &operator); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if _, err := f.palletOps.CompleteProcessing(ctx, pallet.ID, f.machine.ID, nil, nil); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	// Unlike the segment queue, the master view keeps completed parts so the
	// numbers stay auditable.
	details, err := f.tasks().MasterDetails(ctx, f.order.ID, segment.ID)
	if err != nil {
		t.Fatalf("master details: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("want one part row, got %d", len(details))
	}
	if details[0].Completed != 10 || details[0].Ready != 0 {
		t.Errorf("part should be fully completed at the segment, got %+v", details[0])
	}
}

func TestMasterDetailsUnknownOrder(t *testing.T) {
	f := newFixture(t)
	segment := f.newSegment(t, "CUT")
	_, err := f.tasks().MasterDetails(context.Background(), uuid.New(), segment.ID)
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
