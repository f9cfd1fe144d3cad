package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func assertQuantities(t *testing.T, got Quantities, ready, distributed, completed int) {
	t.Helper()
	if got.Ready != ready || got.Distributed != distributed || got.Completed != completed {
		t.Errorf("quantities = ready %d / distributed %d / completed %d, want %d / %d / %d",
			got.Ready, got.Distributed, got.Completed, ready, distributed, completed)
	}
}

func TestClassifyFreshPartIsAllReadyAtFirstStage(t *testing.T) {
	f := newFixture(t)

	assertQuantities(t, f.classify(t, "CUT"), 10, 0, 0)
	// Nothing is eligible downstream yet.
	assertQuantities(t, f.classify(t, "EDGE"), 0, 0, 0)
	assertQuantities(t, f.classify(t, "PACK"), 0, 0, 0)
}

func TestClassifyFollowsThePalletLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	operator := uuid.New()

	// Assign the first pallet: its 5 move from ready to distributed.
	if _, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["CUT"].ID, &operator); err != nil {
		t.Fatalf("assign: %v", err)
	}
	assertQuantities(t, f.classify(t, "CUT"), 5, 5, 0)

	// Complete it: 5 completed at CUT, and the same 5 become ready at EDGE
	// because their previous stage is done.
	if _, err := f.palletOps.CompleteProcessing(ctx, f.pallets[0].ID, f.machine.ID, nil, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	assertQuantities(t, f.classify(t, "CUT"), 5, 0, 5)
	assertQuantities(t, f.classify(t, "EDGE"), 5, 0, 0)

	// The untouched pallet still waits at CUT.
	pallet, err := f.palletRepo.GetByID(ctx, nil, f.pallets[1].ID)
	if err != nil || pallet == nil {
		t.Fatalf("load pallet: %v", err)
	}
	if pallet.CurrentStepID == nil || *pallet.CurrentStepID != f.routeStages["CUT"].ID {
		t.Error("second pallet should still point at CUT")
	}
}

func TestClassifyClampsToTotalQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Demand below the summed pallet quantities: 2x5 on pallets, 8 demanded.
	if err := f.partRepo.UpdateFields(ctx, nil, f.part.ID, map[string]interface{}{"total_quantity": 8}); err != nil {
		t.Fatalf("shrink demand: %v", err)
	}
	assertQuantities(t, f.classify(t, "CUT"), 8, 0, 0)
}

func TestClassifyIsSideEffectFree(t *testing.T) {
	f := newFixture(t)

	first := f.classify(t, "CUT")
	second := f.classify(t, "CUT")
	if first != second {
		t.Errorf("two classifications with no mutation differ: %+v vs %+v", first, second)
	}
}
