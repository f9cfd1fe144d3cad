package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/fabline/mes-backend/internal/pkg/errors"
)

func (f *fixture) stats() StatsService {
	return NewStatsService(f.log, f.progressRepo, f.palletRepo, f.routing)
}

func TestCompletionsBucketsByDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := uuid.New()

	for _, pallet := range f.pallets {
		if _, err := f.palletOps.AssignToMachine(ctx, pallet.ID, f.machine.ID, f.routeStages["CUT"].ID, &operator); err != nil {
			t.Fatalf("assign: %v", err)
		}
		if _, err := f.palletOps.CompleteProcessing(ctx, pallet.ID, f.machine.ID, nil, nil); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	from := time.Now().UTC().Add(-24 * time.Hour)
	to := time.Now().UTC().Add(24 * time.Hour)

	buckets, err := f.stats().Completions(ctx, from, to, nil)
	if err != nil {
		t.Fatalf("completions: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("both completions happened today, want 1 bucket, got %d", len(buckets))
	}
	if buckets[0].Quantity != 10 {
		t.Errorf("want 10 completed parts, got %d", buckets[0].Quantity)
	}
	if buckets[0].Day != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("unexpected bucket day %s", buckets[0].Day)
	}
}

func TestCompletionsStageFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	operator := uuid.New()

	if _, err := f.palletOps.AssignToMachine(ctx, f.pallets[0].ID, f.machine.ID, f.routeStages["CUT"].ID, &operator); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.palletOps.CompleteProcessing(ctx, f.pallets[0].ID, f.machine.ID, nil, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}

	from := time.Now().UTC().Add(-24 * time.Hour)
	to := time.Now().UTC().Add(24 * time.Hour)

	cut := f.stages["CUT"].ID
	buckets, err := f.stats().Completions(ctx, from, to, &cut)
	if err != nil {
		t.Fatalf("completions: %v", err)
	}
	if len(buckets) != 1 || buckets[0].Quantity != 5 {
		t.Fatalf("want one bucket of 5 at the cutting stage, got %+v", buckets)
	}

	edge := f.stages["EDGE"].ID
	buckets, err = f.stats().Completions(ctx, from, to, &edge)
	if err != nil {
		t.Fatalf("completions: %v", err)
	}
	if len(buckets) != 0 {
		t.Errorf("nothing finished edging yet, got %+v", buckets)
	}
}

func TestCompletionsEmptyRange(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	_, err := f.stats().Completions(context.Background(), now, now, nil)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("empty range should be invalid, got %v", err)
	}
}
