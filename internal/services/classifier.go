package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fabline/mes-backend/internal/data/repos"
	"github.com/fabline/mes-backend/internal/observability"
	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

// Quantities partitions a part's pallet quantities for one stage context.
type Quantities struct {
	Ready       int `json:"readyForProcessing"`
	Distributed int `json:"distributed"`
	Completed   int `json:"completed"`
}

// ClassificationService computes the ready/distributed/completed split for a
// part against a stage or segment scope. It is read-only: two calls with no
// mutation in between return identical results.
type ClassificationService interface {
	Classify(ctx context.Context, part *types.Part, targetStageID uuid.UUID, scope *StageScope) (Quantities, error)
}

type classificationService struct {
	log            *logger.Logger
	palletRepo     repos.PalletRepo
	progressRepo   repos.ProgressRepo
	assignmentRepo repos.AssignmentRepo
}

func NewClassificationService(
	baseLog *logger.Logger,
	palletRepo repos.PalletRepo,
	progressRepo repos.ProgressRepo,
	assignmentRepo repos.AssignmentRepo,
) ClassificationService {
	return &classificationService{
		log:            baseLog.With("service", "ClassificationService"),
		palletRepo:     palletRepo,
		progressRepo:   progressRepo,
		assignmentRepo: assignmentRepo,
	}
}

func (s *classificationService) Classify(ctx context.Context, part *types.Part, targetStageID uuid.UUID, scope *StageScope) (Quantities, error) {
	var out Quantities
	if part == nil || scope.Empty() {
		return out, nil
	}
	observability.ClassificationCalls.Inc()

	isFirst := IsFirstStage(part, targetStageID)
	prevStageIDs := PreviousStageIDs(part, targetStageID)

	pallets := part.Pallets
	if pallets == nil {
		var err error
		pallets, err = s.palletRepo.ListByPart(ctx, nil, part.ID)
		if err != nil {
			return out, fmt.Errorf("list pallets: %w", err)
		}
	}

	for _, pallet := range pallets {
		q := pallet.Quantity

		segProgress, err := s.progressRepo.LatestInRouteStages(ctx, nil, pallet.ID, scope.RouteStageIDs)
		if err != nil {
			return out, fmt.Errorf("latest progress: %w", err)
		}

		if segProgress != nil {
			switch segProgress.Status {
			case types.ProgressStatusCompleted:
				out.Completed += q
			case types.ProgressStatusInProgress:
				out.Distributed += q
			default: // PENDING and NOT_PROCESSED are both "not yet started"
				active, err := s.assignmentRepo.ActiveInStages(ctx, nil, pallet.ID, scope.RouteStageIDs)
				if err != nil {
					return out, fmt.Errorf("active assignment: %w", err)
				}
				if active != nil {
					out.Distributed += q
					continue
				}
				anyAssigned, err := s.assignmentRepo.AnyInStages(ctx, nil, pallet.ID, scope.RouteStageIDs)
				if err != nil {
					return out, fmt.Errorf("any assignment: %w", err)
				}
				anyDone, err := s.assignmentRepo.CompletedInStages(ctx, nil, pallet.ID, scope.RouteStageIDs)
				if err != nil {
					return out, fmt.Errorf("completed assignment: %w", err)
				}
				if anyAssigned && !anyDone {
					// Pending on another machine in this segment; no bucket.
					continue
				}
				eligible, err := s.readyEligible(ctx, pallet.ID, isFirst, prevStageIDs)
				if err != nil {
					return out, err
				}
				if eligible {
					out.Ready += q
				}
			}
			continue
		}

		// No progress recorded for this segment yet.
		active, err := s.assignmentRepo.ActiveInStages(ctx, nil, pallet.ID, scope.RouteStageIDs)
		if err != nil {
			return out, fmt.Errorf("active assignment: %w", err)
		}
		if active != nil {
			out.Distributed += q
			continue
		}
		anyDone, err := s.assignmentRepo.CompletedInStages(ctx, nil, pallet.ID, scope.RouteStageIDs)
		if err != nil {
			return out, fmt.Errorf("completed assignment: %w", err)
		}
		if anyDone {
			out.Completed += q
			continue
		}
		eligible, err := s.readyEligible(ctx, pallet.ID, isFirst, prevStageIDs)
		if err != nil {
			return out, err
		}
		if eligible {
			out.Ready += q
		}
		// Otherwise the pallet is not yet eligible here and contributes to
		// none of the three buckets.
	}

	// TotalQuantity may be below the pallet sum when demand spans packages
	// with partial pallet allocation; clamp so over-allocation never leaks
	// into the reported numbers.
	out.Ready = minInt(out.Ready, part.TotalQuantity)
	out.Distributed = minInt(out.Distributed, part.TotalQuantity)
	out.Completed = minInt(out.Completed, part.TotalQuantity)
	return out, nil
}

// readyEligible gates the "ready" bucket: first-stage pallets are always
// eligible, later stages require a COMPLETED progress row at every previous
// base stage.
func (s *classificationService) readyEligible(ctx context.Context, palletID uuid.UUID, isFirst bool, prevStageIDs []uuid.UUID) (bool, error) {
	if isFirst {
		return true, nil
	}
	if len(prevStageIDs) == 0 {
		return true, nil
	}
	done, err := s.progressRepo.CompletedBaseStages(ctx, nil, palletID, prevStageIDs)
	if err != nil {
		return false, fmt.Errorf("completed base stages: %w", err)
	}
	if len(done) < len(prevStageIDs) {
		return false, nil
	}
	doneSet := make(map[uuid.UUID]bool, len(done))
	for _, id := range done {
		doneSet[id] = true
	}
	for _, id := range prevStageIDs {
		if !doneSet[id] {
			return false, nil
		}
	}
	return true, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
