package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/data/repos"
	"github.com/fabline/mes-backend/internal/observability"
	pkgerrors "github.com/fabline/mes-backend/internal/pkg/errors"
	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

// PalletOpsService owns the pallet-stage state machine:
// NOT_PROCESSED → PENDING → IN_PROGRESS → COMPLETED. All multi-step effects
// run inside one database transaction; there are no application-level locks.
type PalletOpsService interface {
	AssignToMachine(ctx context.Context, palletID, machineID, routeStageID uuid.UUID, operatorID *uuid.UUID) (*types.MachineAssignment, error)
	CompleteProcessing(ctx context.Context, palletID, machineID uuid.UUID, operatorID, segmentID *uuid.UUID) (*types.MachineAssignment, error)
	MoveToBuffer(ctx context.Context, palletID, bufferCellID uuid.UUID) (*types.Pallet, error)
}

type palletOpsService struct {
	db             *gorm.DB
	log            *logger.Logger
	palletRepo     repos.PalletRepo
	machineRepo    repos.MachineRepo
	routeRepo      repos.RouteRepo
	progressRepo   repos.ProgressRepo
	assignmentRepo repos.AssignmentRepo
	partProgress   repos.PartProgressRepo
	segCompletion  repos.SegmentCompletionRepo
	bufferRepo     repos.BufferRepo
	notifier       Notifier
}

func NewPalletOpsService(
	db *gorm.DB,
	baseLog *logger.Logger,
	palletRepo repos.PalletRepo,
	machineRepo repos.MachineRepo,
	routeRepo repos.RouteRepo,
	progressRepo repos.ProgressRepo,
	assignmentRepo repos.AssignmentRepo,
	partProgress repos.PartProgressRepo,
	segCompletion repos.SegmentCompletionRepo,
	bufferRepo repos.BufferRepo,
	notifier Notifier,
) PalletOpsService {
	return &palletOpsService{
		db:             db,
		log:            baseLog.With("service", "PalletOpsService"),
		palletRepo:     palletRepo,
		machineRepo:    machineRepo,
		routeRepo:      routeRepo,
		progressRepo:   progressRepo,
		assignmentRepo: assignmentRepo,
		partProgress:   partProgress,
		segCompletion:  segCompletion,
		bufferRepo:     bufferRepo,
		notifier:       notifier,
	}
}

func (s *palletOpsService) AssignToMachine(ctx context.Context, palletID, machineID, routeStageID uuid.UUID, operatorID *uuid.UUID) (*types.MachineAssignment, error) {
	pallet, err := s.palletRepo.GetByID(ctx, nil, palletID)
	if err != nil {
		return nil, fmt.Errorf("load pallet: %w", err)
	}
	if pallet == nil {
		return nil, fmt.Errorf("pallet %s: %w", palletID, pkgerrors.ErrNotFound)
	}
	machine, err := s.machineRepo.GetByID(ctx, nil, machineID)
	if err != nil {
		return nil, fmt.Errorf("load machine: %w", err)
	}
	if machine == nil {
		return nil, fmt.Errorf("machine %s: %w", machineID, pkgerrors.ErrNotFound)
	}
	routeStage, err := s.routeRepo.GetStageByID(ctx, nil, routeStageID)
	if err != nil {
		return nil, fmt.Errorf("load route stage: %w", err)
	}
	if routeStage == nil {
		return nil, fmt.Errorf("route stage %s: %w", routeStageID, pkgerrors.ErrNotFound)
	}

	if err := machineCanProcess(machine, routeStage); err != nil {
		return nil, err
	}

	var op *types.MachineAssignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := s.assignmentRepo.ActiveInStages(ctx, tx, palletID, []uuid.UUID{routeStageID})
		if err != nil {
			return fmt.Errorf("find active assignment: %w", err)
		}
		if active != nil {
			// A job in progress moves to the new machine without losing
			// progress; no duplicate row is created.
			active.MachineID = machineID
			if operatorID != nil {
				active.OperatorID = operatorID
			}
			if err := s.assignmentRepo.Update(ctx, tx, active); err != nil {
				return fmt.Errorf("retarget assignment: %w", err)
			}
			op = active
			return nil
		}
		now := time.Now()
		rows, err := s.assignmentRepo.Create(ctx, tx, []*types.MachineAssignment{{
			ID:           uuid.New(),
			PalletID:     palletID,
			MachineID:    machineID,
			RouteStageID: routeStageID,
			OperatorID:   operatorID,
			StartedAt:    now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}})
		if err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		op = rows[0]
		if _, err := s.progressRepo.Append(ctx, tx, palletID, routeStageID, types.ProgressStatusInProgress, nil); err != nil {
			return fmt.Errorf("append progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.PalletTransitions.WithLabelValues("assign").Inc()
	s.notifier.Publish(machineRoom(machineID), "pallet.assigned", op)
	return op, nil
}

func (s *palletOpsService) CompleteProcessing(ctx context.Context, palletID, machineID uuid.UUID, operatorID, segmentID *uuid.UUID) (*types.MachineAssignment, error) {
	pallet, err := s.palletRepo.GetByID(ctx, nil, palletID)
	if err != nil {
		return nil, fmt.Errorf("load pallet: %w", err)
	}
	if pallet == nil {
		return nil, fmt.Errorf("pallet %s: %w", palletID, pkgerrors.ErrNotFound)
	}
	machine, err := s.machineRepo.GetByID(ctx, nil, machineID)
	if err != nil {
		return nil, fmt.Errorf("load machine: %w", err)
	}
	if machine == nil {
		return nil, fmt.Errorf("machine %s: %w", machineID, pkgerrors.ErrNotFound)
	}
	if pallet.CurrentStepID == nil {
		return nil, fmt.Errorf("pallet %s has finished its route: %w", palletID, pkgerrors.ErrDomainViolation)
	}
	stepID := *pallet.CurrentStepID

	var op *types.MachineAssignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The precondition doubles as the concurrency guard: a competing
		// completion that commits first removes the active row and the loser
		// fails here instead of corrupting state.
		active, err := s.assignmentRepo.ActiveForMachineStep(ctx, tx, palletID, machineID, stepID)
		if err != nil {
			return fmt.Errorf("find active operation: %w", err)
		}
		if active == nil {
			return fmt.Errorf("no active operation for pallet %s on machine %s: %w", palletID, machineID, pkgerrors.ErrDomainViolation)
		}
		resolvedOperator := operatorID
		if resolvedOperator == nil {
			resolvedOperator = active.OperatorID
		}
		if resolvedOperator == nil {
			return fmt.Errorf("operator not resolvable: %w", pkgerrors.ErrDomainViolation)
		}

		now := time.Now()
		active.CompletedAt = &now
		active.OperatorID = resolvedOperator
		if err := s.assignmentRepo.Update(ctx, tx, active); err != nil {
			return fmt.Errorf("complete assignment: %w", err)
		}
		if _, err := s.progressRepo.Append(ctx, tx, palletID, stepID, types.ProgressStatusCompleted, &now); err != nil {
			return fmt.Errorf("append progress: %w", err)
		}

		routeStage, err := s.routeRepo.GetStageByID(ctx, tx, stepID)
		if err != nil {
			return fmt.Errorf("load route stage: %w", err)
		}
		if routeStage == nil {
			return fmt.Errorf("route stage %s: %w", stepID, pkgerrors.ErrNotFound)
		}
		next, err := s.routeRepo.NextStage(ctx, tx, routeStage.RouteID, routeStage.SequenceNumber)
		if err != nil {
			return fmt.Errorf("find next stage: %w", err)
		}
		var nextID *uuid.UUID
		if next != nil {
			nextID = &next.ID
		}
		if err := s.palletRepo.UpdateFields(ctx, tx, palletID, map[string]interface{}{"current_step_id": nextID}); err != nil {
			return fmt.Errorf("advance pallet: %w", err)
		}
		if err := s.partProgress.MarkCompleted(ctx, tx, pallet.PartID, stepID); err != nil {
			return fmt.Errorf("mark part progress: %w", err)
		}
		if segmentID != nil {
			if err := s.segCompletion.Upsert(ctx, tx, pallet.PartID, *segmentID, now); err != nil {
				return fmt.Errorf("upsert segment completion: %w", err)
			}
		}
		op = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.PalletTransitions.WithLabelValues("complete").Inc()
	s.notifier.Publish(machineRoom(machineID), "pallet.completed", op)
	return op, nil
}

func (s *palletOpsService) MoveToBuffer(ctx context.Context, palletID, bufferCellID uuid.UUID) (*types.Pallet, error) {
	pallet, err := s.palletRepo.GetByID(ctx, nil, palletID)
	if err != nil {
		return nil, fmt.Errorf("load pallet: %w", err)
	}
	if pallet == nil {
		return nil, fmt.Errorf("pallet %s: %w", palletID, pkgerrors.ErrNotFound)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cell, err := s.bufferRepo.GetCellForUpdate(ctx, tx, bufferCellID)
		if err != nil {
			return fmt.Errorf("load buffer cell: %w", err)
		}
		if cell == nil {
			return fmt.Errorf("buffer cell %s: %w", bufferCellID, pkgerrors.ErrNotFound)
		}
		if cell.Status != types.CellStatusAvailable && cell.Status != types.CellStatusOccupied {
			return fmt.Errorf("buffer cell %s is %s: %w", bufferCellID, cell.Status, pkgerrors.ErrDomainViolation)
		}
		occupants, err := s.palletRepo.CountInCell(ctx, tx, bufferCellID, &palletID)
		if err != nil {
			return fmt.Errorf("count occupants: %w", err)
		}
		if int(occupants)+1 > cell.Capacity {
			return fmt.Errorf("buffer cell %s at capacity: %w", bufferCellID, pkgerrors.ErrDomainViolation)
		}

		oldCellID := pallet.BufferCellID
		if err := s.palletRepo.UpdateFields(ctx, tx, palletID, map[string]interface{}{"buffer_cell_id": bufferCellID}); err != nil {
			return fmt.Errorf("move pallet: %w", err)
		}
		newStatus := types.CellStatusAvailable
		if int(occupants)+1 == cell.Capacity {
			newStatus = types.CellStatusOccupied
		}
		if err := s.bufferRepo.UpdateCellFields(ctx, tx, bufferCellID, map[string]interface{}{"status": newStatus}); err != nil {
			return fmt.Errorf("update cell status: %w", err)
		}
		if oldCellID != nil && *oldCellID != bufferCellID {
			if err := s.refreshCellStatus(ctx, tx, *oldCellID); err != nil {
				return err
			}
		}
		pallet.BufferCellID = &bufferCellID
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.PalletTransitions.WithLabelValues("move_to_buffer").Inc()
	s.notifier.Publish(palletRoom(palletID), "pallet.moved", pallet)
	return pallet, nil
}

func (s *palletOpsService) refreshCellStatus(ctx context.Context, tx *gorm.DB, cellID uuid.UUID) error {
	cell, err := s.bufferRepo.GetCellByID(ctx, tx, cellID)
	if err != nil {
		return fmt.Errorf("load old cell: %w", err)
	}
	if cell == nil || cell.Status == types.CellStatusMaintenance {
		return nil
	}
	occupants, err := s.palletRepo.CountInCell(ctx, tx, cellID, nil)
	if err != nil {
		return fmt.Errorf("count old cell occupants: %w", err)
	}
	status := types.CellStatusAvailable
	if int(occupants) >= cell.Capacity {
		status = types.CellStatusOccupied
	}
	if status == cell.Status {
		return nil
	}
	if err := s.bufferRepo.UpdateCellFields(ctx, tx, cellID, map[string]interface{}{"status": status}); err != nil {
		return fmt.Errorf("update old cell status: %w", err)
	}
	return nil
}

// machineCanProcess gates assignment: machines with capability bindings must
// be bound to the step's stage or substage, machines without bindings are
// gated on ACTIVE status only.
func machineCanProcess(machine *types.Machine, routeStage *types.RouteStage) error {
	if len(machine.Capabilities) > 0 {
		for _, cap := range machine.Capabilities {
			if cap.SubstageID != nil && routeStage.SubstageID != nil && *cap.SubstageID == *routeStage.SubstageID {
				return nil
			}
			if cap.SubstageID == nil && cap.StageID == routeStage.StageID {
				return nil
			}
		}
		return fmt.Errorf("machine %s cannot perform step %s: %w", machine.ID, routeStage.ID, pkgerrors.ErrDomainViolation)
	}
	if machine.Status != types.MachineStatusActive {
		return fmt.Errorf("machine %s is %s: %w", machine.ID, machine.Status, pkgerrors.ErrDomainViolation)
	}
	return nil
}

func machineRoom(machineID uuid.UUID) string { return "machine:" + machineID.String() }
func palletRoom(palletID uuid.UUID) string   { return "pallet:" + palletID.String() }
