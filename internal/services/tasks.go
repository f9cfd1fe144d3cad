package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fabline/mes-backend/internal/data/repos"
	pkgerrors "github.com/fabline/mes-backend/internal/pkg/errors"
	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

// MachineTask is one row of a machine's work queue: the part's operation at
// the step the machine can perform, with the classified quantity split.
type MachineTask struct {
	OperationID     *uuid.UUID `json:"operationId,omitempty"`
	ProcessStepID   *uuid.UUID `json:"processStepId,omitempty"`
	ProcessStepName string     `json:"processStepName"`
	Quantity        int        `json:"quantity"`
	Status          string     `json:"status"`
	Quantities
	Detail *TaskPart  `json:"detail"`
	Order  *TaskOrder `json:"order"`
}

type TaskPart struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Size          string    `json:"size,omitempty"`
	TotalQuantity int       `json:"totalQuantity"`
}

type TaskOrder struct {
	ID       uuid.UUID `json:"id"`
	Number   string    `json:"number"`
	Customer string    `json:"customer,omitempty"`
	Status   string    `json:"status"`
}

// MasterDetail is the master-view row for one part at a segment.
type MasterDetail struct {
	PartID uuid.UUID `json:"partId"`
	Code   string    `json:"code"`
	Name   string    `json:"name"`
	Quantities
	Packages []*types.PartPackage `json:"packages"`
	Substage string               `json:"substage,omitempty"`
}

type SegmentOrder struct {
	Order   *TaskOrder      `json:"order"`
	Details []*MasterDetail `json:"details"`
}

type TaskService interface {
	MachineTasks(ctx context.Context, machineID uuid.UUID, stageID *uuid.UUID) ([]*MachineTask, error)
	SegmentOrders(ctx context.Context, segmentID uuid.UUID) ([]*SegmentOrder, error)
	MasterDetails(ctx context.Context, orderID, segmentID uuid.UUID) ([]*MasterDetail, error)
}

type taskService struct {
	log          *logger.Logger
	machineRepo  repos.MachineRepo
	partRepo     repos.PartRepo
	orderRepo    repos.OrderRepo
	partProgress repos.PartProgressRepo
	routing      RoutingService
	classifier   ClassificationService
}

func NewTaskService(
	baseLog *logger.Logger,
	machineRepo repos.MachineRepo,
	partRepo repos.PartRepo,
	orderRepo repos.OrderRepo,
	partProgress repos.PartProgressRepo,
	routing RoutingService,
	classifier ClassificationService,
) TaskService {
	return &taskService{
		log:          baseLog.With("service", "TaskService"),
		machineRepo:  machineRepo,
		partRepo:     partRepo,
		orderRepo:    orderRepo,
		partProgress: partProgress,
		routing:      routing,
		classifier:   classifier,
	}
}

func (s *taskService) MachineTasks(ctx context.Context, machineID uuid.UUID, stageID *uuid.UUID) ([]*MachineTask, error) {
	machine, err := s.machineRepo.GetByID(ctx, nil, machineID)
	if err != nil {
		return nil, fmt.Errorf("load machine: %w", err)
	}
	if machine == nil {
		return nil, fmt.Errorf("machine %s: %w", machineID, pkgerrors.ErrNotFound)
	}

	var scope *StageScope
	switch {
	case stageID != nil:
		scope, err = s.routing.StageScope(ctx, *stageID)
	case machine.SegmentID != nil:
		scope, err = s.routing.SegmentScope(ctx, *machine.SegmentID)
	default:
		return nil, fmt.Errorf("machine %s has no segment and no stage given: %w", machineID, pkgerrors.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return []*MachineTask{}, nil
	}

	parts, err := s.partRepo.ListByRouteStageIDs(ctx, nil, scope.RouteStageIDs)
	if err != nil {
		return nil, fmt.Errorf("list parts in scope: %w", err)
	}

	tasks := make([]*MachineTask, 0, len(parts))
	for _, part := range parts {
		task, err := s.buildTask(ctx, part, scope)
		if err != nil {
			return nil, err
		}
		if task != nil {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (s *taskService) SegmentOrders(ctx context.Context, segmentID uuid.UUID) ([]*SegmentOrder, error) {
	scope, err := s.routing.SegmentScope(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return []*SegmentOrder{}, nil
	}
	parts, err := s.partRepo.ListByRouteStageIDs(ctx, nil, scope.RouteStageIDs)
	if err != nil {
		return nil, fmt.Errorf("list parts in scope: %w", err)
	}

	byOrder := map[uuid.UUID]*SegmentOrder{}
	var orderIDs []uuid.UUID
	for _, part := range parts {
		detail, err := s.buildDetail(ctx, part, scope)
		if err != nil {
			return nil, err
		}
		// An order surfaces only while one of its parts still has work at
		// this segment.
		if detail == nil || detail.Ready+detail.Distributed == 0 {
			continue
		}
		group, ok := byOrder[part.OrderID]
		if !ok {
			group = &SegmentOrder{Order: orderDTO(part.Order)}
			byOrder[part.OrderID] = group
			orderIDs = append(orderIDs, part.OrderID)
		}
		group.Details = append(group.Details, detail)
	}

	out := make([]*SegmentOrder, 0, len(orderIDs))
	for _, id := range orderIDs {
		out = append(out, byOrder[id])
	}
	return out, nil
}

func (s *taskService) MasterDetails(ctx context.Context, orderID, segmentID uuid.UUID) ([]*MasterDetail, error) {
	order, err := s.orderRepo.GetByID(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, pkgerrors.ErrNotFound)
	}
	scope, err := s.routing.SegmentScope(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	parts, err := s.partRepo.ListByOrder(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order parts: %w", err)
	}

	details := make([]*MasterDetail, 0, len(parts))
	for _, part := range parts {
		detail, err := s.buildDetail(ctx, part, scope)
		if err != nil {
			return nil, err
		}
		if detail != nil {
			details = append(details, detail)
		}
	}
	return details, nil
}

func (s *taskService) buildTask(ctx context.Context, part *types.Part, scope *StageScope) (*MachineTask, error) {
	routeStage, baseStageID := targetInScope(part, scope)
	if baseStageID == uuid.Nil {
		return nil, nil
	}
	quantities, err := s.classifier.Classify(ctx, part, baseStageID, scope)
	if err != nil {
		return nil, fmt.Errorf("classify part %s: %w", part.ID, err)
	}

	task := &MachineTask{
		Quantity:   part.TotalQuantity,
		Status:     types.ProgressStatusNotProcessed,
		Quantities: quantities,
		Detail:     partDTO(part),
		Order:      orderDTO(part.Order),
	}
	if routeStage != nil {
		task.ProcessStepID = &routeStage.ID
		task.ProcessStepName = stepName(routeStage)
		progress, err := s.partProgress.ListByPart(ctx, nil, part.ID)
		if err != nil {
			return nil, fmt.Errorf("load part progress: %w", err)
		}
		for _, row := range progress {
			if row.RouteStageID == routeStage.ID {
				id := row.ID
				task.OperationID = &id
				task.Status = row.Status
				break
			}
		}
	}
	return task, nil
}

func (s *taskService) buildDetail(ctx context.Context, part *types.Part, scope *StageScope) (*MasterDetail, error) {
	routeStage, baseStageID := targetInScope(part, scope)
	if baseStageID == uuid.Nil {
		return nil, nil
	}
	quantities, err := s.classifier.Classify(ctx, part, baseStageID, scope)
	if err != nil {
		return nil, fmt.Errorf("classify part %s: %w", part.ID, err)
	}
	detail := &MasterDetail{
		PartID:     part.ID,
		Code:       part.Code,
		Name:       part.Name,
		Quantities: quantities,
		Packages:   part.Packages,
	}
	if detail.Packages == nil {
		detail.Packages = []*types.PartPackage{}
	}
	if routeStage != nil && routeStage.Substage != nil {
		detail.Substage = routeStage.Substage.Name
	}
	return detail, nil
}

// targetInScope picks the part-specific target of a scope: the earliest route
// entry (by sequence) whose ID is in scope, and its base stage. Unrouted
// parts fall back to the scope's first base stage with no route entry.
func targetInScope(part *types.Part, scope *StageScope) (*types.RouteStage, uuid.UUID) {
	if UnroutedPartsAreFirstStage(part) {
		if len(scope.StageIDs) == 0 {
			return nil, uuid.Nil
		}
		return nil, scope.StageIDs[0]
	}
	inScope := make(map[uuid.UUID]bool, len(scope.RouteStageIDs))
	for _, id := range scope.RouteStageIDs {
		inScope[id] = true
	}
	var best *types.RouteStage
	for _, rs := range part.Route.Stages {
		if !inScope[rs.ID] {
			continue
		}
		if best == nil || rs.SequenceNumber < best.SequenceNumber {
			best = rs
		}
	}
	if best == nil {
		return nil, uuid.Nil
	}
	if best.Substage != nil {
		return best, best.Substage.StageID
	}
	return best, best.StageID
}

func stepName(rs *types.RouteStage) string {
	if rs.Substage != nil {
		return rs.Substage.Name
	}
	if rs.Stage != nil {
		return rs.Stage.Name
	}
	return ""
}

func partDTO(part *types.Part) *TaskPart {
	return &TaskPart{
		ID:            part.ID,
		Code:          part.Code,
		Name:          part.Name,
		Size:          part.Size,
		TotalQuantity: part.TotalQuantity,
	}
}

func orderDTO(order *types.ProductionOrder) *TaskOrder {
	if order == nil {
		return nil
	}
	return &TaskOrder{
		ID:       order.ID,
		Number:   order.Number,
		Customer: order.Customer,
		Status:   order.Status,
	}
}
