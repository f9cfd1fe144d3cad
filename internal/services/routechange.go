package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/data/repos"
	pkgerrors "github.com/fabline/mes-backend/internal/pkg/errors"
	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

// RouteChangeService reassigns a part to a different route. Allowed only
// while the owning order has not launched; the per-part checklist is rebuilt
// from scratch and every pallet pointer resets to the new route's first stage.
type RouteChangeService interface {
	ChangeRoute(ctx context.Context, partID, routeID uuid.UUID) (*types.Part, error)
}

type routeChangeService struct {
	db           *gorm.DB
	log          *logger.Logger
	partRepo     repos.PartRepo
	orderRepo    repos.OrderRepo
	routeRepo    repos.RouteRepo
	palletRepo   repos.PalletRepo
	partProgress repos.PartProgressRepo
}

func NewRouteChangeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	partRepo repos.PartRepo,
	orderRepo repos.OrderRepo,
	routeRepo repos.RouteRepo,
	palletRepo repos.PalletRepo,
	partProgress repos.PartProgressRepo,
) RouteChangeService {
	return &routeChangeService{
		db:           db,
		log:          baseLog.With("service", "RouteChangeService"),
		partRepo:     partRepo,
		orderRepo:    orderRepo,
		routeRepo:    routeRepo,
		palletRepo:   palletRepo,
		partProgress: partProgress,
	}
}

func (s *routeChangeService) ChangeRoute(ctx context.Context, partID, routeID uuid.UUID) (*types.Part, error) {
	part, err := s.partRepo.GetByID(ctx, nil, partID)
	if err != nil {
		return nil, fmt.Errorf("load part: %w", err)
	}
	if part == nil {
		return nil, fmt.Errorf("part %s: %w", partID, pkgerrors.ErrNotFound)
	}
	order, err := s.orderRepo.GetByID(ctx, nil, part.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order %s: %w", part.OrderID, pkgerrors.ErrNotFound)
	}
	if order.Status != types.OrderStatusPreliminary && order.Status != types.OrderStatusApproved {
		return nil, fmt.Errorf("order %s is %s, route is frozen: %w", order.ID, order.Status, pkgerrors.ErrDomainViolation)
	}
	if part.RouteID != nil && *part.RouteID == routeID {
		return nil, fmt.Errorf("part %s already on route %s: %w", partID, routeID, pkgerrors.ErrInvalidArgument)
	}
	route, err := s.routeRepo.GetByID(ctx, nil, routeID)
	if err != nil {
		return nil, fmt.Errorf("load route: %w", err)
	}
	if route == nil {
		return nil, fmt.Errorf("route %s: %w", routeID, pkgerrors.ErrNotFound)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.partRepo.UpdateFields(ctx, tx, partID, map[string]interface{}{"route_id": routeID}); err != nil {
			return fmt.Errorf("reassign route: %w", err)
		}
		if err := s.partProgress.DeleteByPart(ctx, tx, partID); err != nil {
			return fmt.Errorf("clear route checklist: %w", err)
		}
		now := time.Now()
		rows := make([]*types.PartRouteProgress, 0, len(route.Stages))
		for _, rs := range route.Stages {
			rows = append(rows, &types.PartRouteProgress{
				ID:           uuid.New(),
				PartID:       partID,
				RouteStageID: rs.ID,
				Status:       types.ProgressStatusNotProcessed,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
		if _, err := s.partProgress.Create(ctx, tx, rows); err != nil {
			return fmt.Errorf("rebuild route checklist: %w", err)
		}
		// Stages are preloaded in sequence order; the first entry is the new
		// starting point for every pallet of the part.
		var firstStepID *uuid.UUID
		if len(route.Stages) > 0 {
			firstStepID = &route.Stages[0].ID
		}
		if err := s.palletRepo.UpdateStepForPart(ctx, tx, partID, firstStepID); err != nil {
			return fmt.Errorf("reset pallet pointers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("route reassigned", "partId", partID, "routeId", routeID)
	return s.partRepo.GetByID(ctx, nil, partID)
}
