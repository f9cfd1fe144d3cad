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

// StageScope describes one production segment's footprint: the base stages it
// covers and every route-stage row (across all routes) that belongs to it.
type StageScope struct {
	StageIDs      []uuid.UUID
	RouteStageIDs []uuid.UUID
}

func (s *StageScope) Empty() bool {
	return s == nil || len(s.RouteStageIDs) == 0
}

type RoutingService interface {
	// RouteStages returns the ordered stage list of a route.
	RouteStages(ctx context.Context, routeID uuid.UUID) ([]*types.RouteStage, error)
	// StageScope resolves a single stage (plus its substages) to a scope.
	StageScope(ctx context.Context, stageID uuid.UUID) (*StageScope, error)
	// SegmentScope resolves a production segment to a scope.
	SegmentScope(ctx context.Context, segmentID uuid.UUID) (*StageScope, error)
}

type routingService struct {
	log         *logger.Logger
	routeRepo   repos.RouteRepo
	stageRepo   repos.StageRepo
	segmentRepo repos.SegmentRepo
}

func NewRoutingService(baseLog *logger.Logger, routeRepo repos.RouteRepo, stageRepo repos.StageRepo, segmentRepo repos.SegmentRepo) RoutingService {
	return &routingService{
		log:         baseLog.With("service", "RoutingService"),
		routeRepo:   routeRepo,
		stageRepo:   stageRepo,
		segmentRepo: segmentRepo,
	}
}

func (s *routingService) RouteStages(ctx context.Context, routeID uuid.UUID) ([]*types.RouteStage, error) {
	route, err := s.routeRepo.GetByID(ctx, nil, routeID)
	if err != nil {
		return nil, fmt.Errorf("load route: %w", err)
	}
	if route == nil {
		return nil, fmt.Errorf("route %s: %w", routeID, pkgerrors.ErrNotFound)
	}
	return route.Stages, nil
}

func (s *routingService) StageScope(ctx context.Context, stageID uuid.UUID) (*StageScope, error) {
	stage, err := s.stageRepo.GetByID(ctx, nil, stageID)
	if err != nil {
		return nil, fmt.Errorf("load stage: %w", err)
	}
	if stage == nil {
		return nil, fmt.Errorf("stage %s: %w", stageID, pkgerrors.ErrNotFound)
	}
	substageIDs, err := s.stageRepo.SubstageIDsForStage(ctx, nil, stageID)
	if err != nil {
		return nil, fmt.Errorf("load substages: %w", err)
	}
	routeStages, err := s.routeRepo.FindStagesByStageOrSubstages(ctx, nil, stageID, substageIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve route stages: %w", err)
	}
	scope := &StageScope{StageIDs: []uuid.UUID{stageID}}
	for _, rs := range routeStages {
		scope.RouteStageIDs = append(scope.RouteStageIDs, rs.ID)
	}
	return scope, nil
}

func (s *routingService) SegmentScope(ctx context.Context, segmentID uuid.UUID) (*StageScope, error) {
	segment, err := s.segmentRepo.GetByID(ctx, nil, segmentID)
	if err != nil {
		return nil, fmt.Errorf("load segment: %w", err)
	}
	if segment == nil {
		return nil, fmt.Errorf("segment %s: %w", segmentID, pkgerrors.ErrNotFound)
	}

	scope := &StageScope{}
	seenStage := map[uuid.UUID]bool{}
	seenRS := map[uuid.UUID]bool{}
	for _, ss := range segment.Stages {
		var stageID uuid.UUID
		var substageIDs []uuid.UUID
		switch {
		case ss.SubstageID != nil:
			sub, err := s.stageRepo.GetSubstageByID(ctx, nil, *ss.SubstageID)
			if err != nil {
				return nil, fmt.Errorf("load substage: %w", err)
			}
			if sub == nil {
				continue
			}
			stageID = sub.StageID
			substageIDs = []uuid.UUID{sub.ID}
		case ss.StageID != nil:
			stageID = *ss.StageID
			substageIDs, err = s.stageRepo.SubstageIDsForStage(ctx, nil, stageID)
			if err != nil {
				return nil, fmt.Errorf("load substages: %w", err)
			}
		default:
			continue
		}
		if !seenStage[stageID] {
			seenStage[stageID] = true
			scope.StageIDs = append(scope.StageIDs, stageID)
		}
		var routeStages []*types.RouteStage
		if ss.SubstageID != nil {
			routeStages, err = s.routeRepo.FindStagesByStageOrSubstages(ctx, nil, uuid.Nil, substageIDs)
		} else {
			routeStages, err = s.routeRepo.FindStagesByStageOrSubstages(ctx, nil, stageID, substageIDs)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve route stages: %w", err)
		}
		for _, rs := range routeStages {
			if !seenRS[rs.ID] {
				seenRS[rs.ID] = true
				scope.RouteStageIDs = append(scope.RouteStageIDs, rs.ID)
			}
		}
	}
	return scope, nil
}

// UnroutedPartsAreFirstStage is the business default for parts without a
// usable route: they are always first-stage eligible. Kept as one named
// policy so the rule is visible and testable instead of inlined at call
// sites.
func UnroutedPartsAreFirstStage(part *types.Part) bool {
	return part == nil || part.RouteID == nil || part.Route == nil || len(part.Route.Stages) == 0
}

// routeStageMatches reports whether a route entry belongs to the given base
// stage, either directly or through its substage.
func routeStageMatches(rs *types.RouteStage, stageID uuid.UUID) bool {
	if rs == nil {
		return false
	}
	if rs.StageID == stageID {
		return true
	}
	return rs.Substage != nil && rs.Substage.StageID == stageID
}

// IsFirstStage reports whether stageID is the first stage of the part's
// route: the earliest occurrence of the stage carries the route's minimum
// sequence number. Parts without a route default to true.
func IsFirstStage(part *types.Part, stageID uuid.UUID) bool {
	if UnroutedPartsAreFirstStage(part) {
		return true
	}
	minSeq, minMatch := 0, 0
	foundAny, foundMatch := false, false
	for _, rs := range part.Route.Stages {
		if !foundAny || rs.SequenceNumber < minSeq {
			minSeq = rs.SequenceNumber
			foundAny = true
		}
		if routeStageMatches(rs, stageID) {
			if !foundMatch || rs.SequenceNumber < minMatch {
				minMatch = rs.SequenceNumber
				foundMatch = true
			}
		}
	}
	if !foundMatch {
		return false
	}
	return minMatch == minSeq
}

// PreviousStageIDs returns the base stage ids of every route entry strictly
// before the earliest occurrence of the target stage. Empty when the target
// is first or absent. Only the earliest occurrence gates eligibility;
// reprocessing loops are not treated as separate gates.
func PreviousStageIDs(part *types.Part, stageID uuid.UUID) []uuid.UUID {
	if UnroutedPartsAreFirstStage(part) {
		return nil
	}
	targetSeq, found := 0, false
	for _, rs := range part.Route.Stages {
		if routeStageMatches(rs, stageID) {
			if !found || rs.SequenceNumber < targetSeq {
				targetSeq = rs.SequenceNumber
				found = true
			}
		}
	}
	if !found {
		return nil
	}
	var out []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, rs := range part.Route.Stages {
		if rs.SequenceNumber < targetSeq && !seen[rs.StageID] {
			seen[rs.StageID] = true
			out = append(out, rs.StageID)
		}
	}
	return out
}
