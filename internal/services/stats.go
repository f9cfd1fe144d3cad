package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fabline/mes-backend/internal/data/repos"
	pkgerrors "github.com/fabline/mes-backend/internal/pkg/errors"
	"github.com/fabline/mes-backend/internal/platform/logger"
)

// CompletionBucket is one day's completed quantity.
type CompletionBucket struct {
	Day      string `json:"day"`
	Quantity int    `json:"quantity"`
}

type StatsService interface {
	// Completions sums completed pallet quantities per day over [from, to),
	// optionally restricted to one stage.
	Completions(ctx context.Context, from, to time.Time, stageID *uuid.UUID) ([]*CompletionBucket, error)
}

type statsService struct {
	log          *logger.Logger
	progressRepo repos.ProgressRepo
	palletRepo   repos.PalletRepo
	routing      RoutingService
}

func NewStatsService(baseLog *logger.Logger, progressRepo repos.ProgressRepo, palletRepo repos.PalletRepo, routing RoutingService) StatsService {
	return &statsService{
		log:          baseLog.With("service", "StatsService"),
		progressRepo: progressRepo,
		palletRepo:   palletRepo,
		routing:      routing,
	}
}

func (s *statsService) Completions(ctx context.Context, from, to time.Time, stageID *uuid.UUID) ([]*CompletionBucket, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("empty time range: %w", pkgerrors.ErrInvalidArgument)
	}

	var routeStageIDs []uuid.UUID
	if stageID != nil {
		scope, err := s.routing.StageScope(ctx, *stageID)
		if err != nil {
			return nil, err
		}
		if scope.Empty() {
			return []*CompletionBucket{}, nil
		}
		routeStageIDs = scope.RouteStageIDs
	}

	rows, err := s.progressRepo.CompletedInRange(ctx, nil, routeStageIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("load completions: %w", err)
	}
	if len(rows) == 0 {
		return []*CompletionBucket{}, nil
	}

	palletIDs := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]bool{}
	for _, row := range rows {
		if !seen[row.PalletID] {
			seen[row.PalletID] = true
			palletIDs = append(palletIDs, row.PalletID)
		}
	}
	pallets, err := s.palletRepo.ListByIDs(ctx, nil, palletIDs)
	if err != nil {
		return nil, fmt.Errorf("load pallets: %w", err)
	}
	quantityOf := make(map[uuid.UUID]int, len(pallets))
	for _, p := range pallets {
		quantityOf[p.ID] = p.Quantity
	}

	// Bucketing happens here rather than in SQL so the projection behaves the
	// same on every dialect.
	byDay := map[string]int{}
	for _, row := range rows {
		if row.CompletedAt == nil {
			continue
		}
		day := row.CompletedAt.UTC().Format("2006-01-02")
		byDay[day] += quantityOf[row.PalletID]
	}

	out := make([]*CompletionBucket, 0, len(byDay))
	for day, qty := range byDay {
		out = append(out, &CompletionBucket{Day: day, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}
