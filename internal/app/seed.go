package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/types"
)

// seedFile is the YAML catalog bootstrap: stages with substages, segments,
// machines with capabilities, routes and buffers. Codes are the natural keys;
// seeding is idempotent on stage and machine codes.
type seedFile struct {
	Stages []struct {
		Code      string `yaml:"code"`
		Name      string `yaml:"name"`
		Substages []struct {
			Code string `yaml:"code"`
			Name string `yaml:"name"`
		} `yaml:"substages"`
	} `yaml:"stages"`
	Segments []struct {
		Name   string   `yaml:"name"`
		Stages []string `yaml:"stages"`
	} `yaml:"segments"`
	Machines []struct {
		Code         string   `yaml:"code"`
		Name         string   `yaml:"name"`
		Segment      string   `yaml:"segment"`
		Capabilities []string `yaml:"capabilities"`
	} `yaml:"machines"`
	Routes []struct {
		Name   string   `yaml:"name"`
		Stages []string `yaml:"stages"`
	} `yaml:"routes"`
	Buffers []struct {
		Name  string `yaml:"name"`
		Cells []struct {
			Code     string `yaml:"code"`
			Capacity int    `yaml:"capacity"`
		} `yaml:"cells"`
	} `yaml:"buffers"`
}

// SeedCatalog bootstraps an empty database from a YAML file.
func SeedCatalog(ctx context.Context, log *logger.Logger, r Repos, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	now := time.Now()
	stageByCode := map[string]*types.Stage{}
	substageByCode := map[string]*types.Substage{}
	segmentByName := map[string]*types.ProductionSegment{}

	for _, s := range seed.Stages {
		existing, err := r.Stage.GetByCode(ctx, nil, s.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			stageByCode[s.Code] = existing
			continue
		}
		stage := &types.Stage{ID: uuid.New(), Code: s.Code, Name: s.Name, CreatedAt: now, UpdatedAt: now}
		if _, err := r.Stage.Create(ctx, nil, []*types.Stage{stage}); err != nil {
			return fmt.Errorf("seed stage %s: %w", s.Code, err)
		}
		stageByCode[s.Code] = stage

		subs := make([]*types.Substage, 0, len(s.Substages))
		for _, sub := range s.Substages {
			row := &types.Substage{
				ID:        uuid.New(),
				StageID:   stage.ID,
				Code:      sub.Code,
				Name:      sub.Name,
				CreatedAt: now,
				UpdatedAt: now,
			}
			subs = append(subs, row)
			substageByCode[sub.Code] = row
		}
		if _, err := r.Stage.CreateSubstages(ctx, nil, subs); err != nil {
			return fmt.Errorf("seed substages of %s: %w", s.Code, err)
		}
	}

	for _, seg := range seed.Segments {
		segment := &types.ProductionSegment{ID: uuid.New(), Name: seg.Name, CreatedAt: now, UpdatedAt: now}
		if _, err := r.Segment.Create(ctx, nil, []*types.ProductionSegment{segment}); err != nil {
			return fmt.Errorf("seed segment %s: %w", seg.Name, err)
		}
		segmentByName[seg.Name] = segment

		rows := make([]*types.SegmentStage, 0, len(seg.Stages))
		for _, code := range seg.Stages {
			row := &types.SegmentStage{ID: uuid.New(), SegmentID: segment.ID, CreatedAt: now, UpdatedAt: now}
			if sub, ok := substageByCode[code]; ok {
				row.SubstageID = &sub.ID
			} else if stage, ok := stageByCode[code]; ok {
				row.StageID = &stage.ID
			} else {
				return fmt.Errorf("segment %s references unknown stage code %q", seg.Name, code)
			}
			rows = append(rows, row)
		}
		if _, err := r.Segment.CreateStages(ctx, nil, rows); err != nil {
			return fmt.Errorf("seed segment stages of %s: %w", seg.Name, err)
		}
	}

	for _, m := range seed.Machines {
		existing, err := r.Machine.GetByCode(ctx, nil, m.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		machine := &types.Machine{
			ID:        uuid.New(),
			Code:      m.Code,
			Name:      m.Name,
			Status:    types.MachineStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if m.Segment != "" {
			segment, ok := segmentByName[m.Segment]
			if !ok {
				return fmt.Errorf("machine %s references unknown segment %q", m.Code, m.Segment)
			}
			machine.SegmentID = &segment.ID
		}
		if _, err := r.Machine.Create(ctx, nil, []*types.Machine{machine}); err != nil {
			return fmt.Errorf("seed machine %s: %w", m.Code, err)
		}

		caps := make([]*types.MachineCapability, 0, len(m.Capabilities))
		for _, code := range m.Capabilities {
			cap := &types.MachineCapability{ID: uuid.New(), MachineID: machine.ID, CreatedAt: now, UpdatedAt: now}
			if sub, ok := substageByCode[code]; ok {
				cap.StageID = sub.StageID
				cap.SubstageID = &sub.ID
			} else if stage, ok := stageByCode[code]; ok {
				cap.StageID = stage.ID
			} else {
				return fmt.Errorf("machine %s references unknown capability code %q", m.Code, code)
			}
			caps = append(caps, cap)
		}
		if _, err := r.Machine.CreateCapabilities(ctx, nil, caps); err != nil {
			return fmt.Errorf("seed capabilities of %s: %w", m.Code, err)
		}
	}

	for _, rt := range seed.Routes {
		route := &types.Route{ID: uuid.New(), Name: rt.Name, CreatedAt: now, UpdatedAt: now}
		if _, err := r.Route.Create(ctx, nil, []*types.Route{route}); err != nil {
			return fmt.Errorf("seed route %s: %w", rt.Name, err)
		}
		rows := make([]*types.RouteStage, 0, len(rt.Stages))
		for i, code := range rt.Stages {
			row := &types.RouteStage{
				ID:             uuid.New(),
				RouteID:        route.ID,
				SequenceNumber: i + 1,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if sub, ok := substageByCode[code]; ok {
				row.StageID = sub.StageID
				row.SubstageID = &sub.ID
			} else if stage, ok := stageByCode[code]; ok {
				row.StageID = stage.ID
			} else {
				return fmt.Errorf("route %s references unknown stage code %q", rt.Name, code)
			}
			rows = append(rows, row)
		}
		if _, err := r.Route.CreateStages(ctx, nil, rows); err != nil {
			return fmt.Errorf("seed route stages of %s: %w", rt.Name, err)
		}
	}

	for _, b := range seed.Buffers {
		buffer := &types.Buffer{ID: uuid.New(), Name: b.Name, CreatedAt: now, UpdatedAt: now}
		if _, err := r.Buffer.Create(ctx, nil, []*types.Buffer{buffer}); err != nil {
			return fmt.Errorf("seed buffer %s: %w", b.Name, err)
		}
		cells := make([]*types.BufferCell, 0, len(b.Cells))
		for _, c := range b.Cells {
			capacity := c.Capacity
			if capacity <= 0 {
				capacity = 1
			}
			cells = append(cells, &types.BufferCell{
				ID:        uuid.New(),
				BufferID:  buffer.ID,
				Code:      c.Code,
				Capacity:  capacity,
				Status:    types.CellStatusAvailable,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if _, err := r.Buffer.CreateCells(ctx, nil, cells); err != nil {
			return fmt.Errorf("seed cells of %s: %w", b.Name, err)
		}
	}

	log.Info("Catalog seeded",
		"stages", len(seed.Stages),
		"segments", len(seed.Segments),
		"machines", len(seed.Machines),
		"routes", len(seed.Routes),
		"buffers", len(seed.Buffers),
	)
	return nil
}
