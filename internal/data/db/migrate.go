package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/types"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity
		// =========================
		&types.User{},

		// =========================
		// Catalog
		// =========================
		&types.Material{},
		&types.Stage{},
		&types.Substage{},
		&types.Route{},
		&types.RouteStage{},
		&types.ProductionSegment{},
		&types.SegmentStage{},

		// =========================
		// Orders + parts
		// =========================
		&types.ProductionOrder{},
		&types.Part{},
		&types.PartPackage{},

		// =========================
		// Facility
		// =========================
		&types.Machine{},
		&types.MachineCapability{},
		&types.Buffer{},
		&types.BufferCell{},

		// =========================
		// Production tracking
		// =========================
		&types.Pallet{},
		&types.PalletStageProgress{},
		&types.MachineAssignment{},
		&types.PartRouteProgress{},
		&types.PartSegmentCompletion{},
	)
}

// EnsureProductionIndexes adds the partial indexes AutoMigrate cannot express.
func EnsureProductionIndexes(db *gorm.DB) error {
	// Active-assignment lookups: (pallet, route stage) with completed_at IS NULL.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_machine_assignment_active
		ON machine_assignment (pallet_id, route_stage_id)
		WHERE completed_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_machine_assignment_active: %w", err)
	}
	// Latest-progress scans per pallet across a segment's route stages.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pallet_stage_progress_latest
		ON pallet_stage_progress (pallet_id, route_stage_id, id DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_pallet_stage_progress_latest: %w", err)
	}
	// Buffer occupancy counts.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pallet_buffer_cell
		ON pallet (buffer_cell_id)
		WHERE buffer_cell_id IS NOT NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_pallet_buffer_cell: %w", err)
	}
	return nil
}
