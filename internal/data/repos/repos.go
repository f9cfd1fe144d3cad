package repos

import (
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/data/repos/auth"
	"github.com/fabline/mes-backend/internal/data/repos/catalog"
	"github.com/fabline/mes-backend/internal/data/repos/facility"
	"github.com/fabline/mes-backend/internal/data/repos/orders"
	"github.com/fabline/mes-backend/internal/data/repos/production"
	"github.com/fabline/mes-backend/internal/platform/logger"
)

type UserRepo = auth.UserRepo

type RouteRepo = catalog.RouteRepo
type StageRepo = catalog.StageRepo
type SegmentRepo = catalog.SegmentRepo

type OrderRepo = orders.OrderRepo
type PartRepo = orders.PartRepo

type PalletRepo = production.PalletRepo
type ProgressRepo = production.ProgressRepo
type AssignmentRepo = production.AssignmentRepo
type PartProgressRepo = production.PartProgressRepo
type SegmentCompletionRepo = production.SegmentCompletionRepo

type MachineRepo = facility.MachineRepo
type BufferRepo = facility.BufferRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return auth.NewUserRepo(db, baseLog) }

func NewRouteRepo(db *gorm.DB, baseLog *logger.Logger) RouteRepo {
	return catalog.NewRouteRepo(db, baseLog)
}
func NewStageRepo(db *gorm.DB, baseLog *logger.Logger) StageRepo {
	return catalog.NewStageRepo(db, baseLog)
}
func NewSegmentRepo(db *gorm.DB, baseLog *logger.Logger) SegmentRepo {
	return catalog.NewSegmentRepo(db, baseLog)
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return orders.NewOrderRepo(db, baseLog)
}
func NewPartRepo(db *gorm.DB, baseLog *logger.Logger) PartRepo {
	return orders.NewPartRepo(db, baseLog)
}

func NewPalletRepo(db *gorm.DB, baseLog *logger.Logger) PalletRepo {
	return production.NewPalletRepo(db, baseLog)
}
func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return production.NewProgressRepo(db, baseLog)
}
func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return production.NewAssignmentRepo(db, baseLog)
}
func NewPartProgressRepo(db *gorm.DB, baseLog *logger.Logger) PartProgressRepo {
	return production.NewPartProgressRepo(db, baseLog)
}
func NewSegmentCompletionRepo(db *gorm.DB, baseLog *logger.Logger) SegmentCompletionRepo {
	return production.NewSegmentCompletionRepo(db, baseLog)
}

func NewMachineRepo(db *gorm.DB, baseLog *logger.Logger) MachineRepo {
	return facility.NewMachineRepo(db, baseLog)
}
func NewBufferRepo(db *gorm.DB, baseLog *logger.Logger) BufferRepo {
	return facility.NewBufferRepo(db, baseLog)
}
