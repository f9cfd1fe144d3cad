package app

import (
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/data/repos"
	"github.com/fabline/mes-backend/internal/platform/logger"
)

type Repos struct {
	User repos.UserRepo

	Route   repos.RouteRepo
	Stage   repos.StageRepo
	Segment repos.SegmentRepo

	Order repos.OrderRepo
	Part  repos.PartRepo

	Pallet            repos.PalletRepo
	Progress          repos.ProgressRepo
	Assignment        repos.AssignmentRepo
	PartProgress      repos.PartProgressRepo
	SegmentCompletion repos.SegmentCompletionRepo

	Machine repos.MachineRepo
	Buffer  repos.BufferRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User: repos.NewUserRepo(db, log),

		Route:   repos.NewRouteRepo(db, log),
		Stage:   repos.NewStageRepo(db, log),
		Segment: repos.NewSegmentRepo(db, log),

		Order: repos.NewOrderRepo(db, log),
		Part:  repos.NewPartRepo(db, log),

		Pallet:            repos.NewPalletRepo(db, log),
		Progress:          repos.NewProgressRepo(db, log),
		Assignment:        repos.NewAssignmentRepo(db, log),
		PartProgress:      repos.NewPartProgressRepo(db, log),
		SegmentCompletion: repos.NewSegmentCompletionRepo(db, log),

		Machine: repos.NewMachineRepo(db, log),
		Buffer:  repos.NewBufferRepo(db, log),
	}
}
