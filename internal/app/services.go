package app

import (
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Routing     services.RoutingService
	Classifier  services.ClassificationService
	PalletOps   services.PalletOpsService
	RouteChange services.RouteChangeService
	Tasks       services.TaskService
	Stats       services.StatsService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, notifier services.Notifier) Services {
	log.Info("Wiring services...")

	routing := services.NewRoutingService(log, r.Route, r.Stage, r.Segment)
	classifier := services.NewClassificationService(log, r.Pallet, r.Progress, r.Assignment)

	return Services{
		Auth:       services.NewAuthService(log, r.User, cfg.JWTSecret, cfg.TokenTTL),
		Routing:    routing,
		Classifier: classifier,
		PalletOps: services.NewPalletOpsService(
			db, log,
			r.Pallet, r.Machine, r.Route,
			r.Progress, r.Assignment, r.PartProgress, r.SegmentCompletion,
			r.Buffer, notifier,
		),
		RouteChange: services.NewRouteChangeService(db, log, r.Part, r.Order, r.Route, r.Pallet, r.PartProgress),
		Tasks:       services.NewTaskService(log, r.Machine, r.Part, r.Order, r.PartProgress, routing, classifier),
		Stats:       services.NewStatsService(log, r.Progress, r.Pallet, routing),
	}
}
