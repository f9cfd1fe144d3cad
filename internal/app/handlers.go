package app

import (
	httpH "github.com/fabline/mes-backend/internal/http/handlers"
	httpMW "github.com/fabline/mes-backend/internal/http/middleware"
	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/realtime"
)

type Handlers struct {
	Health          *httpH.HealthHandler
	Auth            *httpH.AuthHandler
	Machine         *httpH.MachineHandler
	Master          *httpH.MasterHandler
	PalletOps       *httpH.PalletOpsHandler
	RouteManagement *httpH.RouteManagementHandler
	Stats           *httpH.StatsHandler
	Realtime        *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, s Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:          httpH.NewHealthHandler(),
		Auth:            httpH.NewAuthHandler(s.Auth),
		Machine:         httpH.NewMachineHandler(s.Tasks),
		Master:          httpH.NewMasterHandler(s.Tasks),
		PalletOps:       httpH.NewPalletOpsHandler(s.PalletOps),
		RouteManagement: httpH.NewRouteManagementHandler(s.RouteChange),
		Stats:           httpH.NewStatsHandler(s.Stats),
		Realtime:        httpH.NewRealtimeHandler(hub),
	}
}

func wireMiddleware(log *logger.Logger, s Services) *httpMW.AuthMiddleware {
	return httpMW.NewAuthMiddleware(log, s.Auth)
}
