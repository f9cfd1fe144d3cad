package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpH "github.com/fabline/mes-backend/internal/http/handlers"
	httpMW "github.com/fabline/mes-backend/internal/http/middleware"
	"github.com/fabline/mes-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	AuthHandler     *httpH.AuthHandler
	MachineHandler  *httpH.MachineHandler
	MasterHandler   *httpH.MasterHandler
	PalletOps       *httpH.PalletOpsHandler
	RouteManagement *httpH.RouteManagementHandler
	StatsHandler    *httpH.StatsHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics())
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Browser websocket clients cannot set an Authorization header, so the
	// auth middleware also accepts ?token=.
	if cfg.RealtimeHandler != nil {
		if cfg.AuthMiddleware != nil {
			r.GET("/ws", cfg.AuthMiddleware.RequireAuth(), cfg.RealtimeHandler.Subscribe)
		} else {
			r.GET("/ws", cfg.RealtimeHandler.Subscribe)
		}
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.MachineHandler != nil {
			protected.GET("/machines/:machineId/task", cfg.MachineHandler.Tasks)
			protected.GET("/machines/segment/orders", cfg.MachineHandler.SegmentOrders)
		}

		if cfg.MasterHandler != nil {
			protected.GET("/details/master/:orderId/segment/:segmentId", cfg.MasterHandler.Details)
		}

		if cfg.PalletOps != nil {
			protected.POST("/pallet-operations/assign-to-machine", cfg.PalletOps.AssignToMachine)
			protected.POST("/pallet-operations/complete", cfg.PalletOps.Complete)
			protected.POST("/pallet-operations/move-to-buffer", cfg.PalletOps.MoveToBuffer)
		}

		if cfg.RouteManagement != nil {
			protected.PATCH("/route-management/parts/:partId/route", cfg.RouteManagement.ChangeRoute)
		}

		if cfg.StatsHandler != nil {
			protected.GET("/stats/completions", cfg.StatsHandler.Completions)
		}
	}

	return r
}
