package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/fabline/mes-backend/internal/data/db"
	"github.com/fabline/mes-backend/internal/platform/logger"
	"github.com/fabline/mes-backend/internal/realtime"
	"github.com/fabline/mes-backend/internal/server"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Hub      *realtime.Hub

	srv *server.Server
	bus realtime.Bus
}

func New() (*App, error) {
	bootLog, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg := LoadConfig(bootLog)

	log := bootLog
	if cfg.LogMode != "development" {
		bootLog.Sync()
		log, err = logger.New(cfg.LogMode)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	pg, err := db.NewPostgresService(log, cfg.PostgresDSN)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	hub := realtime.NewHub(log)
	var bus realtime.Bus
	if cfg.RedisAddr != "" {
		bus, err = realtime.NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init redis bus: %w", err)
		}
		hub.AttachBus(bus)
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, hub)
	handlerset := wireHandlers(log, serviceset, hub)

	if cfg.SeedFile != "" {
		if err := SeedCatalog(context.Background(), log, reposet, cfg.SeedFile); err != nil {
			log.Sync()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
	}

	srv := server.NewServer(server.RouterConfig{
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,

		AuthMiddleware: wireMiddleware(log, serviceset),

		HealthHandler:   handlerset.Health,
		AuthHandler:     handlerset.Auth,
		MachineHandler:  handlerset.Machine,
		MasterHandler:   handlerset.Master,
		PalletOps:       handlerset.PalletOps,
		RouteManagement: handlerset.RouteManagement,
		StatsHandler:    handlerset.Stats,
		RealtimeHandler: handlerset.Realtime,
	})

	return &App{
		Log:      log,
		DB:       theDB,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Hub:      hub,
		srv:      srv,
		bus:      bus,
	}, nil
}

// Run blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.bus != nil {
		if err := a.bus.StartForwarder(ctx, a.Hub.Deliver); err != nil {
			return fmt.Errorf("start bus forwarder: %w", err)
		}
	}

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
		return a.srv.Run(ctx, a.Cfg.HTTPAddr)
	})

	err := g.Wait()
	if a.bus != nil {
		_ = a.bus.Close()
	}
	a.Log.Sync()
	return err
}
