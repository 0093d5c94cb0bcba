package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spacewars/internal/api"
	"spacewars/internal/authz"
	"spacewars/internal/colony"
	"spacewars/internal/combat"
	"spacewars/internal/config"
	"spacewars/internal/death"
	"spacewars/internal/log"
	"spacewars/internal/pgsql"
	"spacewars/internal/pgsql/memrepo"
	"spacewars/internal/pirate"
	"spacewars/internal/pvp"
	"spacewars/internal/repair"
	"spacewars/internal/salvage"
	"spacewars/internal/session"
)

const startupTimeout = 10 * time.Second

func main() {
	log.SetupLogger(log.LevelInfo)
	logger := log.Component("main")
	logger.Info("--- Starting Spacewars combat service ---")

	logger.Info("[step] Loading configuration")
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	log.SetupLoggerWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger = log.Component("main")
	if rejected := log.RegisterComponentPalette(cfg.LogColors); len(rejected) > 0 {
		logger.Warnf("[config] unknown log color preset for components: %v", rejected)
	}
	logger.Info("[ok] Configuration loaded")

	logger.Infof("[step] Initializing %s store", cfg.DBDriver)
	var store pgsql.Store
	var connector *pgsql.Connector
	if cfg.DBDriver == config.DriverMemory {
		logger.Warn("[config] memory driver selected, state is lost on exit")
		store = memrepo.New()
	} else {
		connector = pgsql.NewConnector(cfg.DBDriver, cfg.DBURL)
		startCtx, startCancel := context.WithTimeout(context.Background(), startupTimeout)
		if err := connector.Connect(startCtx); err != nil {
			logger.Fatalf("Failed to connect database: %v", err)
		}
		if err := pgsql.Migrate(startCtx, connector); err != nil {
			logger.Fatalf("Failed to migrate schema: %v", err)
		}
		startCancel()
		store = pgsql.NewSQLStore(connector)
	}
	logger.Info("[ok] Store ready")

	logger.Info("[step] Assembling combat services")
	resolver := combat.NewResolver(combat.Options{
		Variance:  cfg.Combat.DamageVariance,
		MaxRounds: cfg.Combat.MaxRounds,
	})
	deaths := death.NewService(death.Options{MinimumCredits: cfg.Combat.MinimumCredits})
	policy := authz.NewStaticPolicy(cfg.AdminPlayerIDs)
	services := api.Services{
		Pirates:  pirate.NewService(store, resolver, deaths, pirate.Options{}),
		Salvage:  salvage.NewService(store, salvage.Options{}),
		PvP:      pvp.NewService(store, resolver, deaths, pvp.Options{ChallengeTTL: cfg.Combat.ChallengeTTL}),
		Colonies: colony.NewService(store, resolver, deaths, colony.Options{}),
		Sessions: session.NewService(store, policy),
		Repairs:  repair.NewService(store),
	}
	logger.Infof("[ok] Services ready (variance=%.2f max_rounds=%d challenge_ttl=%s admins=%d)",
		cfg.Combat.DamageVariance, cfg.Combat.MaxRounds, cfg.Combat.ChallengeTTL, len(cfg.AdminPlayerIDs))

	logger.Info("[step] Starting HTTP server")
	mux := http.NewServeMux()
	handler := api.NewHandlerI(services,
		api.NewAuthenticator(cfg.JWTSecret),
		api.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	handler.Register(mux)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("[ok] HTTP listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	logger.Info("[ok] Service bootstrap completed")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("--- Stopping Spacewars combat service ---")
	logger.Info("[step] Shutting down HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown warning: %v", err)
	} else {
		logger.Info("[ok] HTTP server stopped")
	}

	if connector != nil {
		logger.Info("[step] Closing database connector")
		if err := connector.Close(); err != nil {
			logger.Warnf("database close warning: %v", err)
		} else {
			logger.Info("[ok] Database connector closed")
		}
	}
	logger.Info("--- Shutdown complete ---")
}
