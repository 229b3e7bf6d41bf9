package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/fieldtime/scheduler-api/internal/handler"
	"github.com/fieldtime/scheduler-api/internal/repository"
	"github.com/fieldtime/scheduler-api/internal/service"
	"github.com/fieldtime/scheduler-api/pkg/cache"
	"github.com/fieldtime/scheduler-api/pkg/config"
	"github.com/fieldtime/scheduler-api/pkg/database"
	"github.com/fieldtime/scheduler-api/pkg/logger"
	corsmiddleware "github.com/fieldtime/scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fieldtime/scheduler-api/pkg/middleware/requestid"
	"github.com/fieldtime/scheduler-api/pkg/storage"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	var db *sqlx.DB
	var store tablestore.Store
	switch cfg.Store.Backend {
	case "memory":
		store = tablestore.NewMemoryStore()
		sugar.Warnw("using in-memory table store, data will not survive a restart")
	default:
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			sugar.Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close()
		store = tablestore.NewPostgresStore(db)
	}
	store = tablestore.Instrument(store, metrics)

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, role cache disabled", "error", err)
		redisClient = nil
	}
	roleCache := repository.NewCacheRepository(redisClient, logr)

	attempts := cfg.Store.CASAttempts
	users := repository.NewUserRepository(store)
	memberships := repository.NewMembershipRepository(store)
	leagues := repository.NewLeagueRepository(store)
	teams := repository.NewTeamRepository(store)
	fields := repository.NewFieldRepository(store)
	availabilities := repository.NewAvailabilityRepository(store)
	slots := repository.NewSlotRepository(store, attempts)
	requests := repository.NewRequestRepository(store, attempts)
	exportJobs := repository.NewExportJobRepository(store, attempts)

	identitySvc := service.NewIdentityService(users, memberships, roleCache, cfg.Identity.RoleCacheTTL, logr)
	slotSvc := service.NewSlotService(slots, logr)
	requestSvc := service.NewRequestService(requests, slots, logr)
	availabilitySvc := service.NewAvailabilityService(leagues, availabilities, slots, logr)
	scheduleSvc := service.NewScheduleService(slots, teams, metrics, logr)
	lookupSvc := service.NewLookupService(teams, fields, logr)

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		sugar.Fatalw("failed to init export storage", "error", err, "dir", cfg.Exports.StorageDir)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportJobService(exportJobs, slots, teams, fields, files, signer, service.ExportJobConfig{
		Workers:   cfg.Exports.WorkerConcurrency,
		Retries:   cfg.Exports.WorkerRetries,
		Retention: cfg.Exports.SignedURLTTL,
		Metrics:   metrics,
	}, logr)
	if cfg.Exports.Enabled {
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.Register(r, handler.Deps{
		Identity:     identitySvc,
		Metrics:      metrics,
		Slots:        slotSvc,
		Requests:     requestSvc,
		Availability: availabilitySvc,
		Schedule:     scheduleSvc,
		Exports:      exportSvc,
		Lookup:       lookupSvc,
		Ready: func() error {
			if db == nil {
				return nil
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
