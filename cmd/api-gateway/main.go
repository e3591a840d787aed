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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-eca-api/api/swagger"
	"github.com/noah-isme/sma-eca-api/internal/allocation"
	"github.com/noah-isme/sma-eca-api/internal/handler"
	"github.com/noah-isme/sma-eca-api/internal/models"
	"github.com/noah-isme/sma-eca-api/internal/repository"
	"github.com/noah-isme/sma-eca-api/internal/service"
	"github.com/noah-isme/sma-eca-api/pkg/cache"
	"github.com/noah-isme/sma-eca-api/pkg/config"
	"github.com/noah-isme/sma-eca-api/pkg/database"
	"github.com/noah-isme/sma-eca-api/pkg/jobs"
	"github.com/noah-isme/sma-eca-api/pkg/logger"
	"github.com/noah-isme/sma-eca-api/pkg/runlock"
)

// @title SMA ECA API
// @version 1.0.0
// @description Extracurricular activity allocation for school administrators
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func serve(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		logr.Info("migrations applied", zap.Strings("files", applied))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	ecaSvc := newAllocationService(cfg, db, redisClient, metrics, logr)

	var queue *jobs.Queue
	if cfg.ECA.AsyncWorkers > 0 {
		queue = jobs.NewQueue("eca-allocation", ecaSvc.HandleJob, jobs.QueueConfig{
			Workers:    cfg.ECA.AsyncWorkers,
			MaxRetries: cfg.ECA.AsyncRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr.Named("jobs"),
		})
		queue.Start(ctx)
		defer queue.Stop()
		ecaSvc.AttachQueue(queue)
	}

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	deps := routerDeps{
		Config:   cfg,
		Logger:   logr,
		Metrics:  metrics,
		Checks:   checks,
		Verifier: service.NewTokenVerifier(cfg.JWT),
		Audit:    repository.NewAuditRepository(db),
	}
	if cfg.ECA.Enabled {
		deps.ECA = handler.NewECAAllocationHandler(ecaSvc)
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("eca", cfg.ECA.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newAllocationService picks Redis backed locking and caching when Redis is configured and in-process fallbacks otherwise.
func newAllocationService(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService, logr *zap.Logger) *service.ECAAllocationService {
	var (
		locker    service.RunLocker
		cacheRepo service.CacheRepository
	)
	if redisClient != nil {
		locker = runlock.NewRedisLocker(redisClient)
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	} else {
		locker = runlock.NewLocalLocker()
		cacheRepo = repository.NewMemoryCacheRepository()
	}

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.ECA.ResultCacheTTL, logr, true)
	engine := allocation.NewEngine(allocation.NewRandomSource(cfg.ECA.RandomSeed), logr.Named("allocation"), cfg.ECA.IterationFactor)

	return service.NewECAAllocationService(service.NewSQLECAStores(db), engine, locker, cacheSvc, metrics, nil, logr.Named("eca"), service.ECAAllocationConfig{
		DefaultMode:    models.SelectionMode(cfg.ECA.DefaultMode),
		RunLockTTL:     cfg.ECA.RunLockTTL,
		ResultCacheTTL: cfg.ECA.ResultCacheTTL,
	})
}
