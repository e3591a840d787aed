package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-eca-api/internal/allocation"
	"github.com/noah-isme/sma-eca-api/internal/models"
	"github.com/noah-isme/sma-eca-api/internal/repository"
	"github.com/noah-isme/sma-eca-api/internal/service"
	"github.com/noah-isme/sma-eca-api/pkg/config"
	"github.com/noah-isme/sma-eca-api/pkg/database"
	"github.com/noah-isme/sma-eca-api/pkg/runlock"
)

// AppContext holds the dependencies shared across commands. Config and the database are opened on first use.
type AppContext struct {
	Ctx     context.Context
	Logger  *zap.Logger
	Out     io.Writer
	Verbose bool

	cfg *config.Config
	db  *sqlx.DB
}

// Config loads the environment configuration once.
func (a *AppContext) Config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

// Database connects to PostgreSQL once per invocation.
func (a *AppContext) Database() (*sqlx.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("connecting to postgres", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))
	db, err := database.NewPostgres(a.Ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// Close releases the database connection if one was opened.
func (a *AppContext) Close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

// AllocationService builds a Postgres backed allocation service. Locks and cached results stay in process.
func (a *AppContext) AllocationService() (*service.ECAAllocationService, error) {
	db, err := a.Database()
	if err != nil {
		return nil, err
	}
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	engine := allocation.NewEngine(allocation.NewRandomSource(cfg.ECA.RandomSeed), a.Logger.Named("allocation"), cfg.ECA.IterationFactor)
	return newService(service.NewSQLECAStores(db), engine, a.Logger, service.ECAAllocationConfig{
		DefaultMode:    models.SelectionMode(cfg.ECA.DefaultMode),
		RunLockTTL:     cfg.ECA.RunLockTTL,
		ResultCacheTTL: cfg.ECA.ResultCacheTTL,
	}), nil
}

func newService(stores service.ECAAllocationStores, engine *allocation.Engine, logger *zap.Logger, cfg service.ECAAllocationConfig) *service.ECAAllocationService {
	cache := service.NewCacheService(repository.NewMemoryCacheRepository(), nil, cfg.ResultCacheTTL, logger, true)
	return service.NewECAAllocationService(stores, engine, runlock.NewLocalLocker(), cache, nil, nil, logger.Named("eca"), cfg)
}
