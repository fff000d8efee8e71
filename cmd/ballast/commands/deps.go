package commands

import (
	"context"
	"fmt"

	"github.com/ogaspar/ballast/internal/api"
	"github.com/ogaspar/ballast/internal/engine"
	"github.com/ogaspar/ballast/internal/pipeline"
	"github.com/ogaspar/ballast/internal/planner"
	"github.com/ogaspar/ballast/internal/policy"
	"github.com/ogaspar/ballast/internal/pricing"
	"github.com/ogaspar/ballast/internal/providers"
	"github.com/ogaspar/ballast/internal/signals"
	"github.com/ogaspar/ballast/internal/storage"
	"github.com/ogaspar/ballast/internal/validator"
	"github.com/ogaspar/ballast/pkg/config"
	"github.com/ogaspar/ballast/pkg/database"
	"github.com/ogaspar/ballast/pkg/logger"
	"github.com/ogaspar/ballast/pkg/redis"
)

// app is the dependency graph shared by all commands. Construct it once per
// invocation with initApp and release it with cleanup.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	store  storage.Store
	runner *pipeline.Runner

	db          *database.DB
	redisClient *redis.Client
}

// initApp builds the full dependency graph: config, logger, store, policy,
// providers, agents, and the pipeline runner.
func initApp(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if policyPath != "" {
		cfg.PolicyPath = policyPath
	}

	log := logger.New(cfg)

	a := &app{cfg: cfg, logger: log}
	cleanup := func() {
		if a.redisClient != nil {
			a.redisClient.Close()
		}
		if a.db != nil {
			a.db.Close()
		}
	}

	a.store, err = newStore(ctx, a)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	pol, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if hash, err := policy.Hash(pol); err == nil {
		log.WithField("policy_hash", hash).Debug("strategy policy loaded")
	}

	a.redisClient, err = redis.New(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	cache := redis.NewCache(a.redisClient, "ballast")

	coingecko := providers.NewCoinGecko(cfg, cache, log)
	yahoo := providers.NewYahoo(cfg, cache, log)
	fred := providers.NewFRED(cfg, cache, log)
	alphavantage := providers.NewAlphaVantage(cfg, cache, log)

	agents := []signals.Agent{
		signals.NewEquitiesAgent(yahoo, alphavantage, log),
		signals.NewCryptoAgent(coingecko, log),
		signals.NewFixedIncomeAgent(yahoo, fred, log),
		signals.NewREITsAgent(yahoo, log),
	}

	oracle := pricing.NewProviderOracle(coingecko, yahoo, log)

	a.runner = pipeline.New(
		a.store,
		agents,
		planner.New(pol, log),
		validator.New(pol),
		engine.New(oracle, log),
		log,
	)

	return a, cleanup, nil
}

// newStore picks the storage backend from config.
func newStore(ctx context.Context, a *app) (storage.Store, error) {
	switch a.cfg.StoreBackend {
	case "postgres":
		db, err := database.New(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.db = db
		store, err := storage.NewPGStore(ctx, db.Pool)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return storage.NewFileStore(a.cfg.DataDir)
	}
}

// newStatusServer assembles the read-only API server.
func (a *app) newStatusServer() *api.Server {
	handler := api.NewStatusHandler(a.store, a.logger)
	router := api.NewRouter(handler, a.logger)
	return api.New(a.cfg, a.logger, router)
}
