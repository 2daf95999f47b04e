package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/api"
	"github.com/sells-group/dimfreight/internal/carton"
	"github.com/sells-group/dimfreight/internal/dimensions"
	"github.com/sells-group/dimfreight/internal/freight"
	"github.com/sells-group/dimfreight/internal/learner"
	"github.com/sells-group/dimfreight/internal/reconcile"
	"github.com/sells-group/dimfreight/internal/store"
	"github.com/sells-group/dimfreight/pkg/anthropic"
)

// engine bundles the store with every component built on it.
type engine struct {
	Store store.Store
	api.Deps
}

// Close releases the store.
func (e *engine) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "dimfreight.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEngine validates the config for mode, opens the store and wires the
// components. Callers must Close the result.
func initEngine(ctx context.Context, mode string) (*engine, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	s, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	// Local backends carry their schema with them; postgres is migrated
	// explicitly with the migrate command.
	if cfg.Store.Driver != "postgres" {
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	deps, err := buildDeps(s)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &engine{Store: s, Deps: deps}, nil
}

// buildDeps constructs the engine components over s from cfg.
func buildDeps(s store.Store) (api.Deps, error) {
	fe, ce, err := buildPricing()
	if err != nil {
		return api.Deps{}, err
	}
	return api.Deps{
		Dimensions: dimensions.New(s),
		Reconciler: reconcile.New(s),
		Freight:    fe,
		Carton:     ce,
		Learner:    learner.New(s),
	}, nil
}

// buildPricing constructs the store-free components: the freight engine and
// the carton estimator.
func buildPricing() (*freight.Engine, *carton.Estimator, error) {
	tuning := cfg.Tuning()
	if cfg.Carton.RulesPath != "" {
		t, err := carton.ApplyRules(tuning, cfg.Carton.RulesPath)
		if err != nil {
			return nil, nil, err
		}
		tuning = t
	}

	var classifier carton.Classifier
	if cfg.Carton.AIClassifier {
		if cfg.Anthropic.Key == "" {
			return nil, nil, eris.New("anthropic key is required for the AI classifier (DIMFREIGHT_ANTHROPIC_KEY)")
		}
		client := anthropic.NewClient(cfg.Anthropic.Key)
		classifier = carton.NewAIClassifier(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens,
			carton.WithRateLimit(cfg.Anthropic.RatePerSec, cfg.Anthropic.Burst))
		zap.L().Info("carton: using AI vendor-tier classifier", zap.String("model", cfg.Anthropic.Model))
	}

	return freight.New(tuning), carton.NewEstimator(tuning, classifier), nil
}
