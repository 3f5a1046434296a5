package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rshade/carbonledger/internal/activity"
	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/engine/cache"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/issuance"
	"github.com/rshade/carbonledger/internal/metrics"
	"github.com/rshade/carbonledger/internal/store/memory"
	"github.com/rshade/carbonledger/internal/store/postgres"
)

// app holds the collaborators a command works with. It is built from the
// effective configuration and must be closed after use.
type app struct {
	cfg      *config.Config
	store    factors.ReferenceStore
	resolver *factors.Resolver
	metrics  *metrics.Recorder

	memory   *memory.Store
	postgres *postgres.Store

	closers []func() error
}

// openApp builds the store stack described by cfg: the memory or postgres
// store, optionally wrapped in the factor cache, plus a resolver that
// reports lookups to the metrics recorder.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: metrics.NewRecorder(metrics.WithNamespace(cfg.Metrics.Namespace)),
	}

	base, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	a.store = base
	if cfg.Cache.Enabled {
		c, cacheErr := a.openCache(ctx)
		if cacheErr != nil {
			_ = a.close()
			return nil, cacheErr
		}
		a.store = cache.NewStore(base, c, cache.WithObserver(a.metrics))
	}

	a.resolver = factors.NewResolver(a.store, factors.WithObserver(a.metrics))
	logger.Debug().Ctx(ctx).
		Str("store", cfg.Store.Driver).
		Bool("cache", cfg.Cache.Enabled).
		Msg("reference store ready")
	return a, nil
}

func (a *app) openStore(ctx context.Context) (factors.ReferenceStore, error) {
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		pgCfg := postgres.DefaultConfig(a.cfg.Store.DSN)
		if a.cfg.Store.MaxOpenConns > 0 {
			pgCfg.MaxOpenConns = a.cfg.Store.MaxOpenConns
		}
		if a.cfg.Store.MaxIdleConns > 0 {
			pgCfg.MaxIdleConns = a.cfg.Store.MaxIdleConns
		}
		if a.cfg.Store.ConnMaxLifetimeSeconds > 0 {
			pgCfg.ConnMaxLifetime = time.Duration(a.cfg.Store.ConnMaxLifetimeSeconds) * time.Second
		}
		db, err := postgres.Open(ctx, pgCfg, a.metrics)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.postgres = postgres.NewStore(db)
		return a.postgres, nil
	default:
		store, err := openMemoryStore(a.cfg.Store.Seed)
		if err != nil {
			return nil, err
		}
		a.memory = store
		return store, nil
	}
}

func openMemoryStore(seed string) (*memory.Store, error) {
	if seed == "" {
		return memory.NewDefault()
	}
	file, err := factors.LoadSeedFile(seed)
	if err != nil {
		return nil, err
	}
	store, err := memory.New(file.Records()...)
	if err != nil {
		return nil, fmt.Errorf("loading seed %s: %w", seed, err)
	}
	return store, nil
}

func (a *app) openCache(ctx context.Context) (cache.Cache, error) {
	ttl := time.Duration(a.cfg.Cache.TTLSeconds) * time.Second
	switch a.cfg.Cache.Backend {
	case config.CacheFile:
		dir, err := a.cfg.CacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileStore(dir, ttl)
	case config.CacheRedis:
		client, err := cache.DialRedis(ctx, a.cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return cache.NewRedisCache(client, ttl)
	default:
		var opts []cache.MemoryOption
		if a.cfg.Cache.MaxEntries > 0 {
			opts = append(opts, cache.WithMaxEntries(a.cfg.Cache.MaxEntries))
		}
		return cache.NewMemoryCache(ttl, opts...)
	}
}

// processor builds an activity processor over the app's stores.
func (a *app) processor() (*activity.Processor, error) {
	strategy, err := activity.ParseElectricityStrategy(a.cfg.Processing.ElectricityStrategy)
	if err != nil {
		return nil, err
	}
	places := make(map[string]activity.Coordinates, len(a.cfg.Geocoding.Places))
	for name, p := range a.cfg.Geocoding.Places {
		places[name] = activity.Coordinates{Lat: p.Lat, Lng: p.Lng}
	}
	return activity.NewProcessor(
		activity.Dependencies{
			Factors:   a.resolver,
			Utilities: a.store,
			Lookups:   a.store,
			Geocoder:  activity.NewStaticGeocoder(places),
			Metrics:   a.metrics,
		},
		activity.WithConcurrency(a.cfg.Processing.Concurrency),
		activity.WithTimeout(time.Duration(a.cfg.Processing.TimeoutSeconds)*time.Second),
		activity.WithElectricityStrategy(strategy),
	), nil
}

// issuer builds the configured token issuer.
func (a *app) issuer() (issuance.TokenIssuer, error) {
	switch a.cfg.Issuance.Issuer {
	case config.IssuerNATS:
		timeout := time.Duration(a.cfg.Issuance.TimeoutSeconds) * time.Second
		n, err := issuance.DialNATS(a.cfg.Issuance.NATSURL, a.cfg.Issuance.Subject, timeout)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			n.Close()
			return nil
		})
		return n, nil
	default:
		return issuance.NewQueueIssuer(a.cfg.Issuance.NodeID), nil
	}
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// withApp opens the app from the global config, runs fn and closes it.
func withApp(ctx context.Context, fn func(*app) error) (err error) {
	a, err := openApp(ctx, config.GetGlobalConfig())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}

// healthCheck probes the backing store.
func (a *app) healthCheck(ctx context.Context) error {
	if a.postgres != nil {
		return a.postgres.DB().HealthCheck(ctx)
	}
	return nil
}
