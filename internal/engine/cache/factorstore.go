package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/logging"
)

// Observer counts cache hits and misses.
type Observer interface {
	ObserveCache(hit bool)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithObserver reports every lookup to o.
func WithObserver(o Observer) StoreOption {
	return func(s *Store) {
		s.observer = o
	}
}

// Store serves reference data reads from a Cache, loading misses from the
// wrapped store. Absent results are cached too; errors are not. A failing
// cache degrades to direct reads.
type Store struct {
	inner    factors.ReferenceStore
	cache    Cache
	observer Observer
	group    singleflight.Group
}

var _ factors.ReferenceStore = (*Store)(nil)

// NewStore wraps inner with c.
func NewStore(inner factors.ReferenceStore, c Cache, opts ...StoreOption) *Store {
	s := &Store{inner: inner, cache: c}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindFactorsByDivisionYear implements factors.FactorStore.
func (s *Store) FindFactorsByDivisionYear(
	ctx context.Context, divisionID, divisionType string, year int,
) ([]factors.EmissionsFactor, error) {
	key := fmt.Sprintf("division:%s|%s|%d", divisionID, strings.ToUpper(divisionType), year)
	return cached(ctx, s, key, func(ctx context.Context) ([]factors.EmissionsFactor, error) {
		return s.inner.FindFactorsByDivisionYear(ctx, divisionID, divisionType, year)
	})
}

// FindFactorsByScope implements factors.FactorStore.
func (s *Store) FindFactorsByScope(ctx context.Context, q factors.ScopeQuery) ([]factors.EmissionsFactor, error) {
	return cached(ctx, s, scopeKey(q), func(ctx context.Context) ([]factors.EmissionsFactor, error) {
		return s.inner.FindFactorsByScope(ctx, q)
	})
}

// GetFactor implements factors.FactorStore.
func (s *Store) GetFactor(ctx context.Context, uuid string) (*factors.EmissionsFactor, error) {
	return cached(ctx, s, "factor:"+uuid, func(ctx context.Context) (*factors.EmissionsFactor, error) {
		return s.inner.GetFactor(ctx, uuid)
	})
}

// GetUtilityLookupItem implements factors.UtilityLookupStore.
func (s *Store) GetUtilityLookupItem(ctx context.Context, uuid string) (*factors.UtilityLookupItem, error) {
	return cached(ctx, s, "utility:"+uuid, func(ctx context.Context) (*factors.UtilityLookupItem, error) {
		return s.inner.GetUtilityLookupItem(ctx, uuid)
	})
}

// GetActivityFactorLookup implements factors.ActivityLookupStore.
func (s *Store) GetActivityFactorLookup(ctx context.Context, kind, class string) (*factors.ActivityFactorLookup, error) {
	key := "lookup:" + strings.ToLower(kind) + "/" + strings.ToLower(class)
	return cached(ctx, s, key, func(ctx context.Context) (*factors.ActivityFactorLookup, error) {
		return s.inner.GetActivityFactorLookup(ctx, kind, class)
	})
}

func (s *Store) observe(hit bool) {
	if s.observer != nil {
		s.observer.ObserveCache(hit)
	}
}

// scopeKey normalizes the classification so queries differing only in case
// or surrounding space share an entry.
func scopeKey(q factors.ScopeQuery) string {
	for _, f := range []*string{&q.Scope, &q.Level1, &q.Level2, &q.Level3, &q.Level4, &q.Text, &q.ActivityUOM} {
		*f = strings.ToUpper(strings.TrimSpace(*f))
	}
	data, _ := json.Marshal(q)
	return "scope:" + string(data)
}

func cached[T any](ctx context.Context, s *Store, key string, load func(context.Context) (T, error)) (T, error) {
	log := logging.FromContext(ctx)

	data, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jerr := json.Unmarshal(data, &v); jerr == nil {
			s.observe(true)
			return v, nil
		}
	case !errors.Is(err, ErrCacheMiss):
		log.Warn().
			Ctx(ctx).
			Str("component", "cache").
			Str("operation", "get").
			Str("key", key).
			Err(err).
			Msg("cache read failed, reading store")
	}
	s.observe(false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		encoded, jerr := json.Marshal(v)
		if jerr != nil {
			return v, nil
		}
		if serr := s.cache.Set(ctx, key, encoded); serr != nil {
			log.Warn().
				Ctx(ctx).
				Str("component", "cache").
				Str("operation", "set").
				Str("key", key).
				Err(serr).
				Msg("cache write failed")
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
