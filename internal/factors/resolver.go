package factors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rshade/carbonledger/internal/logging"
)

// MaxYearRetries bounds how many preceding years FactorsByDivision tries
// after the requested year returns nothing.
const MaxYearRetries = 5

// Lookup contract and outcome labels passed to an Observer.
const (
	ContractDivision = "division"
	ContractScope    = "scope"
	ContractUUID     = "uuid"

	OutcomeHit      = "hit"
	OutcomeFallback = "fallback"
	OutcomeMiss     = "miss"
	OutcomeError    = "error"
)

// Observer receives one call per resolution.
type Observer interface {
	ObserveFactorLookup(contract, outcome string)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithObserver reports resolution outcomes to o.
func WithObserver(o Observer) ResolverOption {
	return func(r *Resolver) {
		r.observer = o
	}
}

// Resolver selects emissions factors from a FactorStore.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	store    FactorStore
	observer Observer
}

// NewResolver returns a Resolver reading from store.
func NewResolver(store FactorStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the underlying factor store.
func (r *Resolver) Store() FactorStore {
	return r.store
}

func (r *Resolver) observe(contract, outcome string) {
	if r.observer != nil {
		r.observer.ObserveFactorLookup(contract, outcome)
	}
}

func (r *Resolver) observeErr(contract string, err error) {
	if errors.Is(err, ErrNoFactorFound) {
		r.observe(contract, OutcomeMiss)
		return
	}
	r.observe(contract, OutcomeError)
}

// FactorsByDivision returns the factors for a division and year. A zero
// year is unspecified and returns every year. When the requested year has
// no factors, the years year-1 down to year-MaxYearRetries are tried in
// turn and the first non-empty result is returned.
func (r *Resolver) FactorsByDivision(ctx context.Context, divisionID, divisionType string, year int) ([]EmissionsFactor, error) {
	log := logging.FromContext(ctx)
	key := fmt.Sprintf("%s/%s", divisionType, divisionID)

	attempts := 1
	if year != 0 {
		attempts += MaxYearRetries
	}
	for i := range attempts {
		y := year
		if year != 0 {
			y = year - i
		}
		found, err := r.store.FindFactorsByDivisionYear(ctx, divisionID, divisionType, y)
		if err != nil {
			r.observe(ContractDivision, OutcomeError)
			return nil, fmt.Errorf("finding factors for %s year %d: %w", key, y, err)
		}
		if len(found) == 0 {
			continue
		}
		outcome := OutcomeHit
		if i > 0 {
			outcome = OutcomeFallback
			log.Debug().
				Ctx(ctx).
				Str("component", "factors").
				Str("operation", "factors_by_division").
				Str("division", key).
				Int("requested_year", year).
				Int("resolved_year", y).
				Msg("using factors from earlier year")
		}
		r.observe(ContractDivision, outcome)
		return found, nil
	}

	r.observe(ContractDivision, OutcomeMiss)
	if year == 0 {
		return nil, fmt.Errorf("%w: division %s", ErrNoFactorFound, key)
	}
	return nil, fmt.Errorf("%w: division %s for years %d-%d", ErrNoFactorFound, key, year-MaxYearRetries, year)
}

// FactorByDivision returns the first factor FactorsByDivision resolves.
func (r *Resolver) FactorByDivision(ctx context.Context, divisionID, divisionType string, year int) (EmissionsFactor, error) {
	found, err := r.FactorsByDivision(ctx, divisionID, divisionType, year)
	if err != nil {
		return EmissionsFactor{}, err
	}
	return found[0], nil
}

// Factors returns the factors matching q's classification.
//
// With a year or a range, factors inside the constraint are returned in
// descending year order. When nothing falls inside it, the single factor
// from the nearest year strictly before the bound (the year, or FromYear
// for a range) is returned; failing that, the factor of the latest
// available year. Without a year constraint all matches are returned.
// ErrNoFactorFound is returned only when the classification matches nothing.
func (r *Resolver) Factors(ctx context.Context, q ScopeQuery) ([]EmissionsFactor, error) {
	if err := q.Validate(); err != nil {
		r.observe(ContractScope, OutcomeError)
		return nil, err
	}

	found, err := r.store.FindFactorsByScope(ctx, q)
	if err != nil {
		r.observe(ContractScope, OutcomeError)
		return nil, fmt.Errorf("finding factors for %s: %w", q, err)
	}
	if len(found) > 0 {
		r.observe(ContractScope, OutcomeHit)
		return found, nil
	}

	bound := q.Year
	if q.HasRange() {
		bound = q.FromYear
	}
	if bound == 0 {
		r.observe(ContractScope, OutcomeMiss)
		return nil, fmt.Errorf("%w: %s", ErrNoFactorFound, q)
	}

	all, err := r.store.FindFactorsByScope(ctx, q.WithoutYears())
	if err != nil {
		r.observe(ContractScope, OutcomeError)
		return nil, fmt.Errorf("finding fallback factors for %s: %w", q, err)
	}
	if len(all) == 0 {
		r.observe(ContractScope, OutcomeMiss)
		return nil, fmt.Errorf("%w: %s", ErrNoFactorFound, q)
	}

	picked := all[0]
	for _, f := range all {
		if f.Year < bound {
			picked = f
			break
		}
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "factors").
		Str("operation", "factors").
		Str("query", q.String()).
		Int("bound_year", bound).
		Int("resolved_year", picked.Year).
		Msg("no factor inside requested years, using fallback")
	r.observe(ContractScope, OutcomeFallback)
	return []EmissionsFactor{picked}, nil
}

// Factor returns the first factor Factors resolves.
func (r *Resolver) Factor(ctx context.Context, q ScopeQuery) (EmissionsFactor, error) {
	found, err := r.Factors(ctx, q)
	if err != nil {
		return EmissionsFactor{}, err
	}
	return found[0], nil
}

// FactorByUUID returns the factor with the given UUID.
func (r *Resolver) FactorByUUID(ctx context.Context, uuid string) (EmissionsFactor, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		r.observe(ContractUUID, OutcomeError)
		return EmissionsFactor{}, fmt.Errorf("%w: empty factor uuid", ErrInvalidQuery)
	}
	f, err := r.store.GetFactor(ctx, uuid)
	if err != nil {
		r.observeErr(ContractUUID, err)
		return EmissionsFactor{}, fmt.Errorf("getting factor %q: %w", uuid, err)
	}
	if f == nil {
		r.observe(ContractUUID, OutcomeMiss)
		return EmissionsFactor{}, fmt.Errorf("%w: uuid %q", ErrNoFactorFound, uuid)
	}
	r.observe(ContractUUID, OutcomeHit)
	return *f, nil
}
