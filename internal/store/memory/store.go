// Package memory is an in-process reference data store backing the
// factors contracts. It is used by the CLI with a seed file and by tests.
package memory

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rshade/carbonledger/internal/factors"
)

//nolint:gochecknoglobals // Embedded dataset.
//go:embed default_seed.yaml
var defaultSeed []byte

// DefaultSeed returns the built-in reference dataset.
func DefaultSeed() (factors.SeedFile, error) {
	return factors.DecodeSeed(bytes.NewReader(defaultSeed), "yaml")
}

// Stats counts stored records per kind.
type Stats struct {
	EmissionsFactors      int `json:"emissions_factors"`
	Utilities             int `json:"utilities"`
	ActivityFactorLookups int `json:"activity_factor_lookups"`
}

// Store holds reference data in memory. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	factors   map[string]factors.EmissionsFactor
	natural   map[string]string
	utilities map[string]factors.UtilityLookupItem
	lookups   map[string]factors.ActivityFactorLookup
}

var _ factors.ReferenceStore = (*Store)(nil)

// New returns a store holding records.
func New(records ...factors.Record) (*Store, error) {
	s := &Store{
		factors:   map[string]factors.EmissionsFactor{},
		natural:   map[string]string{},
		utilities: map[string]factors.UtilityLookupItem{},
		lookups:   map[string]factors.ActivityFactorLookup{},
	}
	if err := s.Put(records...); err != nil {
		return nil, err
	}
	return s, nil
}

// NewDefault returns a store holding the built-in dataset.
func NewDefault() (*Store, error) {
	seed, err := DefaultSeed()
	if err != nil {
		return nil, err
	}
	return New(seed.Records()...)
}

// Put upserts records. Emissions factors are keyed by natural key: a factor
// with the same classification and year replaces the stored one even when
// its UUID differs. Nothing is stored if any record is invalid.
func (s *Store) Put(records ...factors.Record) error {
	for i, r := range records {
		if err := factors.ValidateRecord(r); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		switch v := r.(type) {
		case factors.EmissionsFactor:
			key := v.NaturalKey()
			if old, ok := s.natural[key]; ok && old != v.UUID {
				delete(s.factors, old)
			}
			if prev, ok := s.factors[v.UUID]; ok {
				delete(s.natural, prev.NaturalKey())
			}
			s.factors[v.UUID] = v
			s.natural[key] = v.UUID
		case factors.UtilityLookupItem:
			s.utilities[v.UUID] = v
		case factors.ActivityFactorLookup:
			s.lookups[v.Key()] = v
		}
	}
	return nil
}

// Stats returns record counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		EmissionsFactors:      len(s.factors),
		Utilities:             len(s.utilities),
		ActivityFactorLookups: len(s.lookups),
	}
}

// FindFactorsByDivisionYear implements factors.FactorStore.
func (s *Store) FindFactorsByDivisionYear(
	ctx context.Context, divisionID, divisionType string, year int,
) ([]factors.EmissionsFactor, error) {
	return s.collect(ctx, func(f factors.EmissionsFactor) bool {
		return f.DivisionID == divisionID && strings.EqualFold(f.DivisionType, divisionType) &&
			(year == 0 || f.Year == year)
	})
}

// FindFactorsByScope implements factors.FactorStore.
func (s *Store) FindFactorsByScope(ctx context.Context, q factors.ScopeQuery) ([]factors.EmissionsFactor, error) {
	return s.collect(ctx, q.Matches)
}

func (s *Store) collect(ctx context.Context, match func(factors.EmissionsFactor) bool) ([]factors.EmissionsFactor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []factors.EmissionsFactor
	for _, f := range s.factors {
		if match(f) {
			out = append(out, f)
		}
	}
	s.mu.RUnlock()
	factors.SortFactors(out)
	return out, nil
}

// GetFactor implements factors.FactorStore.
func (s *Store) GetFactor(ctx context.Context, uuid string) (*factors.EmissionsFactor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.factors[uuid]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// GetUtilityLookupItem implements factors.UtilityLookupStore.
func (s *Store) GetUtilityLookupItem(ctx context.Context, uuid string) (*factors.UtilityLookupItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.utilities[uuid]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// GetActivityFactorLookup implements factors.ActivityLookupStore.
func (s *Store) GetActivityFactorLookup(ctx context.Context, kind, class string) (*factors.ActivityFactorLookup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lookups[factors.ActivityFactorLookup{Type: kind, Class: class}.Key()]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// Utilities returns every utility sorted by name.
func (s *Store) Utilities() []factors.UtilityLookupItem {
	s.mu.RLock()
	out := make([]factors.UtilityLookupItem, 0, len(s.utilities))
	for _, u := range s.utilities {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UtilityName < out[j].UtilityName })
	return out
}
