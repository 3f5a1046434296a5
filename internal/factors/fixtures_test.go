package factors_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/rshade/carbonledger/internal/factors"
)

func ptr(v float64) *float64 { return &v }

// fakeStore is an in-test FactorStore that counts queries.
type fakeStore struct {
	mu        sync.Mutex
	factors   []factors.EmissionsFactor
	utilities map[string]factors.UtilityLookupItem
	err       error

	divisionYears []int
	scopeQueries  []factors.ScopeQuery
}

func (s *fakeStore) FindFactorsByDivisionYear(
	_ context.Context, divisionID, divisionType string, year int,
) ([]factors.EmissionsFactor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.divisionYears = append(s.divisionYears, year)
	if s.err != nil {
		return nil, s.err
	}
	var out []factors.EmissionsFactor
	for _, f := range s.factors {
		if f.DivisionID == divisionID && f.DivisionType == divisionType && (year == 0 || f.Year == year) {
			out = append(out, f)
		}
	}
	factors.SortFactors(out)
	return out, nil
}

func (s *fakeStore) FindFactorsByScope(_ context.Context, q factors.ScopeQuery) ([]factors.EmissionsFactor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopeQueries = append(s.scopeQueries, q)
	if s.err != nil {
		return nil, s.err
	}
	var out []factors.EmissionsFactor
	for _, f := range s.factors {
		if q.Matches(f) {
			out = append(out, f)
		}
	}
	factors.SortFactors(out)
	return out, nil
}

func (s *fakeStore) GetFactor(_ context.Context, uuid string) (*factors.EmissionsFactor, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, f := range s.factors {
		if f.UUID == uuid {
			return &f, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetUtilityLookupItem(_ context.Context, uuid string) (*factors.UtilityLookupItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	item, ok := s.utilities[uuid]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func caFactor(year int, co2, netGen float64) factors.EmissionsFactor {
	return factors.EmissionsFactor{
		UUID:                      fmt.Sprintf("egrid-ca-%d", year),
		Type:                      "EMISSIONS_FACTOR",
		Level1:                    "eGRID EMISSIONS FACTORS",
		Level2:                    "USA",
		Level3:                    "STATE: CA",
		Year:                      year,
		Country:                   "USA",
		DivisionType:              factors.DivisionTypeState,
		DivisionID:                "CA",
		ActivityUOM:               "MWH",
		NetGeneration:             ptr(netGen),
		NetGenerationUOM:          "MWH",
		CO2EquivalentEmissions:    ptr(co2),
		CO2EquivalentEmissionsUOM: "tons",
	}
}

func newCAStore() *fakeStore {
	return &fakeStore{
		factors: []factors.EmissionsFactor{
			caFactor(2018, 0.21101443649872265*195212859.582, 195212859.582),
			caFactor(2019, 0.19359146878269065*201747828.474, 201747828.474),
			caFactor(2020, 0.2265591892870195*192954153.405, 192954153.405),
		},
		utilities: map[string]factors.UtilityLookupItem{
			"pge": {
				UUID:          "pge",
				UtilityName:   "Pacific Gas & Electric Co.",
				Country:       "USA",
				StateProvince: "CA",
				Division:      factors.Division{ID: "WECC", Type: "NERC_REGION"},
			},
		},
	}
}

var caLevels = factors.ScopeQuery{
	Level1: "eGRID EMISSIONS FACTORS",
	Level2: "USA",
	Level3: "STATE: CA",
}

func years(fs []factors.EmissionsFactor) []int {
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = f.Year
	}
	return out
}

// countingObserver records outcomes per contract.
type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveFactorLookup(contract, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[contract+"/"+outcome]++
}
