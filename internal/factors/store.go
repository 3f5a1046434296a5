package factors

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// FactorStore is the read contract of an emissions factor repository.
// Implementations return results ordered by year descending, then UUID
// ascending, so that callers taking the first element are deterministic.
type FactorStore interface {
	// FindFactorsByDivisionYear returns factors whose division matches exactly.
	// A zero year matches every year.
	FindFactorsByDivisionYear(ctx context.Context, divisionID, divisionType string, year int) ([]EmissionsFactor, error)

	// FindFactorsByScope returns factors matching the query's classification
	// and year constraint. No fallback is applied by the store.
	FindFactorsByScope(ctx context.Context, q ScopeQuery) ([]EmissionsFactor, error)

	// GetFactor returns the factor with the given UUID, or nil when absent.
	GetFactor(ctx context.Context, uuid string) (*EmissionsFactor, error)
}

// UtilityLookupStore resolves utility identifiers.
type UtilityLookupStore interface {
	// GetUtilityLookupItem returns the utility, or nil when absent.
	GetUtilityLookupItem(ctx context.Context, uuid string) (*UtilityLookupItem, error)
}

// ActivityLookupStore resolves activity classes to factor classifications.
type ActivityLookupStore interface {
	// GetActivityFactorLookup returns the lookup for (kind, class), or nil when absent.
	GetActivityFactorLookup(ctx context.Context, kind, class string) (*ActivityFactorLookup, error)
}

// ReferenceStore is a store serving every reference data kind.
type ReferenceStore interface {
	FactorStore
	UtilityLookupStore
	ActivityLookupStore
}

// ScopeQuery selects factors by scope/level classification.
// Empty string fields do not constrain the match. Year and the
// FromYear/ThruYear range are mutually exclusive; zero means unset.
type ScopeQuery struct {
	Scope       string `json:"scope,omitempty"`
	Level1      string `json:"level_1,omitempty"`
	Level2      string `json:"level_2,omitempty"`
	Level3      string `json:"level_3,omitempty"`
	Level4      string `json:"level_4,omitempty"`
	Text        string `json:"text,omitempty"`
	ActivityUOM string `json:"activity_uom,omitempty"`
	Year        int    `json:"year,omitempty"`
	FromYear    int    `json:"from_year,omitempty"`
	ThruYear    int    `json:"thru_year,omitempty"`
}

// Validate checks the year constraint.
func (q ScopeQuery) Validate() error {
	if q.Year != 0 && (q.FromYear != 0 || q.ThruYear != 0) {
		return fmt.Errorf("%w: year and from/thru range are mutually exclusive", ErrInvalidQuery)
	}
	if (q.FromYear == 0) != (q.ThruYear == 0) {
		return fmt.Errorf("%w: from_year and thru_year must be given together", ErrInvalidQuery)
	}
	if q.FromYear > q.ThruYear {
		return fmt.Errorf("%w: from_year %d is after thru_year %d", ErrInvalidQuery, q.FromYear, q.ThruYear)
	}
	return nil
}

// HasRange reports whether the query carries a from/thru year range.
func (q ScopeQuery) HasRange() bool {
	return q.FromYear != 0 && q.ThruYear != 0
}

// WithoutYears returns a copy of q with every year constraint cleared.
func (q ScopeQuery) WithoutYears() ScopeQuery {
	q.Year, q.FromYear, q.ThruYear = 0, 0, 0
	return q
}

// MatchesClassification reports whether f matches every non-empty
// classification field of q, case-insensitively. Years are ignored.
func (q ScopeQuery) MatchesClassification(f EmissionsFactor) bool {
	pairs := [...][2]string{
		{q.Scope, f.Scope},
		{q.Level1, f.Level1},
		{q.Level2, f.Level2},
		{q.Level3, f.Level3},
		{q.Level4, f.Level4},
		{q.Text, f.Text},
		{q.ActivityUOM, f.ActivityUOM},
	}
	for _, p := range pairs {
		want := strings.TrimSpace(p[0])
		if want != "" && !strings.EqualFold(want, strings.TrimSpace(p[1])) {
			return false
		}
	}
	return true
}

// MatchesYear reports whether f satisfies q's year constraint.
func (q ScopeQuery) MatchesYear(f EmissionsFactor) bool {
	switch {
	case q.Year != 0:
		return f.Year == q.Year
	case q.HasRange():
		return f.Year >= q.FromYear && f.Year <= q.ThruYear
	default:
		return true
	}
}

// Matches combines MatchesClassification and MatchesYear.
func (q ScopeQuery) Matches(f EmissionsFactor) bool {
	return q.MatchesClassification(f) && q.MatchesYear(f)
}

// String renders the non-empty fields for logs and error messages.
func (q ScopeQuery) String() string {
	var b strings.Builder
	add := func(k, v string) {
		if v == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
	}
	add("scope", q.Scope)
	add("level_1", q.Level1)
	add("level_2", q.Level2)
	add("level_3", q.Level3)
	add("level_4", q.Level4)
	add("text", q.Text)
	add("activity_uom", q.ActivityUOM)
	if q.Year != 0 {
		add("year", fmt.Sprint(q.Year))
	}
	if q.HasRange() {
		add("years", fmt.Sprintf("%d-%d", q.FromYear, q.ThruYear))
	}
	return "{" + b.String() + "}"
}

// SortFactors orders factors by year descending, then UUID ascending.
func SortFactors(fs []EmissionsFactor) {
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].Year != fs[j].Year {
			return fs[i].Year > fs[j].Year
		}
		return fs[i].UUID < fs[j].UUID
	})
}
