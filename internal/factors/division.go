package factors

import (
	"context"
	"fmt"
	"strings"
)

// Division types produced by ResolveDivision.
const (
	DivisionTypeState      = "STATE"
	DivisionTypeNERCRegion = "NERC_REGION"
	DivisionTypeCountry    = "Country"

	// DefaultDivisionID is used when a utility carries no usable division.
	DefaultDivisionID = "USA"
)

// ResolveDivision picks the division whose electricity factors apply to a
// utility. The first matching rule wins:
//  1. a non-empty state/province selects that STATE
//  2. a NERC_REGION division (case-insensitive) selects that region
//  3. a country division other than USA selects that Country
//  4. otherwise the USA Country division
func ResolveDivision(item UtilityLookupItem) Division {
	if state := strings.TrimSpace(item.StateProvince); state != "" {
		return Division{ID: state, Type: DivisionTypeState}
	}

	divType := strings.TrimSpace(item.Division.Type)
	divID := strings.TrimSpace(item.Division.ID)
	switch {
	case strings.EqualFold(divType, "nerc_region"):
		return Division{ID: divID, Type: DivisionTypeNERCRegion}
	case strings.EqualFold(divType, "country") && divID != "" && !strings.EqualFold(divID, DefaultDivisionID):
		return Division{ID: divID, Type: DivisionTypeCountry}
	default:
		return Division{ID: DefaultDivisionID, Type: DivisionTypeCountry}
	}
}

// LookupDivision fetches a utility and resolves its division.
func LookupDivision(ctx context.Context, store UtilityLookupStore, uuid string) (Division, *UtilityLookupItem, error) {
	item, err := store.GetUtilityLookupItem(ctx, uuid)
	if err != nil {
		return Division{}, nil, fmt.Errorf("looking up utility %q: %w", uuid, err)
	}
	if item == nil {
		return Division{}, nil, fmt.Errorf("%w: %q", ErrUtilityNotFound, uuid)
	}
	return ResolveDivision(*item), item, nil
}
