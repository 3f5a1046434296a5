package activity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/activity"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/store/memory"
)

const pge = "USA_2019_Pacific_Gas_&_Electric_Co."

func ptr(v float64) *float64 { return &v }

func defaultStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.NewDefault()
	require.NoError(t, err)
	return s
}

func defaultStoreB(b *testing.B) *memory.Store {
	b.Helper()
	s, err := memory.NewDefault()
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func newProcessor(store factors.ReferenceStore, opts ...activity.Option) *activity.Processor {
	return activity.NewProcessor(activity.Dependencies{
		Factors:   factors.NewResolver(store),
		Utilities: store,
		Lookups:   store,
		Geocoder: activity.NewStaticGeocoder(map[string]activity.Coordinates{
			"Oakland, CA":     {Lat: 37.8044, Lng: -122.2712},
			"Los Angeles, CA": {Lat: 34.0522, Lng: -118.2437},
		}),
	}, opts...)
}

func electricityActivity(id string) activity.Activity {
	return activity.Activity{
		ID:             id,
		Type:           activity.TypeElectricity,
		FromDate:       "2019-01-31",
		ThruDate:       "2019-03-01",
		Country:        "UNITED STATES",
		Utility:        pge,
		ActivityAmount: ptr(128),
		ActivityUOM:    "kwh",
	}
}

func naturalGasActivity(id string) activity.Activity {
	return activity.Activity{
		ID:             id,
		Type:           activity.TypeNaturalGas,
		FromDate:       "2019-01-31",
		ThruDate:       "2019-03-01",
		ActivityAmount: ptr(100),
		ActivityUOM:    "therm",
	}
}

func shipmentActivity(id string, mode activity.Mode) activity.Activity {
	return activity.Activity{
		ID:        id,
		Type:      activity.TypeShipment,
		ThruDate:  "2021-06-01",
		Mode:      mode,
		Weight:    ptr(1000),
		WeightUOM: "kg",
		From:      activity.Address{Coords: &activity.Coordinates{Lat: 0, Lng: 0}},
		To:        activity.Address{Coords: &activity.Coordinates{Lat: 0, Lng: 1}},
	}
}

// failingStore reports every factor read as unavailable.
type failingStore struct {
	*memory.Store
	err error
}

func (f failingStore) FindFactorsByScope(context.Context, factors.ScopeQuery) ([]factors.EmissionsFactor, error) {
	return nil, f.err
}

// blockingStore holds factor reads until release is closed, ignoring ctx.
type blockingStore struct {
	*memory.Store
	release chan struct{}
}

func (b blockingStore) FindFactorsByScope(_ context.Context, q factors.ScopeQuery) ([]factors.EmissionsFactor, error) {
	<-b.release
	return b.Store.FindFactorsByScope(context.Background(), q)
}
