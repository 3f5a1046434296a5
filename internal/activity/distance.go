package activity

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Geocoder places an address.
type Geocoder interface {
	Geocode(ctx context.Context, addr Address) (Coordinates, error)
}

// StaticGeocoder resolves addresses from inline coordinates, "lat,lng"
// literals, and a fixed table of known places.
type StaticGeocoder struct {
	places map[string]Coordinates
}

// NewStaticGeocoder returns a geocoder knowing places. Keys are matched
// case-insensitively against the address line and against Address.String.
func NewStaticGeocoder(places map[string]Coordinates) *StaticGeocoder {
	g := &StaticGeocoder{places: make(map[string]Coordinates, len(places))}
	for k, v := range places {
		g.places[placeKey(k)] = v
	}
	return g
}

// Geocode implements Geocoder.
func (g *StaticGeocoder) Geocode(_ context.Context, addr Address) (Coordinates, error) {
	if addr.Coords != nil {
		return *addr.Coords, nil
	}
	if c, ok := parseLatLng(addr.Address); ok {
		return c, nil
	}
	if g != nil {
		for _, k := range []string{addr.Address, addr.String()} {
			if c, ok := g.places[placeKey(k)]; ok && k != "" {
				return c, nil
			}
		}
	}
	return Coordinates{}, fmt.Errorf("%w: %q", ErrAddressNotFound, addr.String())
}

func placeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func parseLatLng(s string) (Coordinates, bool) {
	latS, lngS, ok := strings.Cut(s, ",")
	if !ok {
		return Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngS), 64)
	if err != nil || lng < -180 || lng > 180 {
		return Coordinates{}, false
	}
	return Coordinates{Lat: lat, Lng: lng}, true
}

// ModeFromFactor infers a transport mode from a factor's levels.
func ModeFromFactor(levels [4]string) Mode {
	for _, l := range levels {
		ll := strings.ToLower(l)
		switch {
		case ll == "":
			continue
		case strings.Contains(ll, "air"), strings.Contains(ll, "flight"):
			return ModeAir
		case strings.Contains(ll, "ship"), strings.Contains(ll, "sea"):
			return ModeSea
		case strings.Contains(ll, "rail"):
			return ModeRail
		case strings.Contains(ll, "truck"):
			return ModeGround
		}
	}
	return ModeGround
}
