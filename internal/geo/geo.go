// Package geo ranks stores by great-circle distance from a reference point.
//
// Everything here is pure: the same inputs always yield the same output and
// no input slice is modified.
package geo

import (
	"fmt"
	"math"
	"net/url"
	"sort"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
)

// EarthRadiusKm is the mean Earth radius of the spherical approximation.
const EarthRadiusKm = 6371.0

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng)
}

// Valid reports whether c is within latitude/longitude range.
func (c Coordinate) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) &&
		c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// StoreCoordinate returns the position of s.
func StoreCoordinate(s models.Store) Coordinate {
	return Coordinate{Lat: s.Latitude, Lng: s.Longitude}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// before orders coordinates so Distance can evaluate the formula the same
// way regardless of argument order.
func before(a, b Coordinate) bool {
	if a.Lat != b.Lat {
		return a.Lat < b.Lat
	}
	return a.Lng < b.Lng
}

// Distance returns the haversine distance between a and b in kilometers.
// Distance(a, b) == Distance(b, a) holds exactly and Distance(a, a) is 0.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	if before(b, a) {
		a, b = b, a
	}

	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Ranked is a store together with its distance from the ranking origin.
// HasDistance is false when the ranking had no origin.
type Ranked struct {
	Store       models.Store
	DistanceKm  float64
	HasDistance bool
}

// Rank orders stores ascending by distance from origin. Ties keep their
// input order. A nil origin returns the stores in input order without
// distances.
func Rank(stores []models.Store, origin *Coordinate) []Ranked {
	out := make([]Ranked, len(stores))
	for i, s := range stores {
		out[i] = Ranked{Store: s}
		if origin != nil {
			out[i].DistanceKm = Distance(*origin, StoreCoordinate(s))
			out[i].HasDistance = true
		}
	}
	if origin == nil {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Nearest returns the first ranked store.
func Nearest(ranked []Ranked) (Ranked, bool) {
	if len(ranked) == 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}

// DirectionsURL builds a maps directions link ending at the store.
func DirectionsURL(s models.Store) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("destination", fmt.Sprintf("%v,%v", s.Latitude, s.Longitude))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}

// FormatDistance renders kilometers the way the store list shows them.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%.0f m", km*1000)
	}
	return fmt.Sprintf("%.1f km", km)
}
