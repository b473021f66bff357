// Package geo contains the coordinate codec used by the location
// repository. A Point is a validated WGS84 latitude/longitude pair; it
// renders the well-known-text form that is persisted into the POINT
// column, and it offers a spherical distance function so pure Go code
// and the database agree on what "nearby" means.
package geo

import (
	"errors"
	"math"
	"strconv"
)

// SRID4326 identifies the WGS84 geographic coordinate reference system.
// Every geometry written by this service carries this SRID.
const SRID4326 = 4326

// earthRadiusMeters is the mean Earth radius used by the haversine
// distance below.
const earthRadiusMeters = 6371008.8

// ErrLatitude and ErrLongitude are returned by NewPoint when a
// coordinate falls outside its valid range. Handlers translate them
// into 400 responses.
var (
	ErrLatitude  = errors.New("latitude must be within [-90, 90]")
	ErrLongitude = errors.New("longitude must be within [-180, 180]")
)

// Point is a WGS84 coordinate pair. Construct it through NewPoint so
// the ranges are always checked; a zero Point is valid and lies on the
// equator at the prime meridian.
type Point struct {
	Lat float64 // decimal degrees, [-90, 90]
	Lng float64 // decimal degrees, [-180, 180]
}

// NewPoint validates the coordinate pair and returns a Point. NaN is
// rejected explicitly because it slips past plain range comparisons;
// infinities are caught by the range checks themselves.
func NewPoint(lat, lng float64) (Point, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Point{}, ErrLatitude
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Point{}, ErrLongitude
	}
	return Point{Lat: lat, Lng: lng}, nil
}

// WKT renders the point as well-known text, longitude first. That is
// the axis order the database expects when the text is parsed with
// ST_GeomFromText(?, 4326, 'axis-order=long-lat'). Coordinates are
// formatted without exponent notation so the geometry parser never
// sees scientific form.
func (p Point) WKT() string {
	return "POINT(" + strconv.FormatFloat(p.Lng, 'f', -1, 64) + " " +
		strconv.FormatFloat(p.Lat, 'f', -1, 64) + ")"
}

// DistanceMeters returns the great-circle distance between two points
// using the haversine formula. The result is symmetric and zero for
// identical points.
func DistanceMeters(a, b Point) float64 {
	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
