// Package geo holds the geospatial primitives shared by the map query
// engine: region validation, great-circle distance and the heatmap grid.
package geo

import "math"

const (
	// earthRadiusMeters is the mean earth radius used by the haversine
	// formula below. All distances in this package are geodesic meters;
	// planar approximations are not acceptable at the ~500m grid scale.
	earthRadiusMeters = 6371000.0

	// metersPerDegreeLat is the length of one degree of latitude on the
	// sphere above (pi * R / 180).
	metersPerDegreeLat = earthRadiusMeters * math.Pi / 180
)

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Distance returns the great-circle distance between two points in meters,
// computed with the haversine formula on a sphere of radius 6371km.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
