package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxSpanDegrees caps the size of a queryable region on both axes.
// A 1°x1° box is roughly 100km x 100km, enough for any campus or city
// district while keeping the worst-case scan bounded.
const MaxSpanDegrees = 1.0

// Bounds is an axis-aligned rectangular geographic region in degrees.
type Bounds struct {
	MinLng float64 `json:"minLng"`
	MinLat float64 `json:"minLat"`
	MaxLng float64 `json:"maxLng"`
	MaxLat float64 `json:"maxLat"`
}

// Validation failures for a requested region.
var (
	ErrMalformedBounds  = errors.New("malformed bounds")
	ErrOutOfRange       = errors.New("bounds out of range")
	ErrDegenerateRegion = errors.New("degenerate region")
	ErrRegionTooLarge   = errors.New("region too large")
)

// ParseBounds parses a "minLng,minLat,maxLng,maxLat" query string into a
// validated Bounds.
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("%w: expected 4 comma-separated values, got %d", ErrMalformedBounds, len(parts))
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Bounds{}, fmt.Errorf("%w: element %d is not a finite number", ErrMalformedBounds, i+1)
		}
		vals[i] = v
	}

	b := Bounds{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}

	return b, nil
}

// Validate checks coordinate ranges, orientation and the region size cap.
func (b Bounds) Validate() error {
	if b.MinLat < -90 || b.MinLat > 90 || b.MaxLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("%w: latitude must be within [-90, 90]", ErrOutOfRange)
	}
	if b.MinLng < -180 || b.MinLng > 180 || b.MaxLng < -180 || b.MaxLng > 180 {
		return fmt.Errorf("%w: longitude must be within [-180, 180]", ErrOutOfRange)
	}
	if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return fmt.Errorf("%w: min must be strictly less than max on both axes", ErrDegenerateRegion)
	}
	if b.MaxLat-b.MinLat > MaxSpanDegrees || b.MaxLng-b.MinLng > MaxSpanDegrees {
		return fmt.Errorf("%w: span exceeds %.0f degree on an axis", ErrRegionTooLarge, MaxSpanDegrees)
	}

	return nil
}

// Contains reports whether a point lies within the region, edges inclusive.
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// ExpandedBy returns the bounds grown by the given distance in meters on
// every side, clamped to valid coordinates. Used to pull in match
// candidates that sit just outside the query region.
func (b Bounds) ExpandedBy(meters float64) Bounds {
	latPad := meters / metersPerDegreeLat
	// Longitude degrees shrink with latitude; pad using the latitude
	// closest to the pole so the expansion never under-covers.
	absLat := math.Max(math.Abs(b.MinLat), math.Abs(b.MaxLat))
	lngScale := math.Cos(absLat * math.Pi / 180)
	if lngScale < 0.01 {
		lngScale = 0.01
	}
	lngPad := meters / (metersPerDegreeLat * lngScale)

	return Bounds{
		MinLng: math.Max(b.MinLng-lngPad, -180),
		MinLat: math.Max(b.MinLat-latPad, -90),
		MaxLng: math.Min(b.MaxLng+lngPad, 180),
		MaxLat: math.Min(b.MaxLat+latPad, 90),
	}
}
