package geo

import "math"

// Heatmap grid resolution. A cell is roughly 500m x 500m: 0.0045° of
// latitude and 0.0090° of longitude.
const (
	CellLatStep = 0.0045
	CellLngStep = 0.0090
)

// MinCellCount is the denoising threshold: cells holding fewer listings
// than this are not emitted.
const MinCellCount = 2

// HeatmapCell is one aggregation bucket of the listing-density grid.
type HeatmapCell struct {
	Center Point `json:"coordinates"`
	Weight int   `json:"weight"`
}

// SnapToCell rounds a point to the center of its grid cell.
func SnapToCell(p Point) Point {
	return Point{
		Lat: math.Round(p.Lat/CellLatStep) * CellLatStep,
		Lng: math.Round(p.Lng/CellLngStep) * CellLngStep,
	}
}
