// Package mapquery implements the map view: bounded spatial search,
// proximity match counting and the heatmap density grid.
package mapquery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"laf/internal/domain/geo"
	"laf/internal/domain/item"
)

// MatchRadiusMeters is the proximity threshold for counting opposite-type
// candidates, boundary inclusive. Distances are geodesic (haversine, mean
// earth radius 6371km); see the geo package.
const MatchRadiusMeters = 1000.0

// heatmapWindowDays fixes the trailing window of the heatmap aggregation.
// The caller's time range narrows it but never widens it.
const heatmapWindowDays = 30

// Store is the slice of the item store the map query engine reads through.
type Store interface {
	SearchRegion(ctx context.Context, b geo.Bounds, f item.Filter) ([]item.Item, error)
	Statistics(ctx context.Context, r item.TimeRange) (*item.Stats, error)
}

// MapItem is a listing enriched with its derived match count.
type MapItem struct {
	item.Item
	MatchCount int `json:"matchCount"`
}

// RegionStats summarizes one region query.
type RegionStats struct {
	TotalItems    int `json:"totalItems"`
	LostItems     int `json:"lostItems"`
	FoundItems    int `json:"foundItems"`
	HeatmapPoints int `json:"heatmapPoints"`
}

// RegionResult is the response of a region query. Items and Heatmap are
// computed independently: the item list honors the caller's time range
// while the heatmap is a denoised density signal over a fixed recent
// window.
type RegionResult struct {
	Items   []MapItem         `json:"items"`
	Heatmap []geo.HeatmapCell `json:"heatmapData"`
	Stats   RegionStats       `json:"stats"`
	Bounds  geo.Bounds        `json:"bounds"`
}

// Service answers map queries. It holds no state between requests; every
// query recomputes from current storage.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new map query service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// QueryRegion returns the listings inside a validated region together with
// per-listing match counts and the heatmap aggregation.
func (s *Service) QueryRegion(ctx context.Context, b geo.Bounds, f item.Filter) (*RegionResult, error) {
	if f.Status == "" {
		f.Status = item.StatusActive
	}

	listings, err := s.store.SearchRegion(ctx, b, f)
	if err != nil {
		return nil, fmt.Errorf("searching region: %w", err)
	}

	// Candidates for match counting come from the region expanded by the
	// match radius, so listings near the edge still see their matches.
	candidates, err := s.store.SearchRegion(ctx, b.ExpandedBy(MatchRadiusMeters), item.Filter{
		Status: item.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("searching match candidates: %w", err)
	}

	items := make([]MapItem, 0, len(listings))
	stats := RegionStats{}
	for _, it := range listings {
		mi := MapItem{Item: it, MatchCount: countMatches(it, candidates)}
		items = append(items, mi)

		stats.TotalItems++
		switch it.Type {
		case item.TypeLost:
			stats.LostItems++
		case item.TypeFound:
			stats.FoundItems++
		}
	}

	heatmap, err := s.buildHeatmap(ctx, b, f)
	if err != nil {
		return nil, err
	}
	stats.HeatmapPoints = len(heatmap)

	return &RegionResult{
		Items:   items,
		Heatmap: heatmap,
		Stats:   stats,
		Bounds:  b,
	}, nil
}

// Statistics returns aggregate counts for the requested trailing window.
func (s *Service) Statistics(ctx context.Context, r item.TimeRange) (*item.Stats, error) {
	if r == "" {
		r = item.Range30Days
	}

	stats, err := s.store.Statistics(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("querying statistics: %w", err)
	}

	return stats, nil
}

// countMatches counts active opposite-type listings of the same category
// within the match radius. A listing without coordinates has no spatially
// comparable candidate set and counts zero.
func countMatches(it item.Item, candidates []item.Item) int {
	if it.Location == nil {
		return 0
	}

	want := it.Type.Opposite()
	count := 0
	for _, c := range candidates {
		if c.ID == it.ID || c.Type != want || c.CategoryID != it.CategoryID {
			continue
		}
		if c.Status != item.StatusActive || c.Location == nil {
			continue
		}
		if geo.Distance(*it.Location, *c.Location) <= MatchRadiusMeters {
			count++
		}
	}

	return count
}

// buildHeatmap aggregates recent listings into grid cells, dropping cells
// below the denoising threshold.
func (s *Service) buildHeatmap(ctx context.Context, b geo.Bounds, f item.Filter) ([]geo.HeatmapCell, error) {
	// Same spatial and attribute predicate as the listing query,
	// intersected with the fixed trailing window.
	hf := f
	if d := hf.TimeRange.Days(); d == 0 || d > heatmapWindowDays {
		hf.TimeRange = item.Range30Days
	}

	recent, err := s.store.SearchRegion(ctx, b, hf)
	if err != nil {
		return nil, fmt.Errorf("searching heatmap window: %w", err)
	}

	counts := make(map[geo.Point]int)
	for _, it := range recent {
		if it.Location == nil {
			continue
		}
		counts[geo.SnapToCell(*it.Location)]++
	}

	cells := make([]geo.HeatmapCell, 0, len(counts))
	for center, n := range counts {
		if n < geo.MinCellCount {
			continue
		}
		cells = append(cells, geo.HeatmapCell{Center: center, Weight: n})
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Weight != cells[j].Weight {
			return cells[i].Weight > cells[j].Weight
		}
		if cells[i].Center.Lat != cells[j].Center.Lat {
			return cells[i].Center.Lat < cells[j].Center.Lat
		}
		return cells[i].Center.Lng < cells[j].Center.Lng
	})

	return cells, nil
}
