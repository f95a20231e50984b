package mapquery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"laf/internal/domain/geo"
	"laf/internal/domain/item"
)

// fakeStore serves region queries from an in-memory slice, applying the
// same bounds and status/type semantics the real store does.
type fakeStore struct {
	items   []item.Item
	stats   *item.Stats
	filters []item.Filter
	err     error
}

func (f *fakeStore) SearchRegion(_ context.Context, b geo.Bounds, flt item.Filter) ([]item.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.filters = append(f.filters, flt)

	var out []item.Item
	for _, it := range f.items {
		if it.Location == nil || !b.Contains(*it.Location) {
			continue
		}
		if flt.Status != "" && it.Status != flt.Status {
			continue
		}
		if flt.Type != "" && it.Type != flt.Type {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeStore) Statistics(_ context.Context, r item.TimeRange) (*item.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.filters = append(f.filters, item.Filter{TimeRange: r})
	return f.stats, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loc(lat, lng float64) *geo.Point {
	return &geo.Point{Lat: lat, Lng: lng}
}

func TestQueryRegion_MatchCounts(t *testing.T) {
	base := geo.Point{Lat: 31.2000, Lng: 121.4500}
	store := &fakeStore{
		items: []item.Item{
			{ID: 1, Type: item.TypeLost, CategoryID: 3, Status: item.StatusActive, Location: &base},
			// Opposite type, same category, 0.00899 deg of latitude away
			// is just under a kilometer: counted.
			{ID: 2, Type: item.TypeFound, CategoryID: 3, Status: item.StatusActive, Location: loc(base.Lat+0.00899, base.Lng)},
			// 0.0091 deg is just over a kilometer: not counted.
			{ID: 3, Type: item.TypeFound, CategoryID: 3, Status: item.StatusActive, Location: loc(base.Lat+0.0091, base.Lng)},
			// Nearby but wrong category.
			{ID: 4, Type: item.TypeFound, CategoryID: 9, Status: item.StatusActive, Location: loc(base.Lat+0.001, base.Lng)},
			// Nearby but same type.
			{ID: 5, Type: item.TypeLost, CategoryID: 3, Status: item.StatusActive, Location: loc(base.Lat+0.002, base.Lng)},
		},
	}
	svc := NewService(store, testLogger())

	bounds := geo.Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}
	res, err := svc.QueryRegion(context.Background(), bounds, item.Filter{})
	if err != nil {
		t.Fatalf("QueryRegion: %v", err)
	}

	counts := make(map[int64]int)
	for _, mi := range res.Items {
		counts[mi.ID] = mi.MatchCount
	}
	if counts[1] != 1 {
		t.Fatalf("item 1 match count = %d, want 1 (only the in-radius opposite listing)", counts[1])
	}
	if counts[5] != 0 {
		t.Fatalf("item 5 match count = %d, want 0 (same type never matches)", counts[5])
	}
	// Found item 2 sees the lost items 1 and 5 of its category in radius.
	if counts[2] != 2 {
		t.Fatalf("item 2 match count = %d, want 2", counts[2])
	}
}

func TestQueryRegion_CandidatesComeFromExpandedRegion(t *testing.T) {
	// The found listing sits just north of the query region but within the
	// match radius of the lost listing near the edge. It must still count.
	store := &fakeStore{
		items: []item.Item{
			{ID: 1, Type: item.TypeLost, CategoryID: 3, Status: item.StatusActive, Location: loc(31.2495, 121.4500)},
			{ID: 2, Type: item.TypeFound, CategoryID: 3, Status: item.StatusActive, Location: loc(31.2520, 121.4500)},
		},
	}
	svc := NewService(store, testLogger())

	bounds := geo.Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}
	res, err := svc.QueryRegion(context.Background(), bounds, item.Filter{})
	if err != nil {
		t.Fatalf("QueryRegion: %v", err)
	}

	if len(res.Items) != 1 {
		t.Fatalf("expected only the in-region listing, got %d", len(res.Items))
	}
	if res.Items[0].MatchCount != 1 {
		t.Fatalf("match count = %d, want 1 from the out-of-region candidate", res.Items[0].MatchCount)
	}
}

func TestQueryRegion_DefaultsToActiveStatus(t *testing.T) {
	store := &fakeStore{
		items: []item.Item{
			{ID: 1, Type: item.TypeLost, CategoryID: 1, Status: item.StatusActive, Location: loc(31.20, 121.45)},
			{ID: 2, Type: item.TypeLost, CategoryID: 1, Status: item.StatusResolved, Location: loc(31.21, 121.45)},
		},
	}
	svc := NewService(store, testLogger())

	bounds := geo.Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}
	res, err := svc.QueryRegion(context.Background(), bounds, item.Filter{})
	if err != nil {
		t.Fatalf("QueryRegion: %v", err)
	}

	if len(res.Items) != 1 || res.Items[0].ID != 1 {
		t.Fatalf("expected only the active listing, got %+v", res.Items)
	}
	if res.Stats.TotalItems != 1 || res.Stats.LostItems != 1 || res.Stats.FoundItems != 0 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
}

func TestQueryRegion_HeatmapDropsSparseCells(t *testing.T) {
	// Three listings share one grid cell, a fourth sits alone in another.
	store := &fakeStore{
		items: []item.Item{
			{ID: 1, Type: item.TypeLost, CategoryID: 1, Status: item.StatusActive, Location: loc(31.20001, 121.45001)},
			{ID: 2, Type: item.TypeFound, CategoryID: 2, Status: item.StatusActive, Location: loc(31.20010, 121.45010)},
			{ID: 3, Type: item.TypeLost, CategoryID: 3, Status: item.StatusActive, Location: loc(31.20020, 121.45020)},
			{ID: 4, Type: item.TypeLost, CategoryID: 1, Status: item.StatusActive, Location: loc(31.23000, 121.40000)},
		},
	}
	svc := NewService(store, testLogger())

	bounds := geo.Bounds{MinLng: 121.39, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}
	res, err := svc.QueryRegion(context.Background(), bounds, item.Filter{})
	if err != nil {
		t.Fatalf("QueryRegion: %v", err)
	}

	if len(res.Heatmap) != 1 {
		t.Fatalf("expected 1 heatmap cell, got %d: %+v", len(res.Heatmap), res.Heatmap)
	}
	if res.Heatmap[0].Weight != 3 {
		t.Fatalf("cell weight = %d, want 3", res.Heatmap[0].Weight)
	}
	if res.Stats.HeatmapPoints != 1 {
		t.Fatalf("stats heatmap points = %d, want 1", res.Stats.HeatmapPoints)
	}
}

func TestQueryRegion_HeatmapSortedByWeight(t *testing.T) {
	store := &fakeStore{
		items: []item.Item{
			// Two listings in one cell, three in another.
			{ID: 1, Status: item.StatusActive, Type: item.TypeLost, Location: loc(31.2000, 121.4500)},
			{ID: 2, Status: item.StatusActive, Type: item.TypeLost, Location: loc(31.2001, 121.4501)},
			{ID: 3, Status: item.StatusActive, Type: item.TypeLost, Location: loc(31.2300, 121.4000)},
			{ID: 4, Status: item.StatusActive, Type: item.TypeLost, Location: loc(31.2301, 121.4001)},
			{ID: 5, Status: item.StatusActive, Type: item.TypeLost, Location: loc(31.2302, 121.4002)},
		},
	}
	svc := NewService(store, testLogger())

	bounds := geo.Bounds{MinLng: 121.39, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}
	res, err := svc.QueryRegion(context.Background(), bounds, item.Filter{})
	if err != nil {
		t.Fatalf("QueryRegion: %v", err)
	}

	if len(res.Heatmap) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(res.Heatmap))
	}
	if res.Heatmap[0].Weight < res.Heatmap[1].Weight {
		t.Fatalf("heatmap not sorted by weight desc: %+v", res.Heatmap)
	}
}

func TestQueryRegion_HeatmapWindowNeverWidens(t *testing.T) {
	tests := []struct {
		name   string
		caller item.TimeRange
		want   item.TimeRange
	}{
		{"no range falls back to the fixed window", "", item.Range30Days},
		{"wider range is narrowed", item.Range90Days, item.Range30Days},
		{"all-time is narrowed", item.RangeAll, item.Range30Days},
		{"narrower range is kept", item.Range7Days, item.Range7Days},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := NewService(store, testLogger())
			bounds := geo.Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}

			if _, err := svc.QueryRegion(context.Background(), bounds, item.Filter{TimeRange: tt.caller}); err != nil {
				t.Fatalf("QueryRegion: %v", err)
			}

			// Calls are listing, candidates, heatmap in that order.
			if len(store.filters) != 3 {
				t.Fatalf("expected 3 store queries, got %d", len(store.filters))
			}
			if got := store.filters[2].TimeRange; got != tt.want {
				t.Fatalf("heatmap time range = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryRegion_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&fakeStore{err: boom}, testLogger())
	bounds := geo.Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}

	if _, err := svc.QueryRegion(context.Background(), bounds, item.Filter{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestStatistics_DefaultsToThirtyDays(t *testing.T) {
	store := &fakeStore{stats: &item.Stats{TotalItems: 5, TimeRange: item.Range30Days}}
	svc := NewService(store, testLogger())

	stats, err := svc.Statistics(context.Background(), "")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalItems != 5 {
		t.Fatalf("total items = %d, want 5", stats.TotalItems)
	}
	if len(store.filters) != 1 || store.filters[0].TimeRange != item.Range30Days {
		t.Fatalf("expected store queried with 30d, got %+v", store.filters)
	}
}
