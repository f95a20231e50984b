package geo

import (
	"errors"
	"math"
	"testing"
)

func TestParseBounds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Bounds
		wantErr error
	}{
		{
			name:  "valid region",
			input: "121.40,31.15,121.50,31.25",
			want:  Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25},
		},
		{
			name:  "san francisco box",
			input: "-122.5,37.7,-122.4,37.8",
			want:  Bounds{MinLng: -122.5, MinLat: 37.7, MaxLng: -122.4, MaxLat: 37.8},
		},
		{
			name:  "whitespace tolerated",
			input: " 121.40, 31.15 ,121.50,31.25",
			want:  Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25},
		},
		{
			name:    "too few values",
			input:   "121.40,31.15,121.50",
			wantErr: ErrMalformedBounds,
		},
		{
			name:    "too many values",
			input:   "121.40,31.15,121.50,31.25,5",
			wantErr: ErrMalformedBounds,
		},
		{
			name:    "non-numeric element",
			input:   "121.40,abc,121.50,31.25",
			wantErr: ErrMalformedBounds,
		},
		{
			name:    "NaN rejected",
			input:   "121.40,NaN,121.50,31.25",
			wantErr: ErrMalformedBounds,
		},
		{
			name:    "infinity rejected",
			input:   "121.40,31.15,+Inf,31.25",
			wantErr: ErrMalformedBounds,
		},
		{
			name:    "latitude out of range",
			input:   "121.40,91.0,121.50,92.0",
			wantErr: ErrOutOfRange,
		},
		{
			name:    "longitude out of range",
			input:   "-181.0,31.15,-180.5,31.25",
			wantErr: ErrOutOfRange,
		},
		{
			name:    "inverted latitude",
			input:   "121.40,31.25,121.50,31.15",
			wantErr: ErrDegenerateRegion,
		},
		{
			name:    "zero-area region",
			input:   "121.40,31.15,121.40,31.25",
			wantErr: ErrDegenerateRegion,
		},
		{
			name:    "span over one degree",
			input:   "121.00,31.00,122.50,31.25",
			wantErr: ErrRegionTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBounds(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseBounds(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBounds(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseBounds(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBounds_Contains_EdgesInclusive(t *testing.T) {
	b := Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}

	if !b.Contains(Point{Lat: 31.15, Lng: 121.40}) {
		t.Fatal("expected min corner to be contained")
	}
	if !b.Contains(Point{Lat: 31.25, Lng: 121.50}) {
		t.Fatal("expected max corner to be contained")
	}
	if !b.Contains(Point{Lat: 31.20, Lng: 121.45}) {
		t.Fatal("expected interior point to be contained")
	}
	if b.Contains(Point{Lat: 31.26, Lng: 121.45}) {
		t.Fatal("expected point north of region to be excluded")
	}
	if b.Contains(Point{Lat: 31.20, Lng: 121.39}) {
		t.Fatal("expected point west of region to be excluded")
	}
}

func TestBounds_ExpandedBy(t *testing.T) {
	b := Bounds{MinLng: 121.40, MinLat: 31.15, MaxLng: 121.50, MaxLat: 31.25}
	e := b.ExpandedBy(1000)

	if e.MinLat >= b.MinLat || e.MaxLat <= b.MaxLat {
		t.Fatalf("latitude not expanded: %+v", e)
	}
	if e.MinLng >= b.MinLng || e.MaxLng <= b.MaxLng {
		t.Fatalf("longitude not expanded: %+v", e)
	}

	// 1000m is close to 0.009° of latitude.
	latPad := b.MinLat - e.MinLat
	if math.Abs(latPad-0.009) > 0.0005 {
		t.Fatalf("latitude pad = %v, want about 0.009", latPad)
	}
	// At ~31° the longitude pad must be wider than the latitude pad.
	lngPad := b.MinLng - e.MinLng
	if lngPad <= latPad {
		t.Fatalf("longitude pad %v should exceed latitude pad %v", lngPad, latPad)
	}
}

func TestBounds_ExpandedBy_ClampsToValidCoordinates(t *testing.T) {
	b := Bounds{MinLng: -179.99, MinLat: 89.90, MaxLng: 179.99, MaxLat: 89.99}
	e := b.ExpandedBy(5000)

	if e.MaxLat > 90 || e.MinLat < -90 {
		t.Fatalf("latitude not clamped: %+v", e)
	}
	if e.MaxLng > 180 || e.MinLng < -180 {
		t.Fatalf("longitude not clamped: %+v", e)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Point
		want      float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         Point{Lat: 31.2304, Lng: 121.4737},
			b:         Point{Lat: 31.2304, Lng: 121.4737},
			want:      0,
			tolerance: 0.001,
		},
		{
			name: "one degree of latitude",
			a:    Point{Lat: 31.0, Lng: 121.0},
			b:    Point{Lat: 32.0, Lng: 121.0},
			// 6371000 * pi / 180
			want:      111195,
			tolerance: 20,
		},
		{
			name:      "short hop across campus",
			a:         Point{Lat: 31.2304, Lng: 121.4737},
			b:         Point{Lat: 31.2390, Lng: 121.4737},
			want:      956,
			tolerance: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Fatalf("Distance = %v, want %v ± %v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Point{Lat: 31.2304, Lng: 121.4737}
	b := Point{Lat: 31.1993, Lng: 121.4367}
	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("Distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestSnapToCell(t *testing.T) {
	tests := []struct {
		name string
		in   Point
		want Point
	}{
		{
			name: "rounds to nearest cell center",
			in:   Point{Lat: 31.2306, Lng: 121.4741},
			want: Point{Lat: math.Round(31.2306/CellLatStep) * CellLatStep, Lng: math.Round(121.4741/CellLngStep) * CellLngStep},
		},
		{
			name: "cell center is a fixed point",
			in:   Point{Lat: 31.2300, Lng: 121.4730},
			want: Point{Lat: math.Round(31.23/CellLatStep) * CellLatStep, Lng: math.Round(121.473/CellLngStep) * CellLngStep},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SnapToCell(tt.in)
			if math.Abs(got.Lat-tt.want.Lat) > 1e-12 || math.Abs(got.Lng-tt.want.Lng) > 1e-12 {
				t.Fatalf("SnapToCell(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSnapToCell_NearbyPointsShareCell(t *testing.T) {
	a := SnapToCell(Point{Lat: 31.23041, Lng: 121.47370})
	b := SnapToCell(Point{Lat: 31.23049, Lng: 121.47378})
	if a != b {
		t.Fatalf("points within one cell snapped apart: %+v vs %+v", a, b)
	}
}
