package item

import "testing"

func TestType_Opposite(t *testing.T) {
	if got := TypeLost.Opposite(); got != TypeFound {
		t.Fatalf("lost.Opposite() = %q, want found", got)
	}
	if got := TypeFound.Opposite(); got != TypeLost {
		t.Fatalf("found.Opposite() = %q, want lost", got)
	}
}

func TestType_Valid(t *testing.T) {
	if !TypeLost.Valid() || !TypeFound.Valid() {
		t.Fatal("expected lost and found to be valid")
	}
	if Type("stolen").Valid() || Type("").Valid() {
		t.Fatal("expected unknown types to be invalid")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"active to resolved", StatusActive, StatusResolved, true},
		{"active to closed", StatusActive, StatusClosed, true},
		{"active to deleted", StatusActive, StatusDeleted, true},
		{"resolved to deleted", StatusResolved, StatusDeleted, true},
		{"closed to deleted", StatusClosed, StatusDeleted, true},
		{"resolved back to active", StatusResolved, StatusActive, false},
		{"closed back to active", StatusClosed, StatusActive, false},
		{"resolved to closed", StatusResolved, StatusClosed, false},
		{"deleted is terminal", StatusDeleted, StatusActive, false},
		{"deleted to deleted", StatusDeleted, StatusDeleted, false},
		{"active to active", StatusActive, StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTimeRange_Days(t *testing.T) {
	tests := []struct {
		r    TimeRange
		want int
	}{
		{Range7Days, 7},
		{Range30Days, 30},
		{Range90Days, 90},
		{RangeAll, 0},
		{TimeRange(""), 0},
	}

	for _, tt := range tests {
		if got := tt.r.Days(); got != tt.want {
			t.Fatalf("TimeRange(%q).Days() = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestTimeRange_Valid(t *testing.T) {
	for _, r := range []TimeRange{"", Range7Days, Range30Days, Range90Days, RangeAll} {
		if !r.Valid() {
			t.Fatalf("expected %q to be valid", r)
		}
	}
	if TimeRange("14d").Valid() {
		t.Fatal("expected unknown range to be invalid")
	}
}
