package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults for zero values", 0, 0, DefaultPage, DefaultLimit, 0},
		{"negative page clamped", -3, 10, DefaultPage, 10, 0},
		{"limit capped at max", 2, 500, 2, MaxLimit, 100},
		{"valid values pass through", 3, 25, 3, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.page, tt.limit)
			if got.Page != tt.wantPage || got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
				t.Errorf("Normalize(%d, %d) = %+v, want page=%d limit=%d offset=%d",
					tt.page, tt.limit, got, tt.wantPage, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	if got := TotalPages(0, 20); got != 0 {
		t.Errorf("TotalPages(0, 20) = %d, want 0", got)
	}
	if got := TotalPages(41, 20); got != 3 {
		t.Errorf("TotalPages(41, 20) = %d, want 3", got)
	}
	if got := TotalPages(40, 20); got != 2 {
		t.Errorf("TotalPages(40, 20) = %d, want 2", got)
	}
	if got := TotalPages(5, 0); got != 0 {
		t.Errorf("TotalPages(5, 0) = %d, want 0", got)
	}
}
