package constraint

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 12.9716, lng1: 77.5946,
			lat2: 12.9716, lng2: 77.5946,
			want: 0, tolerance: 0.001,
		},
		{
			name: "bangalore city to airport",
			lat1: 12.9716, lng1: 77.5946,
			lat2: 13.1986, lng2: 77.7066,
			want: 27800, tolerance: 500,
		},
		{
			name: "one degree of latitude",
			lat1: 0, lng1: 0,
			lat2: 1, lng2: 0,
			want: 111195, tolerance: 100,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := HaversineMeters(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineMeters() = %.1f, want %.1f (tolerance %.1f)", got, tt.want, tt.tolerance)
			}
		})
	}
}
