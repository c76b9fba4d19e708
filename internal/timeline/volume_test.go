package timeline_test

import (
	"math"
	"testing"

	"montage/internal/timeline"
)

func TestVolumeAnchors(t *testing.T) {
	cases := []struct {
		volume float64
		db     float64
	}{
		{0, -60},
		{25, -30},
		{50, 0},
		{75, 6},
		{100, 12},
	}
	for _, tc := range cases {
		if got := timeline.VolumeToDB(tc.volume); math.Abs(got-tc.db) > 1e-9 {
			t.Fatalf("VolumeToDB(%v) = %v, want %v", tc.volume, got, tc.db)
		}
	}
}

func TestVolumeRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 25, 50, 50.1, 75, 99, 100} {
		got := timeline.DBToVolume(timeline.VolumeToDB(v))
		if math.Abs(got-v) > 0.01 {
			t.Fatalf("round trip %v yielded %v", v, got)
		}
	}
}

func TestLinearGain(t *testing.T) {
	if got := timeline.LinearGain(50); math.Abs(got-1) > 1e-9 {
		t.Fatalf("unity gain = %v", got)
	}
	if got := timeline.LinearGain(0); math.Abs(got-0.001) > 1e-9 {
		t.Fatalf("floor gain = %v, want 0.001 (-60 dB)", got)
	}
	want := math.Pow(10, 12.0/20)
	if got := timeline.LinearGain(100); math.Abs(got-want) > 1e-9 {
		t.Fatalf("max gain = %v, want %v", got, want)
	}
}
