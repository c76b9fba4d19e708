package timecode_test

import (
	"math"
	"testing"

	"montage/internal/timecode"
)

func TestNewFrameRateRejectsNonPositive(t *testing.T) {
	for _, fps := range []float64{0, -24, math.NaN(), math.Inf(1)} {
		if _, err := timecode.NewFrameRate(fps); err == nil {
			t.Fatalf("expected error for fps %v", fps)
		}
	}
}

func TestQuantizeSnapsToFrameGrid(t *testing.T) {
	rate := timecode.FrameRate{FPS: 30}
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1.0 / 30, 1.0 / 30},
		{0.016, 1.0 / 30},
		{0.049, 1.0 / 30},
		{4.0, 4.0},
	}
	for _, tc := range cases {
		got := rate.Quantize(tc.in)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Quantize(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFramesRoundTrip(t *testing.T) {
	rate := timecode.FrameRate{FPS: 24}
	for _, frames := range []int64{0, 1, 23, 24, 240, 100000} {
		got := rate.Frames(rate.Seconds(frames))
		if got != frames {
			t.Fatalf("round trip %d frames yielded %d", frames, got)
		}
	}
}

func TestZeroFrameRateFallsBackToDefault(t *testing.T) {
	var rate timecode.FrameRate
	want := 1.0 / timecode.DefaultFPS
	if got := rate.FrameDuration(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("FrameDuration = %v, want %v", got, want)
	}
}

func TestClamp(t *testing.T) {
	if got := timecode.Clamp(5, 0, 3); got != 3 {
		t.Fatalf("Clamp high = %v", got)
	}
	if got := timecode.Clamp(-1, 0, 3); got != 0 {
		t.Fatalf("Clamp low = %v", got)
	}
	if got := timecode.Clamp(2, 0, 3); got != 2 {
		t.Fatalf("Clamp mid = %v", got)
	}
}
