package forecast

import (
	"math"
	"testing"
)

func closeEnough(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestEWMATrajectory(t *testing.T) {
	h := []float64{10, 10, 10, 50}
	got := EWMANext(h, 0.5)
	if !closeEnough(got, 30.0, 1e-9) {
		t.Fatalf("expected 30.0, got %v", got)
	}
}

func TestEWMAEmptyAndSingleton(t *testing.T) {
	if got := EWMANext(nil, 0.5); got != 0 {
		t.Fatalf("expected 0 for empty history, got %v", got)
	}
	if got := EWMANext([]float64{7}, 0.5); got != 7 {
		t.Fatalf("expected 7 for singleton history, got %v", got)
	}
}

func TestWeightsShape(t *testing.T) {
	ewr, lwr := WeightsFromPeak(80, 100, 1.25)
	if !closeEnough(lwr, 0.430, 1e-3) {
		t.Fatalf("expected LWr ~0.430, got %v", lwr)
	}
	if !closeEnough(ewr, 0.570, 1e-3) {
		t.Fatalf("expected EWr ~0.570, got %v", ewr)
	}
}

func TestWeightsDegenerateThreshold(t *testing.T) {
	ewr, lwr := WeightsFromPeak(80, 0, 1.25)
	if ewr != 1 || lwr != 0 {
		t.Fatalf("expected (1,0) for non-positive threshold, got (%v,%v)", ewr, lwr)
	}
}

func TestAdaptiveAlphaFallsBackBelowWindow(t *testing.T) {
	got := AdaptiveAlpha([]float64{10, 12}, 6, 0.3, 0.9)
	if got != 0.3 {
		t.Fatalf("expected fallback to alphaMin, got %v", got)
	}
}

func TestAdaptiveAlphaInvalidBoundsFallsBackToMidpoint(t *testing.T) {
	got := AdaptiveAlpha([]float64{1, 2, 3, 4, 5, 6}, 6, 0.9, 0.3)
	if got != 0.6 {
		t.Fatalf("expected midpoint 0.6 for inverted bounds, got %v", got)
	}
}

func TestBatchPeakAndMean(t *testing.T) {
	p := Batch(nil, 6, 0.3, 0.9)
	if p.Peak != 0 || p.Mean != 0 {
		t.Fatalf("expected zero peak/mean for empty input, got %+v", p)
	}
}
