// Package forecast does one-step EWMA prediction with an adaptive
// smoothing factor, plus the load/energy weight derivation the planner's
// objective mixes.
package forecast

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hybridsdn/controller/internal/model"
)

// EWMANext computes the one-step exponentially-weighted moving average:
// s0 = h[0], s_i = alpha*h[i] + (1-alpha)*s_{i-1}, result = s_{n-1}. An
// empty history yields 0; a singleton yields h[0].
func EWMANext(h []float64, alpha float64) float64 {
	if len(h) == 0 {
		return 0
	}
	s := h[0]
	for i := 1; i < len(h); i++ {
		s = alpha*h[i] + (1-alpha)*s
	}
	return s
}

// AdaptiveAlpha derives a smoothing factor from the coefficient of
// variation of the last window samples: a noisier history pushes alpha
// toward alphaMax (trust the latest sample more), a stable one toward
// alphaMin. Degenerate inputs fall back to alphaMin, or to the midpoint
// when the bounds themselves are invalid.
func AdaptiveAlpha(h []float64, window int, alphaMin, alphaMax float64) float64 {
	if alphaMin < 0 || alphaMax > 1 || alphaMin > alphaMax {
		return (alphaMin + alphaMax) / 2
	}

	w := window
	if w < 2 {
		w = 2
	}
	if len(h) < w {
		return alphaMin
	}

	recent := h[len(h)-w:]
	mu, sigma := stat.MeanStdDev(recent, nil)
	if mu <= 0 {
		return alphaMin
	}

	c := sigma / mu
	x := c / 0.3
	weight := x / (1 + x)
	alpha := alphaMin + (alphaMax-alphaMin)*weight
	return clamp(alpha, alphaMin, alphaMax)
}

// WeightsFromPeak derives the planner's load/energy weights from a
// predicted peak against a configured threshold. A non-positive threshold
// is degenerate: it returns (EWr=1, LWr=0), i.e. ignore load entirely.
func WeightsFromPeak(peak, threshold, gamma float64) (ewr, lwr float64) {
	if threshold <= 0 {
		return 1, 0
	}

	g := gamma
	if g < 0.5 {
		g = 0.5
	}

	r := peak / threshold
	if r < 0 {
		r = 0
	}
	rg := math.Pow(r, g)

	lwr = rg / (1 + rg)
	ewr = 1 - lwr
	return ewr, lwr
}

// Prediction is the batch operation's result: a per-edge next-step
// estimate plus the cross-edge peak and mean that feed WeightsFromPeak.
type Prediction struct {
	Next map[model.EdgeKey]float64
	Peak float64
	Mean float64
}

// Batch predicts every edge's next-step Mbps from its history in one pass,
// each with its own adaptively-derived alpha.
func Batch(histories map[model.EdgeKey][]float64, window int, alphaMin, alphaMax float64) Prediction {
	next := make(map[model.EdgeKey]float64, len(histories))

	var sum, peak float64
	first := true
	for k, h := range histories {
		alpha := AdaptiveAlpha(h, window, alphaMin, alphaMax)
		v := EWMANext(h, alpha)
		next[k] = v
		sum += v
		if first || v > peak {
			peak = v
			first = false
		}
	}

	mean := 0.0
	if len(histories) > 0 {
		mean = sum / float64(len(histories))
	}

	return Prediction{Next: next, Peak: peak, Mean: mean}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
