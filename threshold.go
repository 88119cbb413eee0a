package e91

import (
	"fmt"
	"math"
)

// thresholdTolerance bounds the absolute error in the solved QBER.
const thresholdTolerance = 1e-6

// MaxTolerableQBER returns the largest error rate q* in [0, 0.5) at
// which error correction with inefficiency factor f still leaves key
// material, i.e. the root of h(q*) = 1/(1+f) for the binary entropy h.
// h is strictly increasing on [0, 0.5], so q* is found by bisection.
// The threshold depends only on f and should be computed once and
// reused across runs.
func MaxTolerableQBER(f float64) (float64, error) {
	if f < 0 || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: reconciliation factor must be non-negative, got %v", ErrInvalidParameter, f)
	}
	target := 1 / (1 + f)
	lo, hi := 0.0, 0.5
	for hi-lo > thresholdTolerance {
		mid := (lo + hi) / 2
		if binaryEntropy(mid) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// binaryEntropy is the Shannon entropy of a Bernoulli(q) variable, in
// bits, with h(0) = h(1) = 0.
func binaryEntropy(q float64) float64 {
	if q <= 0 || q >= 1 {
		return 0
	}
	return -q*math.Log2(q) - (1-q)*math.Log2(1-q)
}
