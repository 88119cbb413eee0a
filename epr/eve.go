package epr

import (
	"math"
	"math/rand"
)

// An Interceptor wraps a Source with an intercept-resend attacker: Eve
// measures each pair en route in her own uniformly chosen basis, then
// forwards a freshly prepared particle carrying her outcome in her
// basis. When Alice's and Bob's bases match but differ from Eve's, the
// resent particle randomizes Bob's outcome, so the matched-basis error
// rate converges to 0.25 in the large-sample limit.
type Interceptor struct {
	source Source
	rand   *rand.Rand
}

// NewInterceptor returns an Interceptor tapping source, with Eve's
// basis choices and resend outcomes drawn from r.
func NewInterceptor(source Source, r *rand.Rand) *Interceptor {
	return &Interceptor{source: source, rand: r}
}

// Measure implements the Source interface.
func (e *Interceptor) Measure(alice, bob Basis) (bool, bool, error) {
	eveBasis := Rectilinear
	if e.rand.Intn(2) == 1 {
		eveBasis = Diagonal
	}
	aliceBit, eveBit, err := e.source.Measure(alice, eveBasis)
	if err != nil {
		return false, false, err
	}
	// Bob measures the resent particle. His bit agrees with Eve's with
	// probability cos^2 of the angle between the two analyzers.
	c := math.Cos(bob.Angle() - eveBasis.Angle())
	if e.rand.Float64() < c*c {
		return aliceBit, eveBit, nil
	}
	return aliceBit, !eveBit, nil
}
