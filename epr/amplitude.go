package epr

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// A PairSource samples projective measurements of the Φ+ Bell state by
// explicit amplitude-vector simulation: the joint state is rotated into
// the analyzers' frame and an outcome is drawn from the squared
// amplitudes. Matched analyzer angles yield perfectly correlated bits;
// analyzers offset by π/4 yield independent uniform bits.
type PairSource struct {
	rand  *rand.Rand
	state *mat.VecDense
}

// NewPairSource returns a PairSource drawing outcomes from r.
func NewPairSource(r *rand.Rand) *PairSource {
	isq := 1 / math.Sqrt2
	return &PairSource{
		rand: r,
		// (|00> + |11>)/sqrt(2)
		state: mat.NewVecDense(4, []float64{isq, 0, 0, isq}),
	}
}

// Measure implements the Source interface.
func (p *PairSource) Measure(alice, bob Basis) (bool, bool, error) {
	var u mat.Dense
	u.Kronecker(analyzer(alice.Angle()), analyzer(bob.Angle()))
	var rotated mat.VecDense
	rotated.MulVec(&u, p.state)

	draw := p.rand.Float64()
	var cum float64
	for outcome := 0; outcome < 4; outcome++ {
		amp := rotated.AtVec(outcome)
		cum += amp * amp
		if draw < cum {
			return outcome&2 != 0, outcome&1 != 0, nil
		}
	}
	if cum < 1-1e-9 {
		return false, false, fmt.Errorf("outcome probabilities sum to %v, want 1", cum)
	}
	// The draw landed in the rounding slack past the final cumulative
	// bound.
	return true, true, nil
}

// analyzer returns the rotation taking the analyzer basis at angle
// theta onto the computational basis.
func analyzer(theta float64) *mat.Dense {
	c, s := math.Cos(theta), math.Sin(theta)
	return mat.NewDense(2, 2, []float64{c, s, -s, c})
}
