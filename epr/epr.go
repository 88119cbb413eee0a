// Package epr models projective measurement of maximally-entangled
// two-level pairs, as consumed by an E91-style key exchange.
package epr

import (
	"math"
	"math/rand"
)

// A Basis identifies one of the two complementary measurement bases.
type Basis uint8

const (
	Rectilinear Basis = iota
	Diagonal
)

// Angle returns the analyzer angle of b, in radians.
func (b Basis) Angle() float64 {
	if b == Diagonal {
		return math.Pi / 4
	}
	return 0
}

func (b Basis) String() string {
	switch b {
	case Rectilinear:
		return "rectilinear"
	case Diagonal:
		return "diagonal"
	}
	return "unknown"
}

// A Source produces classical measurement outcomes for successive
// entangled pairs, one pair per call. Implementations are stochastic
// and draw from an injected randomness source; they are not safe for
// concurrent use.
type Source interface {
	// Measure measures the next pair, Alice's half in basis alice and
	// Bob's half in basis bob, and returns the two outcome bits.
	Measure(alice, bob Basis) (aliceBit, bobBit bool, err error)
}

// ChooseBases draws n independent, uniformly distributed basis choices
// from r. Non-positive n yields an empty result.
func ChooseBases(r *rand.Rand, n int) []Basis {
	if n <= 0 {
		return nil
	}
	bases := make([]Basis, n)
	for i := range bases {
		if r.Intn(2) == 1 {
			bases[i] = Diagonal
		}
	}
	return bases
}
