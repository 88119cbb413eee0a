package epr

import (
	"math"
	"math/rand"
	"testing"
)

func TestChooseBasesEmpty(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	if got := ChooseBases(r, 0); len(got) != 0 {
		t.Errorf("ChooseBases(r, 0) has len %d, want 0", len(got))
	}
}

func TestChooseBasesUniform(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	n := 4096
	bases := ChooseBases(r, n)
	if len(bases) != n {
		t.Fatalf("got %d bases, want %d", len(bases), n)
	}
	diag := 0
	for _, b := range bases {
		if b == Diagonal {
			diag++
		}
	}
	if frac := float64(diag) / float64(n); math.Abs(frac-0.5) > 0.05 {
		t.Errorf("diagonal fraction %v, want 0.5 +/- 0.05", frac)
	}
}

func TestPairSourceMatchedBases(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	src := NewPairSource(r)
	for _, basis := range []Basis{Rectilinear, Diagonal} {
		for i := 0; i < 2000; i++ {
			a, b, err := src.Measure(basis, basis)
			if err != nil {
				t.Fatalf("Measure(%v, %v): %v", basis, basis, err)
			}
			if a != b {
				t.Fatalf("matched-basis outcomes differ on trial %d in %v", i, basis)
			}
		}
	}
}

func TestPairSourceMismatchedBases(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	src := NewPairSource(r)
	n := 4000
	agree, aliceOnes := 0, 0
	for i := 0; i < n; i++ {
		a, b, err := src.Measure(Rectilinear, Diagonal)
		if err != nil {
			t.Fatalf("Measure: %v", err)
		}
		if a == b {
			agree++
		}
		if a {
			aliceOnes++
		}
	}
	if frac := float64(agree) / float64(n); math.Abs(frac-0.5) > 0.05 {
		t.Errorf("mismatched-basis agreement %v, want 0.5 +/- 0.05", frac)
	}
	if frac := float64(aliceOnes) / float64(n); math.Abs(frac-0.5) > 0.05 {
		t.Errorf("alice marginal %v, want 0.5 +/- 0.05", frac)
	}
}

func TestPairSourceMarginalsMatched(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	src := NewPairSource(r)
	n := 4000
	ones := 0
	for i := 0; i < n; i++ {
		a, _, err := src.Measure(Diagonal, Diagonal)
		if err != nil {
			t.Fatalf("Measure: %v", err)
		}
		if a {
			ones++
		}
	}
	if frac := float64(ones) / float64(n); math.Abs(frac-0.5) > 0.05 {
		t.Errorf("matched-basis marginal %v, want 0.5 +/- 0.05", frac)
	}
}
