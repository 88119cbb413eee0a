package e91

import (
	"testing"

	"e91/bitstring"
	"e91/epr"
)

func mustBits(t *testing.T, s string) bitstring.Dense {
	t.Helper()
	d, err := bitstring.FromString(s)
	if err != nil {
		t.Fatalf("bad bitstring %q: %v", s, err)
	}
	return d
}

func TestSift(t *testing.T) {
	R, D := epr.Rectilinear, epr.Diagonal
	tcs := []struct {
		name       string
		aliceBases []epr.Basis
		bobBases   []epr.Basis
		aliceBits  string
		bobBits    string
		eAlice     string
		eBob       string
	}{
		{
			name:       "partial match",
			aliceBases: []epr.Basis{R, D, R, D},
			bobBases:   []epr.Basis{R, R, R, D},
			aliceBits:  "1011",
			bobBits:    "1010",
			eAlice:     "111",
			eBob:       "110",
		}, {
			name:       "no matches",
			aliceBases: []epr.Basis{R, D},
			bobBases:   []epr.Basis{D, R},
			aliceBits:  "10",
			bobBits:    "01",
		}, {
			name:       "all match",
			aliceBases: []epr.Basis{D, D, D},
			bobBases:   []epr.Basis{D, D, D},
			aliceBits:  "101",
			bobBits:    "101",
			eAlice:     "101",
			eBob:       "101",
		}, {
			name: "empty",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tr := transcript{
				aliceBases: tc.aliceBases,
				bobBases:   tc.bobBases,
				aliceBits:  mustBits(t, tc.aliceBits),
				bobBits:    mustBits(t, tc.bobBits),
			}
			out := sift(tr)
			if !bitstring.Equal(out.alice, mustBits(t, tc.eAlice)) {
				t.Errorf("sifted alice bits == %v, want %s", out.alice.Data(), tc.eAlice)
			}
			if !bitstring.Equal(out.bob, mustBits(t, tc.eBob)) {
				t.Errorf("sifted bob bits == %v, want %s", out.bob.Data(), tc.eBob)
			}
			if out.alice.Size() > len(tc.aliceBases) {
				t.Errorf("sifted length %d exceeds round count %d", out.alice.Size(), len(tc.aliceBases))
			}
		})
	}
}

func TestEstimateQBER(t *testing.T) {
	tcs := []struct {
		name        string
		alice       string
		bob         string
		eMismatches int
		eQBER       float64
	}{
		{
			name:  "no errors",
			alice: "1100",
			bob:   "1100",
		}, {
			name:        "one error",
			alice:       "111",
			bob:         "110",
			eMismatches: 1,
			eQBER:       1.0 / 3,
		}, {
			name:        "all errors",
			alice:       "11",
			bob:         "00",
			eMismatches: 2,
			eQBER:       1,
		}, {
			name: "empty sift has zero qber",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			k := siftedKey{alice: mustBits(t, tc.alice), bob: mustBits(t, tc.bob)}
			got := estimateQBER(k)
			if got.mismatches != tc.eMismatches {
				t.Errorf("mismatches == %d, want %d", got.mismatches, tc.eMismatches)
			}
			if got.qber != tc.eQBER {
				t.Errorf("qber == %v, want %v", got.qber, tc.eQBER)
			}
			if got.qber < 0 || got.qber > 1 {
				t.Errorf("qber %v out of [0, 1]", got.qber)
			}
		})
	}
}
