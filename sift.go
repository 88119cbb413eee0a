package e91

import (
	"e91/bitstring"
	"e91/epr"
)

// A siftedKey holds both sides' outcome bits for the rounds where
// Alice's and Bob's bases matched, in round order.
type siftedKey struct {
	alice bitstring.Dense
	bob   bitstring.Dense
}

// A qberReport summarizes the observed error rate over one sifted
// sequence. qber is 0 when nothing was sifted; callers must check
// sifted before trusting the ratio.
type qberReport struct {
	mismatches int
	sifted     int
	qber       float64
}

// sift retains the outcome pairs of rounds where both parties measured
// in the same basis. Pure function of the transcript.
func sift(tr transcript) siftedKey {
	mask := basesBits(tr.aliceBases).XNor(basesBits(tr.bobBases))
	return siftedKey{
		alice: tr.aliceBits.Select(mask),
		bob:   tr.bobBits.Select(mask),
	}
}

func estimateQBER(k siftedKey) qberReport {
	n := k.alice.Size()
	if n == 0 {
		return qberReport{}
	}
	mismatches := k.alice.XOr(k.bob).CountOnes()
	return qberReport{
		mismatches: mismatches,
		sifted:     n,
		qber:       float64(mismatches) / float64(n),
	}
}

func basesBits(bases []epr.Basis) bitstring.Dense {
	var d bitstring.Dense
	for _, b := range bases {
		d.AppendBit(b == epr.Diagonal)
	}
	return d
}
