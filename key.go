package e91

import (
	"fmt"

	"e91/bitstring"
)

// DeriveKey packs the first keyBytes*8 bits of material into a key of
// exactly keyBytes bytes, most significant bit first. It fails with
// ErrInsufficientKeyMaterial when material is too short: short runs are
// retried with more rounds, never padded with filler bytes, since
// deterministic filler would make part of the key predictable.
func DeriveKey(material bitstring.Dense, keyBytes int) ([]byte, error) {
	if keyBytes < 0 {
		return nil, fmt.Errorf("%w: key length must be non-negative, got %d", ErrInvalidParameter, keyBytes)
	}
	need := keyBytes * 8
	if material.Size() < need {
		return nil, fmt.Errorf("%w: have %d sifted bits, need %d", ErrInsufficientKeyMaterial, material.Size(), need)
	}
	head, err := material.Slice(0, need)
	if err != nil {
		return nil, err
	}
	return head.Data(), nil
}
