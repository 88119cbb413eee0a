// Package bitstring provides densely-packed sequences of bits, used to
// hold basis choices, measurement outcomes, sifting masks, and raw key
// material.
package bitstring

import (
	"fmt"
	"math/bits"
)

const blockSize = 8

// A Dense is a bit sequence packed eight bits to a byte. Bit i occupies
// byte i/8 at position 7-(i%8), i.e. bit 0 is the most significant bit
// of the first byte.
type Dense struct {
	bits []byte
	n    int
}

// NewDense returns a new Dense whose data is a copy of data and whose
// length is bitLen. If bitLen is longer than data, trailing zeros are
// added. If bitLen is negative, it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * blockSize
	}
	b := make([]byte, blocksFor(bitLen))
	copy(b, data)
	d := Dense{bits: b, n: bitLen}
	d.clearTail()
	return d
}

// Empty returns an empty bit sequence.
func Empty() Dense {
	return Dense{}
}

// FromString converts a string of '1's and '0's to a Dense. Spaces are
// ignored.
func FromString(s string) (Dense, error) {
	var d Dense
	for _, c := range s {
		switch c {
		case '1':
			d.AppendBit(true)
		case '0':
			d.AppendBit(false)
		case ' ':
			continue
		default:
			return Dense{}, fmt.Errorf("invalid bitstring rep: %q", s)
		}
	}
	return d, nil
}

// Size returns the number of bits in d.
func (d Dense) Size() int {
	return d.n
}

// ByteSize returns the number of bytes necessary to represent d.
func (d Dense) ByteSize() int {
	return blocksFor(d.n)
}

// Data returns a copy of the bytes underlying d. Unused trailing bits
// of the final byte are zero.
func (d Dense) Data() []byte {
	data := make([]byte, blocksFor(d.n))
	copy(data, d.bits)
	return data
}

// Get returns the bit at idx. Out-of-range reads return false.
func (d Dense) Get(idx int) bool {
	if idx < 0 || idx >= d.n {
		return false
	}
	return d.bits[idx/blockSize]&(1<<(blockSize-1-idx%blockSize)) != 0
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	pos := d.n % blockSize
	d.n++
	if pos == 0 {
		d.bits = append(d.bits, 0)
	}
	if bit {
		d.bits[len(d.bits)-1] |= 1 << (blockSize - 1 - pos)
	}
}

// XOr computes a bitwise XOR between d and other. If one of the two is
// shorter, trailing 0s are implicitly added to make the sizes match.
func (d Dense) XOr(other Dense) Dense {
	short, long := other, d
	if d.n < other.n {
		short, long = d, other
	}
	r := Dense{bits: make([]byte, blocksFor(long.n)), n: long.n}
	copy(r.bits, long.bits)
	for i := range short.bits {
		r.bits[i] ^= short.bits[i]
	}
	return r
}

// XNor computes a bitwise equality between d and other. If one of the
// two is shorter, trailing 0s are implicitly added to make the sizes
// match.
func (d Dense) XNor(other Dense) Dense {
	r := d.XOr(other)
	for i := range r.bits {
		r.bits[i] = ^r.bits[i]
	}
	r.clearTail()
	return r
}

// CountOnes returns the total number of bits set in d.
func (d Dense) CountOnes() int {
	var sum int
	for _, b := range d.bits {
		sum += bits.OnesCount8(b)
	}
	return sum
}

// Select retains the bits of d at positions where mask is set,
// preserving order.
func (d Dense) Select(mask Dense) Dense {
	var r Dense
	for i := 0; i < d.n; i++ {
		if !mask.Get(i) {
			continue
		}
		r.AppendBit(d.Get(i))
	}
	return r
}

// Slice returns a copy of bits [start, end) of d.
func (d Dense) Slice(start, end int) (Dense, error) {
	if start < 0 || end < start || end > d.n {
		return Dense{}, fmt.Errorf("slicing [%d, %d) of bitstring with len %d", start, end, d.n)
	}
	var r Dense
	for i := start; i < end; i++ {
		r.AppendBit(d.Get(i))
	}
	return r, nil
}

// Equal returns true iff a and b have the same length and bits.
func Equal(a, b Dense) bool {
	return a.n == b.n && a.XOr(b).CountOnes() == 0
}

// clearTail zeroes the unused low bits of the final byte so that Data
// and CountOnes never see bits past Size.
func (d *Dense) clearTail() {
	if rem := d.n % blockSize; rem != 0 && len(d.bits) > 0 {
		d.bits[len(d.bits)-1] &= byte(0xff) << (blockSize - rem)
	}
}

func blocksFor(bits int) int {
	return (bits + blockSize - 1) / blockSize
}
