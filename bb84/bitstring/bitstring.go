// Package bitstring provides a densely-packed bit sequence type used for
// all BB84 key material: raw bits, basis choices, sifted keys, and the
// corrected and compressed keys derived from them.
package bitstring

import (
	"bytes"
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrLengthMismatch reports an operation on two bit sequences whose
// lengths were required to agree but did not.
var ErrLengthMismatch = errors.New("bit sequences differ in length")

// A Bits is a bit sequence where every bit is explicitly represented.
type Bits struct {
	bits []byte
	len  int

	offset int
}

const blockSize = 8

// New returns a new Bits whose data is a copy of data, and whose length
// is bitLen. If bitLen is longer than data, then trailing zeros are
// added. If bitLen is negative, then it is inferred from data.
func New(data []byte, bitLen int) Bits {
	if bitLen < 0 {
		bitLen = len(data) * blockSize
	}
	buf := make([]byte, BytesFor(bitLen))
	copy(buf, data)
	return Bits{
		bits: buf,
		len:  bitLen,
	}
}

// Empty returns an empty bit sequence.
func Empty() Bits {
	return Bits{}
}

// Parse converts a binary digit string such as "0101" into a Bits, with
// the leftmost digit at index 0.
func Parse(s string) (Bits, error) {
	var b Bits
	for _, r := range s {
		switch r {
		case '0':
			b.AppendBit(false)
		case '1':
			b.AppendBit(true)
		default:
			return Bits{}, fmt.Errorf("bit strings may only contain 0 and 1, found %q", r)
		}
	}
	return b, nil
}

// String renders b as a binary digit string, index 0 first.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(b.len)
	for i := 0; i < b.len; i++ {
		if b.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Size returns the number of bits in b.
func (b Bits) Size() int {
	return b.len
}

// ByteSize returns the number of bytes necessary to represent b.
func (b Bits) ByteSize() int {
	return BytesFor(b.len)
}

// Data returns a copy of the bytes underlying b.
func (b Bits) Data() []byte {
	data := make([]byte, 0, BytesFor(b.len))
	for i := 0; i < BytesFor(b.len); i++ {
		data = append(data, b.getByte(i))
	}
	return data
}

// Clone returns an independent copy of b.
func (b Bits) Clone() Bits {
	return New(b.Data(), b.len)
}

// Equal reports whether b and other hold identical bit sequences.
func (b Bits) Equal(other Bits) bool {
	if b.len != other.len {
		return false
	}
	return bytes.Equal(b.Data(), other.Data())
}

// XOr computes a bitwise XOR operation between b and other. If one of the
// two is shorter than the other, then trailing 0s are implicitly added to
// make the sizes match.
func (b Bits) XOr(other Bits) Bits {
	short, long := other, b
	if b.len < other.len {
		short, long = b, other
	}
	r := Bits{
		bits: make([]byte, 0, BytesFor(long.len)),
		len:  long.len,
	}
	for i := range short.bits {
		r.bits = append(r.bits, short.getByte(i)^long.getByte(i))
	}
	for j := len(short.bits); j < len(long.bits); j++ {
		r.bits = append(r.bits, long.getByte(j)) // 0^v == v
	}
	return r
}

// XNor computes a bitwise equality operation between b and other. If one
// of the two is shorter than the other, then trailing 0s are implicitly
// added to make the sizes match.
func (b Bits) XNor(other Bits) Bits {
	short, long := other, b
	if b.len < other.len {
		short, long = b, other
	}
	r := Bits{
		bits: make([]byte, 0, BytesFor(long.len)),
		len:  long.len,
	}
	for i := range short.bits {
		r.bits = append(r.bits, ^short.getByte(i)^long.getByte(i))
	}
	for j := len(short.bits); j < len(long.bits); j++ {
		r.bits = append(r.bits, ^long.getByte(j)) // ~(0^v) == ~v
	}
	return r
}

// Parity returns the overall parity of b, with true corresponding to 1
// and false to 0.
func (b Bits) Parity() bool {
	var sum byte
	for i := 0; i < BytesFor(b.len); i++ {
		sum ^= b.getByte(i)
	}
	return bits.OnesCount8(sum)%2 == 1
}

// CountOnes returns the total number of bits set in b.
func (b Bits) CountOnes() int {
	var sum int
	for i := 0; i < BytesFor(b.len); i++ {
		sum += bits.OnesCount8(b.getByte(i))
	}
	return sum
}

// Select selects a subset of bits from b, according to which bits are set
// in mask.
func (b Bits) Select(mask Bits) Bits {
	var r Bits
	for i := 0; i < b.len; i++ {
		if !mask.Get(i) {
			continue
		}
		r.AppendBit(b.Get(i))
	}
	return r
}

// Slice creates a view into b including bits [start, end).
func (b Bits) Slice(start, end int) (Bits, error) {
	if end-start > b.len {
		return Bits{}, fmt.Errorf("slicing bit sequence of len %d up to %d", b.len, end-start)
	}
	if start < 0 {
		return Bits{}, fmt.Errorf("slicing bit sequence with negative start: %d", start)
	}
	if end < start {
		return Bits{}, fmt.Errorf("slicing bit sequence to negative length: %d", end-start)
	}
	blockStart := start / blockSize
	blockEnd := blockStart + BytesFor(end-start)
	return Bits{
		bits:   b.bits[blockStart:blockEnd],
		len:    end - start,
		offset: start % blockSize,
	}, nil
}

// Get returns the bit at idx.
func (b Bits) Get(idx int) bool {
	if idx < 0 || idx >= b.len {
		return false
	}
	idx = idx + b.offset
	block := b.bits[idx/blockSize]
	pos := idx % blockSize
	return 0 < block&(1<<pos)
}

// Set assigns the bit at idx. Out-of-range indices are ignored.
func (b *Bits) Set(idx int, bit bool) {
	if idx < 0 || idx >= b.len {
		return
	}
	idx = idx + b.offset
	pos := idx % blockSize
	if bit {
		b.bits[idx/blockSize] |= 1 << pos
	} else {
		b.bits[idx/blockSize] &^= 1 << pos
	}
}

// Flip inverts the bit at idx.
func (b *Bits) Flip(idx int) {
	b.Set(idx, !b.Get(idx))
}

// AppendBit adds a single bit to the end of b.
func (b *Bits) AppendBit(bit bool) {
	pos := b.len % blockSize
	b.len += 1
	if pos == 0 {
		b.bits = append(b.bits, 0)
	}
	if bit {
		b.bits[len(b.bits)-1] |= 1 << pos
	}
}

// BytesFor returns the number of bytes necessary to hold the given number
// of bits.
func BytesFor(bits int) int {
	return (bits + blockSize - 1) / blockSize
}

func (b *Bits) getByte(i int) byte {
	lo := b.bits[i] >> b.offset
	var hi byte
	if i+1 < len(b.bits) {
		hi = b.bits[i+1] << (blockSize - b.offset)
	}
	r := lo | hi
	overdraw := (i+1)*blockSize - b.len
	if overdraw < 0 {
		overdraw = 0
	}
	return r << overdraw >> overdraw
}
