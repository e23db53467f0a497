package bitstring

import (
	"bytes"
	"testing"
)

func TestXOr(t *testing.T) {
	tcs := []struct {
		name string
		a    Bits
		b    Bits
		eout Bits
	}{
		{
			name: "aligned",
			a:    Bits{bits: []byte{0b101}, len: 8},
			b:    Bits{bits: []byte{0b110}, len: 8},
			eout: Bits{bits: []byte{0b011}, len: 8},
		}, {
			name: "short a",
			a:    Bits{bits: []byte{0b101}, len: 8},
			b:    Bits{bits: []byte{0b110, 0b1}, len: 9},
			eout: Bits{bits: []byte{0b011, 0b1}, len: 9},
		}, {
			name: "short b",
			a:    Bits{bits: []byte{0b101, 0b1}, len: 9},
			b:    Bits{bits: []byte{0b110}, len: 8},
			eout: Bits{bits: []byte{0b011, 0b1}, len: 9},
		}, {
			name: "empty a",
			b:    Bits{bits: []byte{0b110}, len: 8},
			eout: Bits{bits: []byte{0b110}, len: 8},
		}, {
			name: "empty b",
			a:    Bits{bits: []byte{0b110}, len: 8},
			eout: Bits{bits: []byte{0b110}, len: 8},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.a.XOr(tc.b)
			if out.len != tc.eout.len {
				t.Errorf("got bit sequence of len %d, want %d", out.len, tc.eout.len)
			}
			if !bytes.Equal(out.bits, tc.eout.bits) {
				t.Errorf("xor(%v, %v) == %v, want %v", tc.a.bits, tc.b.bits, out.bits, tc.eout.bits)
			}
		})
	}
}

func TestXNor(t *testing.T) {
	tcs := []struct {
		name string
		a    Bits
		b    Bits
		eout Bits
	}{
		{
			name: "aligned",
			a:    Bits{bits: []byte{0b00000101}, len: 8},
			b:    Bits{bits: []byte{0b00000110}, len: 8},
			eout: Bits{bits: []byte{0b11111100}, len: 8},
		}, {
			name: "short a",
			a:    Bits{bits: []byte{0b00000101}, len: 8},
			b:    Bits{bits: []byte{0b00000110, 0b10}, len: 10},
			eout: Bits{bits: []byte{0b11111100, 0b11111101}, len: 10},
		}, {
			name: "short b",
			a:    Bits{bits: []byte{0b00000110, 0b10}, len: 10},
			b:    Bits{bits: []byte{0b00000101}, len: 8},
			eout: Bits{bits: []byte{0b11111100, 0b11111101}, len: 10},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.a.XNor(tc.b)
			if out.len != tc.eout.len {
				t.Errorf("got bit sequence of len %d, want %d", out.len, tc.eout.len)
			}
			if !bytes.Equal(out.bits, tc.eout.bits) {
				t.Errorf("xnor(%v, %v) == %v, want %v", tc.a.bits, tc.b.bits, out.bits, tc.eout.bits)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	tcs := []struct {
		name string
		bits Bits
		mask Bits
		eout Bits
	}{
		{
			name: "all",
			bits: Bits{bits: []byte{0b11101101}, len: 8},
			mask: Bits{bits: []byte{0b11111111}, len: 8},
			eout: Bits{bits: []byte{0b11101101}, len: 8},
		}, {
			name: "none",
			bits: Bits{bits: []byte{0b1101101}, len: 8},
		}, {
			name: "some",
			bits: Bits{bits: []byte{0b11101101, 0b0010101}, len: 13},
			mask: Bits{bits: []byte{0b10001011, 0b0101011}, len: 15},
			eout: Bits{bits: []byte{0b0011101}, len: 7},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.bits.Select(tc.mask)
			if out.len != tc.eout.len {
				t.Errorf("got bit sequence of len %d, want %d", out.len, tc.eout.len)
			}
			if !bytes.Equal(out.bits, tc.eout.bits) {
				t.Errorf("select(%v, %v) == %v, want %v", tc.bits.bits, tc.mask.bits, out.bits, tc.eout.bits)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	tcs := []struct {
		name  string
		start int
		end   int
		bits  Bits
		eout  Bits
	}{
		{
			name:  "full slice",
			bits:  Bits{bits: []byte{0b11101101}, len: 8},
			start: 0,
			end:   8,
			eout:  Bits{bits: []byte{0b11101101}, len: 8},
		}, {
			name: "empty slice",
			bits: Bits{bits: []byte{0b11101101}, len: 8},
		}, {
			name:  "aligned",
			bits:  Bits{bits: []byte{0b1, 0b11101101, 0b1}, len: 24},
			start: 8,
			end:   16,
			eout:  Bits{bits: []byte{0b11101101}, len: 8},
		}, {
			name:  "unaligned start",
			bits:  Bits{bits: []byte{0b10, 0b1, 0b1}, len: 24},
			start: 1,
			end:   16,
			eout:  Bits{bits: []byte{0b10000001, 0}, len: 15},
		}, {
			name:  "unaligned end",
			bits:  Bits{bits: []byte{0b11111111, 0, 0b1}, len: 24},
			start: 8,
			end:   17,
			eout:  Bits{bits: []byte{0, 0b1}, len: 9},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			sArr, err := tc.bits.Slice(tc.start, tc.end)
			if err != nil {
				t.Fatalf("slice(%d, %d) = %v, want nil error", tc.start, tc.end, err)
			}
			if sArr.len != tc.eout.len {
				t.Errorf("got bit sequence of len %d, want %d", sArr.len, tc.eout.len)
			}
			sData := sArr.Data()
			eData := tc.eout.Data()
			if !bytes.Equal(sData, eData) {
				t.Errorf("slice(%v, %d, %d) == %v, want %v", tc.bits.bits, tc.start, tc.end, sData, eData)
			}
		})
	}
}

func TestParseStringRoundTrip(t *testing.T) {
	tcs := []string{"", "0", "1", "0101", "111000111000", "010101010101010101010"}
	for _, s := range tcs {
		b, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) = %v, want nil error", s, err)
		}
		if b.Size() != len(s) {
			t.Errorf("Parse(%q).Size() == %d, want %d", s, b.Size(), len(s))
		}
		if got := b.String(); got != s {
			t.Errorf("Parse(%q).String() == %q", s, got)
		}
	}
	if _, err := Parse("01012"); err == nil {
		t.Error("Parse accepted a non-binary digit")
	}
}

func TestSetFlip(t *testing.T) {
	b := New([]byte{0b0000}, 4)
	b.Set(2, true)
	if got := b.String(); got != "0010" {
		t.Errorf("after Set(2): %q, want 0010", got)
	}
	b.Flip(2)
	b.Flip(0)
	if got := b.String(); got != "1000" {
		t.Errorf("after flips: %q, want 1000", got)
	}
	b.Set(17, true) // out of range, ignored
	if b.Size() != 4 {
		t.Errorf("out-of-range Set changed size to %d", b.Size())
	}
}

func TestParityCountOnes(t *testing.T) {
	tcs := []struct {
		in      string
		ones    int
		eparity bool
	}{
		{in: "", ones: 0, eparity: false},
		{in: "0000", ones: 0, eparity: false},
		{in: "0100", ones: 1, eparity: true},
		{in: "1111", ones: 4, eparity: false},
		{in: "101010101", ones: 5, eparity: true},
	}
	for _, tc := range tcs {
		b, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got := b.CountOnes(); got != tc.ones {
			t.Errorf("CountOnes(%q) == %d, want %d", tc.in, got, tc.ones)
		}
		if got := b.Parity(); got != tc.eparity {
			t.Errorf("Parity(%q) == %v, want %v", tc.in, got, tc.eparity)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig, _ := Parse("1100")
	cp := orig.Clone()
	cp.Flip(0)
	if !orig.Equal(mustParse(t, "1100")) {
		t.Errorf("mutating a clone changed the original: %q", orig)
	}
	if cp.Equal(orig) {
		t.Error("clone still equal after flip")
	}
}

func mustParse(t *testing.T, s string) Bits {
	t.Helper()
	b, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return b
}
