// Package qubit simulates preparation, transmission, and measurement of
// single-qubit states in the two conjugate bases of the BB84 protocol.
package qubit

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrInvalidBit reports a logical bit value outside {0, 1}.
var ErrInvalidBit = errors.New("bit must be 0 or 1")

// A Basis identifies one of the two conjugate measurement bases.
type Basis int

const (
	// Rectilinear is the computational basis {|0>, |1>}.
	Rectilinear Basis = iota
	// Diagonal is the Hadamard-transformed basis {|+>, |->}.
	Diagonal
)

func (b Basis) String() string {
	switch b {
	case Rectilinear:
		return "rectilinear"
	case Diagonal:
		return "diagonal"
	}
	return fmt.Sprintf("Basis(%d)", int(b))
}

// A State is a single-qubit state expressed as amplitudes over the
// computational basis. Its squared norm is kept at 1; any operation that
// perturbs a state renormalizes it.
type State struct {
	Zero complex128
	One  complex128
}

// Prepare encodes a logical bit in the given basis. Basis states of the
// two bases are each other's Hadamard transforms, so the diagonal states
// are derived from the rectilinear ones in closed form.
func Prepare(bit int, basis Basis) (State, error) {
	if bit != 0 && bit != 1 {
		return State{}, fmt.Errorf("%w: got %d", ErrInvalidBit, bit)
	}
	s := State{Zero: 1}
	if bit == 1 {
		s = State{One: 1}
	}
	if basis == Diagonal {
		s = s.Hadamard()
	}
	return s, nil
}

// Hadamard applies the basis-change operator between the rectilinear and
// diagonal bases.
func (s State) Hadamard() State {
	inv := complex(1/math.Sqrt2, 0)
	return State{
		Zero: inv * (s.Zero + s.One),
		One:  inv * (s.Zero - s.One),
	}
}

// Norm returns the Euclidean norm of the amplitude vector.
func (s State) Norm() float64 {
	return math.Hypot(cmplx.Abs(s.Zero), cmplx.Abs(s.One))
}

// Normalize rescales s to unit norm. The zero vector is returned
// unchanged, since there is no direction to preserve.
func (s State) Normalize() State {
	n := s.Norm()
	if n == 0 {
		return s
	}
	return State{
		Zero: s.Zero / complex(n, 0),
		One:  s.One / complex(n, 0),
	}
}

// Fidelity returns the squared inner-product overlap |<s|other>|^2, a
// value in [0, 1] for normalized states.
func (s State) Fidelity(other State) float64 {
	ip := cmplx.Conj(s.Zero)*other.Zero + cmplx.Conj(s.One)*other.One
	return math.Pow(cmplx.Abs(ip), 2)
}

// Probabilities returns the Born-rule probabilities of measuring 0 and 1
// in the given basis. For a normalized state the two sum to 1.
func Probabilities(s State, basis Basis) (p0, p1 float64) {
	if basis == Diagonal {
		s = s.Hadamard()
	}
	p0 = math.Pow(cmplx.Abs(s.Zero), 2)
	p1 = math.Pow(cmplx.Abs(s.One), 2)
	return p0, p1
}
