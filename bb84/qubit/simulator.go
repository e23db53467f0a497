package qubit

import (
	"golang.org/x/exp/rand"
)

// A Measurement records a single measurement event: the state as it was
// measured, the basis used, and the observed result.
type Measurement struct {
	State  State
	Basis  Basis
	Result int
}

// A Simulator performs probabilistic measurements. Each instance owns its
// randomness source and an append-only measurement log, so concurrent
// protocol runs with private simulators stay independent and, with seeded
// sources, reproducible.
type Simulator struct {
	rng     *rand.Rand
	history []Measurement
}

// NewSimulator returns a Simulator drawing measurement outcomes from rng.
func NewSimulator(rng *rand.Rand) *Simulator {
	return &Simulator{rng: rng}
}

// Measure collapses state in the given basis and returns the observed
// bit. The outcome is drawn from the Born probability of the state; the
// event is recorded in the measurement log.
func (s *Simulator) Measure(state State, basis Basis) int {
	p0, _ := Probabilities(state, basis)
	result := 1
	if s.rng.Float64() < p0 {
		result = 0
	}
	s.history = append(s.history, Measurement{State: state, Basis: basis, Result: result})
	return result
}

// Eavesdrop models an intercept-resend attack. The eavesdropper picks a
// basis uniformly at random, measures (collapsing the state), and forwards
// a fresh state prepared from her own basis and result. No-cloning means
// she cannot copy the original: whenever her basis differs from the
// sender's, the forwarded state disagrees with the intended one, which is
// the disturbance the protocol detects.
func (s *Simulator) Eavesdrop(state State) (int, State) {
	basis := Rectilinear
	if s.rng.Uint64()&1 == 1 {
		basis = Diagonal
	}
	result := s.Measure(state, basis)
	resent, _ := Prepare(result, basis) // result is always 0 or 1
	return result, resent
}

// History returns a copy of the measurement log.
func (s *Simulator) History() []Measurement {
	h := make([]Measurement, len(s.history))
	copy(h, s.history)
	return h
}

// MeasurementStats summarizes the measurement log.
type MeasurementStats struct {
	Total       int
	Rectilinear int
	Diagonal    int

	// Fraction of 0 results per basis, 0 when that basis is unused.
	RectilinearZeroRate float64
	DiagonalZeroRate    float64
}

// Stats aggregates the measurement log by basis.
func (s *Simulator) Stats() MeasurementStats {
	var st MeasurementStats
	var rectZeros, diagZeros int
	for _, m := range s.history {
		st.Total++
		switch m.Basis {
		case Rectilinear:
			st.Rectilinear++
			if m.Result == 0 {
				rectZeros++
			}
		case Diagonal:
			st.Diagonal++
			if m.Result == 0 {
				diagZeros++
			}
		}
	}
	if st.Rectilinear > 0 {
		st.RectilinearZeroRate = float64(rectZeros) / float64(st.Rectilinear)
	}
	if st.Diagonal > 0 {
		st.DiagonalZeroRate = float64(diagZeros) / float64(st.Diagonal)
	}
	return st
}
