package bb84

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/qkdlab/bb84sim/bb84/bitstring"
	"github.com/qkdlab/bb84sim/bb84/qubit"
)

// Run executes one full protocol round: key-material generation, state
// preparation, transmission, measurement, sifting, QBER estimation, the
// security-threshold decision, error correction, and privacy
// amplification. Faults never escape: errors and panics alike are
// converted into a failed Outcome carrying the last computed QBER.
func (p *Protocol) Run() (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = p.failed(fmt.Errorf("internal fault: %v", r))
		}
	}()
	p.qber = 0
	p.sifted = 0

	aliceBits := p.generate()
	aliceBases := p.generate()
	bobBases := p.generate()
	logrus.WithFields(logrus.Fields{
		"key_length": p.keyLength,
		"eavesdrop":  p.eavesdropProb,
		"noise":      p.noiseLevel,
	}).Debug("generated bits and bases")

	states, err := p.prepare(aliceBits, aliceBases)
	if err != nil {
		return p.failed(err)
	}

	received := p.channel.Transmit(states)

	bobBits := p.measure(received, bobBases)

	aliceSifted, bobSifted := sift(aliceBits, bobBits, aliceBases, bobBases)
	p.sifted = aliceSifted.Size()
	logrus.WithField("sifted_bits", p.sifted).Debug("basis reconciliation complete")

	p.qber = estimateQBER(aliceSifted, bobSifted)
	p.auditTrail(aliceBases, bobBases, aliceSifted, bobSifted)

	if p.qber > SecurityThreshold {
		logrus.WithFields(logrus.Fields{
			"qber":      p.qber,
			"threshold": SecurityThreshold,
		}).Info("aborting negotiation: QBER above security threshold")
		return p.failed(ErrThresholdExceeded)
	}

	corrected, err := p.corrector.Correct(bobSifted, aliceSifted)
	if err != nil {
		return p.failed(err)
	}

	final := Amplify(corrected)
	stats := p.stats(final.Size())
	logrus.WithFields(logrus.Fields{
		"qber":       p.qber,
		"final_bits": stats.FinalBits,
		"efficiency": stats.Efficiency,
	}).Info("negotiation complete")
	return Outcome{
		Success:  true,
		FinalKey: final,
		QBER:     p.qber,
		Stats:    stats,
	}
}

// generate draws keyLength uniform random bits.
func (p *Protocol) generate() bitstring.Bits {
	buf := make([]byte, bitstring.BytesFor(p.keyLength))
	p.rng.Read(buf)
	return bitstring.New(buf, p.keyLength)
}

func (p *Protocol) prepare(bits, bases bitstring.Bits) ([]qubit.State, error) {
	states := make([]qubit.State, 0, bits.Size())
	for i := 0; i < bits.Size(); i++ {
		st, err := qubit.Prepare(bitVal(bits.Get(i)), basisAt(bases, i))
		if err != nil {
			return nil, fmt.Errorf("preparing qubit %d: %w", i, err)
		}
		states = append(states, st)
	}
	return states, nil
}

func (p *Protocol) measure(states []qubit.State, bases bitstring.Bits) bitstring.Bits {
	var bits bitstring.Bits
	for i, st := range states {
		bits.AppendBit(p.sim.Measure(st, basisAt(bases, i)) == 1)
	}
	return bits
}

// sift keeps the positions where both parties chose the same basis. The
// two returned sequences always have equal length.
func sift(aliceBits, bobBits, aliceBases, bobBases bitstring.Bits) (alice, bob bitstring.Bits) {
	mask := aliceBases.XNor(bobBases)
	return aliceBits.Select(mask), bobBits.Select(mask)
}

// estimateQBER compares the leading test window of the two sifted keys.
// An empty sifted key is total failure, QBER 1. The test bits stay in the
// key afterwards, matching the system this simulator models; real QKD
// discards them.
func estimateQBER(alice, bob bitstring.Bits) float64 {
	if alice.Size() == 0 {
		return 1
	}
	n := testWindow(alice.Size())
	mismatches := 0
	for i := 0; i < n; i++ {
		if alice.Get(i) != bob.Get(i) {
			mismatches++
		}
	}
	return float64(mismatches) / float64(n)
}

// testWindow returns the number of leading sifted bits sampled for error
// estimation: half the key, at least one bit.
func testWindow(sifted int) int {
	if sifted == 0 {
		return 0
	}
	n := sifted / 2
	if n < 1 {
		n = 1
	}
	return n
}

// auditTrail echoes the basis comparison and error estimate over the
// audit channel. Its results are recomputed from data the pipeline
// already holds and never feed back into protocol decisions.
func (p *Protocol) auditTrail(aliceBases, bobBases, aliceSifted, bobSifted bitstring.Bits) {
	p.audit.ExchangeBases(aliceBases, bobBases)
	n := testWindow(aliceSifted.Size())
	if n == 0 {
		return
	}
	aTest, err := aliceSifted.Slice(0, n)
	if err != nil {
		return
	}
	bTest, err := bobSifted.Slice(0, n)
	if err != nil {
		return
	}
	p.audit.EstimateErrorRate(aTest, bTest)
}

func (p *Protocol) stats(finalBits int) Stats {
	var efficiency float64
	if p.keyLength > 0 {
		efficiency = float64(finalBits) / float64(p.keyLength) * 100
	}
	return Stats{
		InitialBits:   p.keyLength,
		SiftedBits:    p.sifted,
		FinalBits:     finalBits,
		Efficiency:    efficiency,
		EavesdropProb: p.eavesdropProb,
		MatchingBases: p.sifted,
	}
}

func (p *Protocol) failed(err error) Outcome {
	return Outcome{
		QBER:  p.qber,
		Stats: p.stats(0),
		Err:   err,
	}
}

func bitVal(b bool) int {
	if b {
		return 1
	}
	return 0
}

func basisAt(bases bitstring.Bits, i int) qubit.Basis {
	if bases.Get(i) {
		return qubit.Diagonal
	}
	return qubit.Rectilinear
}
