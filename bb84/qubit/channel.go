package qubit

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// noiseAmplitude scales the complex perturbation applied to a state when
// channel noise fires.
const noiseAmplitude = 0.05

// ChannelStats collects the transmission counters of a Channel. Counters
// are mutated only by Transmit.
type ChannelStats struct {
	EavesdropProb      float64
	NoiseLevel         float64
	EavesdropAttempts  int
	TransmissionErrors int
}

// A Channel transmits quantum states, optionally intercepted by an
// eavesdropper and perturbed by noise. The eavesdropper owns a private
// Simulator so her measurement log never mixes with the receiver's.
type Channel struct {
	stats ChannelStats
	eve   *Simulator
	rng   *rand.Rand
	noise distuv.Normal
}

// NewChannel returns a Channel that intercepts each state with probability
// eavesdropProb and perturbs each state with probability noiseLevel.
func NewChannel(eavesdropProb, noiseLevel float64, rng *rand.Rand) *Channel {
	return &Channel{
		stats: ChannelStats{EavesdropProb: eavesdropProb, NoiseLevel: noiseLevel},
		eve:   NewSimulator(rng),
		rng:   rng,
		noise: distuv.Normal{Mu: 0, Sigma: 0.1, Src: rng},
	}
}

// Transmit passes a sequence of states through the channel. Each state is
// first possibly intercepted and resent by the eavesdropper, then,
// independently, possibly perturbed by noise and renormalized.
func (c *Channel) Transmit(states []State) []State {
	out := make([]State, 0, len(states))
	for _, st := range states {
		if c.rng.Float64() < c.stats.EavesdropProb {
			c.stats.EavesdropAttempts++
			_, st = c.eve.Eavesdrop(st)
		}
		if c.rng.Float64() < c.stats.NoiseLevel {
			c.stats.TransmissionErrors++
			st = c.perturb(st)
		}
		out = append(out, st)
	}
	logrus.WithFields(logrus.Fields{
		"states":       len(states),
		"eavesdropped": c.stats.EavesdropAttempts,
		"noise_events": c.stats.TransmissionErrors,
	}).Debug("quantum transmission complete")
	return out
}

func (c *Channel) perturb(st State) State {
	st.Zero += c.complexNoise()
	st.One += c.complexNoise()
	return st.Normalize()
}

func (c *Channel) complexNoise() complex128 {
	return complex(c.noise.Rand(), c.noise.Rand()) * noiseAmplitude
}

// Stats returns a snapshot of the channel counters.
func (c *Channel) Stats() ChannelStats {
	return c.stats
}

// AverageFidelity returns the mean squared overlap between corresponding
// states of the two sequences. It is a diagnostic: protocol decisions
// never depend on it. Two empty sequences are vacuously identical.
func AverageFidelity(sent, received []State) (float64, error) {
	if len(sent) != len(received) {
		return 0, fmt.Errorf("state sequences differ in length: %d != %d", len(sent), len(received))
	}
	if len(sent) == 0 {
		return 1, nil
	}
	var total float64
	for i := range sent {
		total += sent[i].Fidelity(received[i])
	}
	return total / float64(len(sent)), nil
}
