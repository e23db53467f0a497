// Package bb84 simulates the BB84 quantum key distribution protocol: it
// turns randomly chosen bits and bases into a verified, corrected, and
// compressed shared key, together with a pass/fail security verdict based
// on the observed quantum bit error rate.
package bb84

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/qkdlab/bb84sim/bb84/bitstring"
	"github.com/qkdlab/bb84sim/bb84/qubit"
)

const (
	// SecurityThreshold is the QBER above which a run is presumed
	// compromised and aborted.
	SecurityThreshold = 0.12

	// DefaultNoiseLevel is the channel noise probability used when Opts
	// leaves NoiseLevel zero.
	DefaultNoiseLevel = 0.01
)

// ErrThresholdExceeded marks a run aborted because the estimated QBER
// crossed SecurityThreshold. It is the normal negative outcome of
// eavesdropping detection, not a fault.
var ErrThresholdExceeded = errors.New("QBER exceeds security threshold")

// Stats packages together a collection of metrics pertaining to one
// protocol run.
type Stats struct {
	InitialBits int
	SiftedBits  int
	FinalBits   int

	// Efficiency is FinalBits over InitialBits, as a percentage.
	Efficiency float64

	EavesdropProb float64
	MatchingBases int
}

// An Outcome is the structured result of a protocol run. Failures are
// reported by value: Success false with Err set, never by a fault
// escaping Run.
type Outcome struct {
	Success  bool
	FinalKey bitstring.Bits
	QBER     float64
	Stats    Stats

	// Err reports why a run failed. ErrThresholdExceeded is the expected
	// negative outcome when eavesdropping is detected; anything else is
	// an internal fault converted at the Run boundary. Nil on success.
	Err error
}

// An Opts packages together the arguments necessary to construct a new
// Protocol.
type Opts struct {
	// KeyLength is the number of qubits exchanged per run. Must be
	// positive.
	KeyLength int

	// EavesdropProb is the per-qubit probability of interception in the
	// quantum channel. Must lie in [0, 1].
	EavesdropProb float64

	// NoiseLevel is the per-qubit probability of channel noise. Zero
	// selects DefaultNoiseLevel; a negative value disables noise.
	NoiseLevel float64

	// Rand provides the randomness for key material, measurement
	// outcomes, and channel events. Seed it for reproducible runs. Must
	// be non-nil.
	Rand *rand.Rand
}

// A Protocol coordinates full BB84 runs. Each instance owns private
// simulator, channel, corrector, and audit-channel state; measurement and
// correction histories accumulate across runs and are never implicitly
// cleared.
type Protocol struct {
	keyLength     int
	eavesdropProb float64
	noiseLevel    float64

	rng       *rand.Rand
	sim       *qubit.Simulator
	channel   *qubit.Channel
	corrector *Cascade
	audit     *AuthenticatedChannel

	qber   float64
	sifted int
}

// New returns a Protocol configured in accordance with opts, or an error
// if the options are nonsensical.
func New(opts Opts) (*Protocol, error) {
	if opts.KeyLength <= 0 {
		return nil, fmt.Errorf("key length must be positive, got %d", opts.KeyLength)
	}
	if opts.EavesdropProb < 0 || opts.EavesdropProb > 1 {
		return nil, fmt.Errorf("eavesdrop probability must lie in [0, 1], got %v", opts.EavesdropProb)
	}
	if opts.Rand == nil {
		return nil, errors.New("must provide Rand")
	}
	noise := opts.NoiseLevel
	if noise == 0 {
		noise = DefaultNoiseLevel
	} else if noise < 0 {
		noise = 0
	}
	if noise > 1 {
		return nil, fmt.Errorf("noise level must not exceed 1, got %v", noise)
	}
	return &Protocol{
		keyLength:     opts.KeyLength,
		eavesdropProb: opts.EavesdropProb,
		noiseLevel:    noise,
		rng:           opts.Rand,
		sim:           qubit.NewSimulator(opts.Rand),
		channel:       qubit.NewChannel(opts.EavesdropProb, noise, opts.Rand),
		corrector:     NewCascade(),
		audit:         NewAuthenticatedChannel(),
	}, nil
}

// ChannelStats returns the quantum channel's transmission counters.
func (p *Protocol) ChannelStats() qubit.ChannelStats {
	return p.channel.Stats()
}

// CorrectionHistory returns the per-instance log of correction sessions.
func (p *Protocol) CorrectionHistory() []Session {
	return p.corrector.History()
}

// Audit returns the audit-only classical channel for this instance.
func (p *Protocol) Audit() *AuthenticatedChannel {
	return p.audit
}
