package bb84

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/qkdlab/bb84sim/bb84/bitstring"
)

// DefaultMaxPasses is the number of cascade passes performed when the
// error rate does not reach zero earlier.
const DefaultMaxPasses = 4

// A Session records the outcome of one correction run. Sessions are
// appended to a per-instance, append-only history.
type Session struct {
	InitialErrors int
	FinalErrors   int
	PassesUsed    int
	KeyLength     int
}

// A Cascade reconciles two noisy bit strings with a multi-pass parity
// scheme. Each pass scans the key in blocks of 2^pass bits and, when the
// parties' block parities disagree, flips the receiver's first bit that
// differs from the sender's. A block holding several residual
// disagreements is only partially repaired in that pass; full Cascade
// would binary-search every mismatching block instead.
//
// The sender's key is used as a comparison oracle, where real Cascade
// discloses only parity bits.
type Cascade struct {
	// MaxPasses bounds the number of passes. Defaults to
	// DefaultMaxPasses via NewCascade.
	MaxPasses int

	history []Session
}

// NewCascade returns a Cascade with the default pass bound and an empty
// history.
func NewCascade() *Cascade {
	return &Cascade{MaxPasses: DefaultMaxPasses}
}

// Correct reconciles receiver against sender and returns the corrected
// receiver key. The inputs must have equal length. Passes stop early once
// the whole-key error rate reaches zero; the session is recorded in the
// history either way.
func (c *Cascade) Correct(receiver, sender bitstring.Bits) (bitstring.Bits, error) {
	if receiver.Size() != sender.Size() {
		return bitstring.Empty(), fmt.Errorf("%w: %d != %d",
			bitstring.ErrLengthMismatch, receiver.Size(), sender.Size())
	}
	work := receiver.Clone()
	n := work.Size()
	initial := work.XOr(sender).CountOnes()

	passes := 0
	for pass := 0; pass < c.MaxPasses; pass++ {
		passes = pass + 1
		blockSize := 1 << pass
		corrections := 0
		for i := 0; i < n; i += blockSize {
			end := min(i+blockSize, n)
			if blockParity(work, i, end) == blockParity(sender, i, end) {
				continue
			}
			// Parities disagree, so the block holds an odd number of
			// errors; repair the first one.
			for j := i; j < end; j++ {
				if work.Get(j) != sender.Get(j) {
					work.Set(j, sender.Get(j))
					corrections++
					break
				}
			}
		}
		remaining := work.XOr(sender).CountOnes()
		logrus.WithFields(logrus.Fields{
			"pass":             passes,
			"block_size":       blockSize,
			"corrections":      corrections,
			"remaining_errors": remaining,
		}).Debug("cascade pass complete")
		if remaining == 0 {
			break
		}
	}

	final := work.XOr(sender).CountOnes()
	c.history = append(c.history, Session{
		InitialErrors: initial,
		FinalErrors:   final,
		PassesUsed:    passes,
		KeyLength:     n,
	})
	return work, nil
}

// History returns a copy of the recorded correction sessions.
func (c *Cascade) History() []Session {
	h := make([]Session, len(c.history))
	copy(h, c.history)
	return h
}

// ErrorRate returns the fraction of positions where a and b disagree.
// Empty inputs have error rate zero.
func ErrorRate(a, b bitstring.Bits) (float64, error) {
	if a.Size() != b.Size() {
		return 0, fmt.Errorf("%w: %d != %d", bitstring.ErrLengthMismatch, a.Size(), b.Size())
	}
	if a.Size() == 0 {
		return 0, nil
	}
	return float64(a.XOr(b).CountOnes()) / float64(a.Size()), nil
}

func blockParity(b bitstring.Bits, start, end int) bool {
	blk, err := b.Slice(start, end)
	if err != nil {
		return false
	}
	return blk.Parity()
}
