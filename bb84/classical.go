package bb84

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/qkdlab/bb84sim/bb84/bitstring"
)

// An AuthenticatedChannel is the audit-only facade over the public
// classical channel. It records basis-comparison and error-estimation
// messages in a transcript for human inspection; every result it returns
// is recomputed from data the protocol core already holds, so it can
// never influence a run's outcome.
type AuthenticatedChannel struct {
	transcript []*structpb.Struct
	authKey    []byte
}

// NewAuthenticatedChannel returns an empty audit channel.
func NewAuthenticatedChannel() *AuthenticatedChannel {
	key := sha256.Sum256([]byte("bb84sim-auth-key"))
	return &AuthenticatedChannel{authKey: key[:]}
}

// ExchangeBases compares two basis sequences and returns the indices
// where they match, recording the comparison in the transcript.
func (c *AuthenticatedChannel) ExchangeBases(a, b bitstring.Bits) []int {
	n := min(a.Size(), b.Size())
	var matches []int
	for i := 0; i < n; i++ {
		if a.Get(i) == b.Get(i) {
			matches = append(matches, i)
		}
	}
	c.record("alice", "bob", "BASIS",
		fmt.Sprintf("basis comparison: %d of %d match", len(matches), n))
	return matches
}

// EstimateErrorRate publicly compares two test-bit sequences and returns
// the fraction that disagree, recording the estimate in the transcript.
func (c *AuthenticatedChannel) EstimateErrorRate(a, b bitstring.Bits) (float64, error) {
	if a.Size() != b.Size() {
		return 0, fmt.Errorf("%w: %d != %d", bitstring.ErrLengthMismatch, a.Size(), b.Size())
	}
	if a.Size() == 0 {
		return 0, nil
	}
	mismatches := a.XOr(b).CountOnes()
	rate := float64(mismatches) / float64(a.Size())
	c.record("alice", "bob", "ERROR",
		fmt.Sprintf("error estimation: %d/%d = %.3f", mismatches, a.Size(), rate))
	return rate, nil
}

// ComputeMAC returns the hex HMAC-SHA-256 tag of msg under this channel's
// authentication key.
func (c *AuthenticatedChannel) ComputeMAC(msg string) string {
	mac := hmac.New(sha256.New, c.authKey)
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate reports whether tag is a valid MAC for msg.
func (c *AuthenticatedChannel) Authenticate(msg, tag string) bool {
	return hmac.Equal([]byte(c.ComputeMAC(msg)), []byte(tag))
}

// Transcript returns a copy of the recorded messages.
func (c *AuthenticatedChannel) Transcript() []*structpb.Struct {
	t := make([]*structpb.Struct, len(c.transcript))
	copy(t, c.transcript)
	return t
}

// MarshalTranscript serializes the transcript for export.
func (c *AuthenticatedChannel) MarshalTranscript() ([]byte, error) {
	list := &structpb.ListValue{}
	for _, entry := range c.transcript {
		list.Values = append(list.Values, structpb.NewStructValue(entry))
	}
	return proto.Marshal(list)
}

// Summary counts transcript entries by message type.
func (c *AuthenticatedChannel) Summary() map[string]int {
	counts := make(map[string]int)
	for _, entry := range c.transcript {
		counts[entry.Fields["type"].GetStringValue()]++
	}
	return counts
}

func (c *AuthenticatedChannel) record(sender, receiver, kind, body string) {
	entry, err := structpb.NewStruct(map[string]interface{}{
		"sender":   sender,
		"receiver": receiver,
		"type":     kind,
		"body":     body,
		"at":       time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	c.transcript = append(c.transcript, entry)
	logrus.WithFields(logrus.Fields{
		"sender":   sender,
		"receiver": receiver,
		"type":     kind,
	}).Debug(body)
}
