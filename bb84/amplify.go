package bb84

import "github.com/qkdlab/bb84sim/bb84/bitstring"

// Amplify compresses a reconciled key to reduce an eavesdropper's
// residual information: adjacent bit pairs are XORed into single output
// bits, halving the key. A trailing unpaired bit is dropped; keys shorter
// than two bits pass through unchanged.
//
// This is a stateless approximation of privacy amplification, not a
// universal-hashing extractor, and carries no formal security bound.
func Amplify(key bitstring.Bits) bitstring.Bits {
	if key.Size() < 2 {
		return key
	}
	var out bitstring.Bits
	for i := 0; i+1 < key.Size(); i += 2 {
		out.AppendBit(key.Get(i) != key.Get(i+1))
	}
	return out
}
