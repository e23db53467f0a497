// Package secmsg provides authenticated encryption under keys negotiated
// with the bb84 package. The negotiated key, a binary digit string, is
// stretched to a fixed width and run through a KDF before keying
// AES-256-GCM; the package never inspects how the key was produced.
package secmsg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// keyBits is the minimum key-material width fed to the KDF. Shorter
	// negotiated keys are repeated out to this width.
	keyBits = 256

	keyDomain = "qkdsim-msg-key-v1"
)

var (
	// ErrEmptyKey reports an empty negotiated key.
	ErrEmptyKey = errors.New("quantum key must not be empty")

	// ErrNotBinary reports a negotiated key holding characters other
	// than 0 and 1.
	ErrNotBinary = errors.New("quantum key must be a binary digit string")
)

// An Envelope carries one encrypted message. Ciphertext includes the GCM
// integrity tag.
type Envelope struct {
	Nonce      []byte
	Ciphertext []byte
}

// A Cipher encrypts and decrypts messages under a key derived from a
// negotiated quantum key.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives an AES-256-GCM cipher from quantumKey, a non-empty
// binary digit string such as produced by a successful BB84 run.
func NewCipher(quantumKey string) (*Cipher, error) {
	material, err := expandKey(quantumKey)
	if err != nil {
		return nil, err
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, []byte(keyDomain)), key); err != nil {
		return nil, fmt.Errorf("deriving message key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext []byte) (Envelope, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, fmt.Errorf("generating nonce: %w", err)
	}
	return Envelope{
		Nonce:      nonce,
		Ciphertext: c.aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Decrypt opens an envelope. A tampered or mis-keyed envelope yields an
// error and no plaintext, never unauthenticated output.
func (c *Cipher) Decrypt(env Envelope) ([]byte, error) {
	plaintext, err := c.aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	return plaintext, nil
}

// EncryptFile seals the contents of src into dst, framed as nonce
// followed by ciphertext.
func (c *Cipher) EncryptFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	env, err := c.Encrypt(data)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, append(env.Nonce, env.Ciphertext...), 0o600)
}

// DecryptFile opens a file written by EncryptFile.
func (c *Cipher) DecryptFile(src, dst string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return errors.New("ciphertext shorter than nonce")
	}
	plaintext, err := c.Decrypt(Envelope{Nonce: raw[:ns], Ciphertext: raw[ns:]})
	if err != nil {
		return err
	}
	return os.WriteFile(dst, plaintext, 0o600)
}

// expandKey validates the negotiated key, repeats it out to keyBits bits,
// and packs it into bytes.
func expandKey(quantumKey string) ([]byte, error) {
	if quantumKey == "" {
		return nil, ErrEmptyKey
	}
	for _, r := range quantumKey {
		if r != '0' && r != '1' {
			return nil, fmt.Errorf("%w: found %q", ErrNotBinary, r)
		}
	}
	repeats := (keyBits + len(quantumKey) - 1) / len(quantumKey)
	expanded := strings.Repeat(quantumKey, repeats)[:keyBits]

	packed := make([]byte, 0, keyBits/8)
	for i := 0; i < keyBits; i += 8 {
		b, err := strconv.ParseUint(expanded[i:i+8], 2, 8)
		if err != nil {
			return nil, err
		}
		packed = append(packed, byte(b))
	}
	return packed, nil
}
