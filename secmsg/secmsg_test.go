package secmsg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "1011001110001011001101011101001101011101"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	msg := []byte("attack at dawn")
	env, err := c.Encrypt(msg)
	require.NoError(t, err)
	assert.NotEqual(t, msg, env.Ciphertext)

	got, err := c.Decrypt(env)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestDecryptRejectsTampering(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	env, err := c.Encrypt([]byte("attack at dawn"))
	require.NoError(t, err)
	env.Ciphertext[0] ^= 0x01

	_, err = c.Decrypt(env)
	assert.Error(t, err)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	c1, err := NewCipher(testKey)
	require.NoError(t, err)
	c2, err := NewCipher("0101010101")
	require.NoError(t, err)

	env, err := c1.Encrypt([]byte("attack at dawn"))
	require.NoError(t, err)

	_, err = c2.Decrypt(env)
	assert.Error(t, err)
}

func TestSameKeyInteroperates(t *testing.T) {
	c1, err := NewCipher(testKey)
	require.NoError(t, err)
	c2, err := NewCipher(testKey)
	require.NoError(t, err)

	env, err := c1.Encrypt([]byte("rendezvous at the usual place"))
	require.NoError(t, err)

	got, err := c2.Decrypt(env)
	require.NoError(t, err)
	assert.Equal(t, "rendezvous at the usual place", string(got))
}

func TestNewCipherValidation(t *testing.T) {
	_, err := NewCipher("")
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = NewCipher("01012")
	assert.ErrorIs(t, err, ErrNotBinary)

	// Short keys are repeated out to the KDF width.
	c, err := NewCipher("1")
	require.NoError(t, err)
	env, err := c.Encrypt([]byte("x"))
	require.NoError(t, err)
	got, err := c.Decrypt(env)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestExpandKey(t *testing.T) {
	packed, err := expandKey(strings.Repeat("1", 8))
	require.NoError(t, err)
	require.Len(t, packed, 32)
	for _, b := range packed {
		assert.Equal(t, byte(0xff), b)
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "plain.txt.enc")
	dec := filepath.Join(dir, "plain.txt.dec")
	require.NoError(t, os.WriteFile(src, []byte("file contents"), 0o600))

	c, err := NewCipher(testKey)
	require.NoError(t, err)
	require.NoError(t, c.EncryptFile(src, enc))
	require.NoError(t, c.DecryptFile(enc, dec))

	got, err := os.ReadFile(dec)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(got))
}
