package secrets

import (
	"bytes"
	"testing"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := NewFileKey()
	require.NoError(t, err)

	payloads := [][]byte{
		{},
		[]byte("x"),
		[]byte("SECRET=value\nANOTHER_SECRET=123\n"),
		bytes.Repeat([]byte{0xab}, 64*1024),
	}

	for _, plaintext := range payloads {
		payload, err := Encrypt(key, plaintext)
		require.NoError(t, err)
		assert.Len(t, payload, NonceSize+len(plaintext)+16)

		got, err := Decrypt(key, payload)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	key, err := NewFileKey()
	require.NoError(t, err)

	a, err := Encrypt(key, []byte("same"))
	require.NoError(t, err)
	b, err := Encrypt(key, []byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a[:NonceSize], b[:NonceSize])
	assert.NotEqual(t, a, b)
}

func TestDecryptDetectsEveryBitFlip(t *testing.T) {
	key, err := NewFileKey()
	require.NoError(t, err)

	payload, err := Encrypt(key, []byte("SECRET=value"))
	require.NoError(t, err)

	for i := range payload {
		for bit := 0; bit < 8; bit++ {
			tampered := bytes.Clone(payload)
			tampered[i] ^= 1 << bit

			got, err := Decrypt(key, tampered)
			require.ErrorIsf(t, err, kerrors.ErrDecryptFailed, "byte %d bit %d", i, bit)
			require.Nil(t, got)
		}
	}
}

func TestDecryptFailuresAreIndistinguishable(t *testing.T) {
	key, err := NewFileKey()
	require.NoError(t, err)
	otherKey, err := NewFileKey()
	require.NoError(t, err)

	payload, err := Encrypt(key, []byte("SECRET=value"))
	require.NoError(t, err)

	_, shortErr := Decrypt(key, payload[:NonceSize-1])
	_, truncatedErr := Decrypt(key, payload[:len(payload)-1])
	_, wrongKeyErr := Decrypt(otherKey, payload)

	assert.ErrorIs(t, shortErr, kerrors.ErrAuthentication)
	assert.Equal(t, shortErr, truncatedErr)
	assert.Equal(t, shortErr, wrongKeyErr)
}

func TestEncryptRejectsBadKeyLength(t *testing.T) {
	_, err := Encrypt(make([]byte, 16), []byte("data"))
	assert.ErrorIs(t, err, kerrors.ErrInvalidKeyLength)

	_, err = Decrypt(make([]byte, 31), make([]byte, 64))
	assert.ErrorIs(t, err, kerrors.ErrInvalidKeyLength)
}

func TestDeriveKEK(t *testing.T) {
	salt := bytes.Repeat([]byte{1}, SaltSize)

	a := DeriveKEK([]byte("Sup3rSecret!"), salt)
	b := DeriveKEK([]byte("Sup3rSecret!"), salt)
	require.Len(t, a, KeySize)
	assert.Equal(t, a, b, "same password and salt must give the same KEK")

	otherSalt := bytes.Repeat([]byte{2}, SaltSize)
	assert.NotEqual(t, a, DeriveKEK([]byte("Sup3rSecret!"), otherSalt))
	assert.NotEqual(t, a, DeriveKEK([]byte("sup3rSecret!"), salt))
}

func TestNewSalt(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)

	assert.Len(t, a, SaltSize)
	assert.NotEqual(t, a, b)
}
