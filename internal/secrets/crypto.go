package secrets

import (
	"crypto/rand"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the size of file keys and KEKs.
	KeySize = 32

	// NonceSize is the secretbox nonce prepended to every payload.
	NonceSize = 24
)

// NewFileKey generates a new random 32-byte symmetric key.
func NewFileKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate file key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under key with XSalsa20-Poly1305.
// The output is nonce || ciphertext, with a fresh random nonce per call.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, KeySize, len(key))
	}

	var k [KeySize]byte
	copy(k[:], key)
	defer wipeArray(&k)

	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return secretbox.Seal(nonce[:], plaintext, &nonce, &k), nil
}

// Decrypt opens a payload produced by Encrypt.
// A truncated payload, a wrong key and a modified payload all return
// ErrDecryptFailed.
func Decrypt(key, payload []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, KeySize, len(key))
	}
	if len(payload) < NonceSize {
		return nil, kerrors.ErrDecryptFailed
	}

	var k [KeySize]byte
	copy(k[:], key)
	defer wipeArray(&k)

	var nonce [NonceSize]byte
	copy(nonce[:], payload[:NonceSize])

	plaintext, ok := secretbox.Open(nil, payload[NonceSize:], &nonce, &k)
	if !ok {
		return nil, kerrors.ErrDecryptFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
