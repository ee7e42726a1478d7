package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/PolarWolf314/ripenv/internal/codec"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

// PublicKey is an X25519 public key.
type PublicKey [KeySize]byte

// PrivateKey is an X25519 private key. Call Wipe once it is no longer needed.
type PrivateKey [KeySize]byte

// GenerateKeyPair creates a new X25519 keypair for use with Seal and Unseal.
func GenerateKeyPair() (*PrivateKey, *PublicKey, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return (*PrivateKey)(priv), (*PublicKey)(pub), nil
}

// ParsePublicKey decodes a base64url public key.
func ParsePublicKey(s string) (*PublicKey, error) {
	raw, err := codec.DecodeFixed(s, KeySize)
	if err != nil {
		return nil, err
	}
	var pk PublicKey
	copy(pk[:], raw)
	return &pk, nil
}

// String returns the base64url encoding used in keyfiles and manifests.
func (k *PublicKey) String() string {
	return codec.Encode(k[:])
}

// Equal compares two public keys in constant time.
func (k *PublicKey) Equal(other *PublicKey) bool {
	if k == nil || other == nil {
		return false
	}
	return subtle.ConstantTimeCompare(k[:], other[:]) == 1
}

// Fingerprint returns a short, human-comparable digest of the key.
func (k *PublicKey) Fingerprint() string {
	sum := sha256.Sum256(k[:])
	return codec.Encode(sum[:9])
}

// Public derives the public half of the keypair.
func (k *PrivateKey) Public() PublicKey {
	var pub PublicKey
	curve25519.ScalarBaseMult((*[KeySize]byte)(&pub), (*[KeySize]byte)(k))
	return pub
}

// Wipe zeroes the key in place and releases any memory lock.
func (k *PrivateKey) Wipe() {
	if k != nil {
		clear(k[:])
		unlockMemory(k[:])
	}
}

// Wipe zeroes b in place. Used for file keys and KEKs once an operation ends.
func Wipe(b []byte) {
	clear(b)
}

func wipeArray(k *[KeySize]byte) {
	clear(k[:])
}
