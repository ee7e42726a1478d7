package secrets

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. They are part of the keyfile format: changing any of
// them makes existing keyfiles impossible to unlock.
const (
	KDFTime    uint32 = 2
	KDFMemory  uint32 = 64 * 1024 // KiB, i.e. 64 MiB
	KDFThreads uint8  = 1

	// SaltSize is the size of the random keyfile salt.
	SaltSize = 16
)

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKEK derives the 32-byte key-encrypting key for a keyfile.
//
// This takes on the order of 100ms and 64 MiB of memory. Callers that drive a
// UI should show progress around it.
func DeriveKEK(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, KDFTime, KDFMemory, KDFThreads, KeySize)
}
