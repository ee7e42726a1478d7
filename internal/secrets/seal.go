package secrets

import (
	"crypto/rand"
	"fmt"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"

	"golang.org/x/crypto/nacl/box"
)

// SealOverhead is the number of bytes Seal adds to the secret.
const SealOverhead = box.AnonymousOverhead

// Seal encrypts secret for recipient with an anonymous sealed box. A fresh
// ephemeral keypair is generated per call and its public half prefixes the
// output; nothing identifies the sender.
func Seal(recipient *PublicKey, secret []byte) ([]byte, error) {
	sealed, err := box.SealAnonymous(nil, secret, (*[KeySize]byte)(recipient), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to seal for recipient: %w", err)
	}
	return sealed, nil
}

// Unseal opens a sealed box with the recipient's private key.
// It returns ErrUnsealFailed when the box was sealed for another key or has
// been modified.
func Unseal(privateKey *PrivateKey, sealed []byte) ([]byte, error) {
	publicKey := privateKey.Public()
	secret, ok := box.OpenAnonymous(nil, sealed, (*[KeySize]byte)(&publicKey), (*[KeySize]byte)(privateKey))
	if !ok {
		return nil, kerrors.ErrUnsealFailed
	}
	return secret, nil
}
