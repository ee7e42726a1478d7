package secrets

import (
	"fmt"

	"github.com/PolarWolf314/ripenv/internal/codec"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
)

// Envelope is an encrypted payload together with the manifest that lets each
// recipient recover its file key.
type Envelope struct {
	Payload  []byte
	Manifest *Manifest
}

// Identity describes who is trying to open a manifest. PublicKey is matched
// first; Email is the fallback when no single entry carries the key.
type Identity struct {
	PublicKey *PublicKey
	Email     string
}

// SealPayload encrypts plaintext once under a fresh file key and seals that
// key for every recipient. Recipients are validated before anything is
// encrypted.
func SealPayload(projectID string, recipients []Recipient, plaintext []byte) (*Envelope, error) {
	if len(recipients) == 0 {
		return nil, kerrors.ErrEmptyRecipients
	}
	for _, r := range recipients {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}

	fileKey, err := NewFileKey()
	if err != nil {
		return nil, err
	}
	defer Wipe(fileKey)

	manifest, err := BuildManifest(projectID, fileKey, recipients)
	if err != nil {
		return nil, err
	}

	payload, err := Encrypt(fileKey, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt payload: %w", err)
	}

	return &Envelope{Payload: payload, Manifest: manifest}, nil
}

// FindRecipient returns the manifest entry for id.
func (m *Manifest) FindRecipient(id Identity) (*ManifestRecipient, error) {
	if id.PublicKey != nil {
		var matches []int
		for i, r := range m.Recipients {
			pk, err := ParsePublicKey(r.PublicKey)
			if err != nil {
				continue
			}
			if pk.Equal(id.PublicKey) {
				matches = append(matches, i)
			}
		}
		if len(matches) == 1 {
			return &m.Recipients[matches[0]], nil
		}
	}

	if id.Email != "" {
		for i, r := range m.Recipients {
			if sameEmail(r.Email, id.Email) {
				return &m.Recipients[i], nil
			}
		}
	}

	return nil, kerrors.ErrNoManifestEntry
}

// OpenFileKey finds the caller's entry and unseals the file key. The caller
// must Wipe the returned key.
func OpenFileKey(m *Manifest, privateKey *PrivateKey, email string) ([]byte, error) {
	publicKey := privateKey.Public()
	entry, err := m.FindRecipient(Identity{PublicKey: &publicKey, Email: email})
	if err != nil {
		return nil, err
	}

	wrapped, err := codec.Decode(entry.WrappedKey)
	if err != nil {
		return nil, kerrors.ErrUnsealFailed
	}

	fileKey, err := Unseal(privateKey, wrapped)
	if err != nil {
		return nil, err
	}
	if len(fileKey) != KeySize {
		Wipe(fileKey)
		return nil, kerrors.ErrUnsealFailed
	}
	return fileKey, nil
}

// OpenPayload recovers the plaintext of an envelope. It returns either the
// whole plaintext or an error, never a partial result.
func OpenPayload(m *Manifest, privateKey *PrivateKey, email string, payload []byte) ([]byte, error) {
	fileKey, err := OpenFileKey(m, privateKey, email)
	if err != nil {
		return nil, err
	}
	defer Wipe(fileKey)

	return Decrypt(fileKey, payload)
}
