package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/ripenv/internal/codec"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
)

const (
	// KDFArgon2id is the only kdf tag a keyfile may carry.
	KDFArgon2id = "argon2id"

	// DefaultKeyFileName is the keyfile name used by init.
	DefaultKeyFileName = "mykey.enc.json"
)

// KeyFile is the persisted, password-protected keypair.
type KeyFile struct {
	PublicKey     string `json:"publicKey"`
	EncPrivateKey string `json:"encPrivateKey"`
	Salt          string `json:"salt"`
	KDF           string `json:"kdf"`
}

// Validate checks that every field is present and the kdf is supported.
func (kf *KeyFile) Validate() error {
	switch {
	case kf.PublicKey == "":
		return fmt.Errorf("%w: publicKey is empty", kerrors.ErrInvalidKeyFile)
	case kf.EncPrivateKey == "":
		return fmt.Errorf("%w: encPrivateKey is empty", kerrors.ErrInvalidKeyFile)
	case kf.Salt == "":
		return fmt.Errorf("%w: salt is empty", kerrors.ErrInvalidKeyFile)
	case kf.KDF == "":
		return fmt.Errorf("%w: kdf is empty", kerrors.ErrInvalidKeyFile)
	case kf.KDF != KDFArgon2id:
		return fmt.Errorf("%w: %q", kerrors.ErrUnsupportedKDF, kf.KDF)
	}
	return nil
}

// PublicKeyBytes decodes the keyfile's public key. No password is needed.
func (kf *KeyFile) PublicKeyBytes() (*PublicKey, error) {
	pk, err := ParsePublicKey(kf.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: publicKey: %v", kerrors.ErrInvalidKeyFile, err)
	}
	return pk, nil
}

// CreateKeyFile generates a keypair and protects the private key with a KEK
// derived from password. The caller persists the result.
func CreateKeyFile(password []byte) (*KeyFile, error) {
	privateKey, publicKey, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	defer privateKey.Wipe()

	return newKeyFile(password, privateKey, publicKey)
}

func newKeyFile(password []byte, privateKey *PrivateKey, publicKey *PublicKey) (*KeyFile, error) {
	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}

	kek := DeriveKEK(password, salt)
	defer Wipe(kek)

	encPrivateKey, err := Encrypt(kek, privateKey[:])
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}

	return &KeyFile{
		PublicKey:     publicKey.String(),
		EncPrivateKey: codec.Encode(encPrivateKey),
		Salt:          codec.Encode(salt),
		KDF:           KDFArgon2id,
	}, nil
}

// UnlockPrivateKey re-derives the KEK from password and the stored salt and
// decrypts the private key.
//
// A wrong password and a damaged keyfile both return ErrUnlockFailed. The
// caller owns the returned key and must Wipe it after use.
func UnlockPrivateKey(password []byte, kf *KeyFile) (*PrivateKey, error) {
	if kf.KDF != KDFArgon2id {
		return nil, fmt.Errorf("%w: %q", kerrors.ErrUnsupportedKDF, kf.KDF)
	}

	salt, err := codec.Decode(kf.Salt)
	if err != nil || len(salt) == 0 {
		return nil, kerrors.ErrUnlockFailed
	}
	encPrivateKey, err := codec.Decode(kf.EncPrivateKey)
	if err != nil {
		return nil, kerrors.ErrUnlockFailed
	}

	kek := DeriveKEK(password, salt)
	defer Wipe(kek)

	raw, err := Decrypt(kek, encPrivateKey)
	if err != nil {
		return nil, kerrors.ErrUnlockFailed
	}
	defer Wipe(raw)
	if len(raw) != KeySize {
		return nil, kerrors.ErrUnlockFailed
	}

	privateKey := new(PrivateKey)
	lockMemory(privateKey[:])
	copy(privateKey[:], raw)

	// A keyfile whose publicKey was swapped would otherwise unlock fine and
	// then fail to find its own manifest entries.
	derived := privateKey.Public()
	stored, err := ParsePublicKey(kf.PublicKey)
	if err != nil || !derived.Equal(stored) {
		privateKey.Wipe()
		return nil, kerrors.ErrUnlockFailed
	}

	return privateKey, nil
}

// ParseKeyFile decodes and validates a keyfile document.
func ParseKeyFile(data []byte) (*KeyFile, error) {
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidKeyFile, err)
	}
	if err := kf.Validate(); err != nil {
		return nil, err
	}
	return &kf, nil
}

// LoadKeyFile reads and validates a keyfile from disk.
func LoadKeyFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read keyfile at %s: %w", path, err)
	}
	kf, err := ParseKeyFile(data)
	if err != nil {
		return nil, fmt.Errorf("loading keyfile %s: %w", path, err)
	}
	return kf, nil
}

// SaveKeyFile writes kf as indented JSON with 0600 permissions, creating the
// parent directory if needed.
func SaveKeyFile(kf *KeyFile, path string) error {
	return writeJSON(path, kf, 0700, 0600)
}

func writeJSON(path string, v any, dirPerm, filePerm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, append(data, '\n'), filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile only applies the mode to new files.
	if err := os.Chmod(path, filePerm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return nil
}
