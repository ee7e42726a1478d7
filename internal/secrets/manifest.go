package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/ripenv/internal/codec"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"

	"golang.org/x/sync/errgroup"
)

const (
	// ManifestVersion is the only manifest version this package reads or writes.
	ManifestVersion = 1

	// ManifestAlgo names the payload cipher.
	ManifestAlgo = "xsalsa20poly1305"

	// ManifestFileName is the manifest written next to the encrypted payload.
	ManifestFileName = "ripenv.manifest.json"
)

// ManifestRecipient carries one recipient's sealed copy of the file key.
type ManifestRecipient struct {
	Email      string `json:"email"`
	PublicKey  string `json:"publicKey"`
	WrappedKey string `json:"wrappedKey"`
}

// Manifest maps every recipient to their sealed file key.
type Manifest struct {
	Version    int                 `json:"version"`
	ProjectID  string              `json:"projectId"`
	Algo       string              `json:"algo"`
	Recipients []ManifestRecipient `json:"recipients"`
}

// BuildManifest seals fileKey for every recipient. Entries keep the order of
// recipients. Sealing runs concurrently, one goroutine per recipient.
func BuildManifest(projectID string, fileKey []byte, recipients []Recipient) (*Manifest, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: projectId is empty", kerrors.ErrInvalidManifest)
	}
	if len(fileKey) != KeySize {
		return nil, fmt.Errorf("%w: file key must be %d bytes", kerrors.ErrInvalidKeyLength, KeySize)
	}
	if len(recipients) == 0 {
		return nil, kerrors.ErrEmptyRecipients
	}
	if err := checkUniqueEmails(recipientEmails(recipients)); err != nil {
		return nil, err
	}

	publicKeys := make([]*PublicKey, len(recipients))
	for i, r := range recipients {
		pk, err := ParsePublicKey(r.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("public key for %s: %w", r.Email, err)
		}
		publicKeys[i] = pk
	}

	entries := make([]ManifestRecipient, len(recipients))
	var g errgroup.Group
	for i := range recipients {
		g.Go(func() error {
			wrapped, err := Seal(publicKeys[i], fileKey)
			if err != nil {
				return fmt.Errorf("sealing file key for %s: %w", recipients[i].Email, err)
			}
			entries[i] = ManifestRecipient{
				Email:      recipients[i].Email,
				PublicKey:  publicKeys[i].String(),
				WrappedKey: codec.Encode(wrapped),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Manifest{
		Version:    ManifestVersion,
		ProjectID:  projectID,
		Algo:       ManifestAlgo,
		Recipients: entries,
	}, nil
}

// Validate re-checks every manifest invariant. Manifests are read back from
// disk, so they are validated independently of the export they came from.
func (m *Manifest) Validate() error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("%w: version %d", kerrors.ErrUnsupportedManifest, m.Version)
	}
	if m.Algo != ManifestAlgo {
		return fmt.Errorf("%w: algo %q", kerrors.ErrUnsupportedManifest, m.Algo)
	}
	if strings.TrimSpace(m.ProjectID) == "" {
		return fmt.Errorf("%w: projectId is empty", kerrors.ErrInvalidManifest)
	}
	if len(m.Recipients) == 0 {
		return kerrors.ErrEmptyRecipients
	}

	emails := make([]string, len(m.Recipients))
	for i, r := range m.Recipients {
		if r.Email == "" || r.PublicKey == "" || r.WrappedKey == "" {
			return fmt.Errorf("%w: recipient %d has empty fields", kerrors.ErrInvalidManifest, i)
		}
		emails[i] = r.Email
	}
	return checkUniqueEmails(emails)
}

// Emails lists recipient emails in manifest order.
func (m *Manifest) Emails() []string {
	emails := make([]string, len(m.Recipients))
	for i, r := range m.Recipients {
		emails[i] = r.Email
	}
	return emails
}

// ParseManifest decodes and validates a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads and validates a manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest at %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("loading manifest %s: %w", path, err)
	}
	return m, nil
}

// SaveManifest writes m to path as indented JSON. Manifests hold only public
// keys and sealed file keys and are meant to be committed, so the file is
// world-readable.
func SaveManifest(m *Manifest, path string) error {
	return writeJSON(path, m, 0755, 0644)
}

// ManifestPath returns the manifest location inside dir.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestFileName)
}
