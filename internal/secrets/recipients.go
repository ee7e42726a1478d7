package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/utils"
)

// RecipientsFileName is the default name of the web app's recipients export.
const RecipientsFileName = "recipients.export.json"

// Recipient is a project member who can receive the file key.
type Recipient struct {
	Email     string `json:"email"`
	PublicKey string `json:"publicKey"`
}

// RecipientsExport is the recipient list produced by the directory service.
type RecipientsExport struct {
	ProjectID  string      `json:"projectId"`
	Recipients []Recipient `json:"recipients"`
}

// Validate checks the email format and that the public key decodes to an
// X25519 key.
func (r Recipient) Validate() error {
	if !utils.IsValidEmail(r.Email) {
		return fmt.Errorf("%w: %q", kerrors.ErrInvalidEmail, r.Email)
	}
	if _, err := ParsePublicKey(r.PublicKey); err != nil {
		return fmt.Errorf("public key for %s: %w", r.Email, err)
	}
	return nil
}

// Validate rejects the whole export when any recipient is malformed or two
// recipients share an email. An empty list is allowed here; BuildManifest
// rejects it.
func (e *RecipientsExport) Validate() error {
	if strings.TrimSpace(e.ProjectID) == "" {
		return fmt.Errorf("%w: projectId is empty", kerrors.ErrInvalidRecipients)
	}
	for _, r := range e.Recipients {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return checkUniqueEmails(recipientEmails(e.Recipients))
}

// Emails lists recipient emails in order.
func (e *RecipientsExport) Emails() []string {
	return recipientEmails(e.Recipients)
}

// Has reports whether email is listed, ignoring case.
func (e *RecipientsExport) Has(email string) bool {
	for _, r := range e.Recipients {
		if sameEmail(r.Email, email) {
			return true
		}
	}
	return false
}

// ParseRecipientsExport decodes and validates a recipients export document.
func ParseRecipientsExport(data []byte) (*RecipientsExport, error) {
	var export RecipientsExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidRecipients, err)
	}
	if err := export.Validate(); err != nil {
		return nil, err
	}
	return &export, nil
}

// LoadRecipientsExport reads and validates a recipients export from disk.
func LoadRecipientsExport(path string) (*RecipientsExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read recipients export at %s: %w", path, err)
	}
	export, err := ParseRecipientsExport(data)
	if err != nil {
		return nil, fmt.Errorf("loading recipients export %s: %w", path, err)
	}
	return export, nil
}

func recipientEmails(recipients []Recipient) []string {
	emails := make([]string, len(recipients))
	for i, r := range recipients {
		emails[i] = r.Email
	}
	return emails
}

func checkUniqueEmails(emails []string) error {
	seen := make(map[string]bool, len(emails))
	for _, email := range emails {
		key := strings.ToLower(strings.TrimSpace(email))
		if seen[key] {
			return fmt.Errorf("%w: %s", kerrors.ErrDuplicateRecipient, email)
		}
		seen[key] = true
	}
	return nil
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
