package directory

import (
	"context"
	"time"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/secrets"
)

// Directory answers who belongs to a project and which public keys they
// hold. Implementations never see private keys or plaintext.
type Directory interface {
	// Recipients returns the project's members that have a public key.
	Recipients(ctx context.Context, projectID string) (*secrets.RecipientsExport, error)

	// VerifyAccess reports whether email is a member of the project.
	VerifyAccess(ctx context.Context, projectID, email string) (bool, error)

	// TouchProject records that the project's secrets changed. Callers treat
	// failures as warnings.
	TouchProject(ctx context.Context, projectID string) error
}

// Config selects and configures a Directory.
type Config struct {
	// ExportPath is a recipients.export.json downloaded from the web app.
	ExportPath string

	SupabaseURL     string
	SupabaseAnonKey string

	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// New returns an ExportFile when an export path is given, otherwise a
// Supabase client when the URL and anon key are set.
//
// Returns ErrDirectoryNotConfigured when neither is available.
func New(cfg Config) (Directory, error) {
	if cfg.ExportPath != "" {
		return NewExportFile(cfg.ExportPath)
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseAnonKey != "" {
		return NewSupabase(cfg), nil
	}
	return nil, kerrors.ErrDirectoryNotConfigured
}
