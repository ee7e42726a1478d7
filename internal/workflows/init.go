package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/ripenv/internal/audit"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/secrets"
	"github.com/PolarWolf314/ripenv/internal/utils"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// Password protects the new private key. The caller owns and wipes it.
	Password []byte

	// Destinations lists every path the keyfile is written to, usually
	// ./mykey.enc.json and ~/.ripenv/mykey.enc.json.
	Destinations []string

	// Force overwrites existing keyfiles.
	Force bool

	// Email is recorded in the audit log when set.
	Email string

	// AuditLog receives an entry on success. Nil disables auditing.
	AuditLog *audit.Log
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// KeyFilePaths lists where the keyfile was written.
	KeyFilePaths []string

	// PublicKey is the base64url public key to register in the web app.
	PublicKey string

	// Fingerprint is a short digest of PublicKey for visual comparison.
	Fingerprint string

	// AuditErr is set when the audit entry could not be written.
	AuditErr error
}

// Init generates a keypair, encrypts the private key under the password and
// writes the same keyfile to every destination.
//
// All destinations are checked before any is written, so a refusal leaves
// nothing behind.
//
// Returns ErrValidation if the password is empty or no destination is given.
// Returns ErrFileExists if a destination exists and Force is not set.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	if len(opts.Password) == 0 {
		return nil, fmt.Errorf("%w: password cannot be empty", kerrors.ErrValidation)
	}

	destinations := uniquePaths(opts.Destinations)
	if len(destinations) == 0 {
		return nil, fmt.Errorf("%w: no keyfile destination given", kerrors.ErrValidation)
	}

	if err := utils.CheckOverwrite(opts.Force, destinations...); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kf, err := secrets.CreateKeyFile(opts.Password)
	if err != nil {
		return nil, fmt.Errorf("creating keyfile: %w", err)
	}

	for _, path := range destinations {
		if err := secrets.SaveKeyFile(kf, path); err != nil {
			return nil, err
		}
	}

	publicKey, err := kf.PublicKeyBytes()
	if err != nil {
		return nil, err
	}

	result := &InitResult{
		KeyFilePaths: destinations,
		PublicKey:    kf.PublicKey,
		Fingerprint:  publicKey.Fingerprint(),
	}

	result.AuditErr = opts.AuditLog.Record(audit.Entry{
		Operation: audit.OpInit,
		Email:     opts.Email,
		Files:     destinations,
	})

	return result, nil
}

// uniquePaths drops empty and repeated paths, comparing cleaned absolute
// forms so ./x and x count once.
func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	unique := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		key := filepath.Clean(path)
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, path)
	}
	return unique
}
