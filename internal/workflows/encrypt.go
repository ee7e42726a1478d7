package workflows

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/PolarWolf314/ripenv/internal/audit"
	"github.com/PolarWolf314/ripenv/internal/directory"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/secrets"
	"github.com/PolarWolf314/ripenv/internal/utils"
)

const (
	// DefaultEnvFileName is the plaintext input of encrypt and output of decrypt.
	DefaultEnvFileName = ".env"

	// EncryptedEnvFileName is the encrypted payload written next to the manifest.
	EncryptedEnvFileName = ".env.enc"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	// EnvPath is the plaintext .env file. Defaults to ./.env.
	EnvPath string

	// OutDir receives .env.enc and ripenv.manifest.json. Defaults to the
	// current directory.
	OutDir string

	// ProjectID selects the project in the directory. It may be empty when
	// the directory is an export file, which names its own project.
	ProjectID string

	// Directory supplies the recipients.
	Directory directory.Directory

	// Force overwrites existing outputs.
	Force bool

	// Email is recorded in the audit log when set.
	Email string

	// AuditLog receives an entry on success. Nil disables auditing.
	AuditLog *audit.Log
}

// EncryptResult contains the outcome of an encrypt operation.
type EncryptResult struct {
	// PayloadPath is the written .env.enc file.
	PayloadPath string

	// ManifestPath is the written ripenv.manifest.json file.
	ManifestPath string

	// ProjectID is the project the manifest was built for.
	ProjectID string

	// Recipients lists the emails that can decrypt, in manifest order.
	Recipients []string

	// Variables is the number of entries parsed from the .env file.
	Variables int

	// EmptyInput is set when the .env file had no content.
	EmptyInput bool

	// TouchErr is set when the directory could not record the change.
	TouchErr error

	// AuditErr is set when the audit entry could not be written.
	AuditErr error
}

// Encrypt seals a .env file for every recipient the directory lists.
//
// The plaintext is encrypted once under a fresh file key; the key is sealed
// for each recipient into ripenv.manifest.json.
//
// Returns ErrFileNotFound if the .env file does not exist.
// Returns ErrInvalidEnvFile if it cannot be parsed as dotenv.
// Returns ErrDirectoryNotConfigured if no directory was given.
// Returns ErrFileExists if an output exists and Force is not set.
// Returns ErrEmptyRecipients or ErrDuplicateRecipient for bad recipient lists.
func Encrypt(ctx context.Context, opts EncryptOptions) (*EncryptResult, error) {
	envPath := opts.EnvPath
	if envPath == "" {
		envPath = DefaultEnvFileName
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}

	plaintext, err := os.ReadFile(envPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, envPath)
		}
		return nil, fmt.Errorf("reading %s: %w", envPath, err)
	}
	defer secrets.Wipe(plaintext)

	vars, err := godotenv.Parse(bytes.NewReader(plaintext))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidEnvFile, envPath, err)
	}

	if opts.Directory == nil {
		return nil, kerrors.ErrDirectoryNotConfigured
	}

	export, err := opts.Directory.Recipients(ctx, opts.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("fetching recipients: %w", err)
	}

	payloadPath := filepath.Join(outDir, EncryptedEnvFileName)
	manifestPath := secrets.ManifestPath(outDir)
	if err := utils.CheckOverwrite(opts.Force, payloadPath, manifestPath); err != nil {
		return nil, err
	}

	envelope, err := secrets.SealPayload(export.ProjectID, export.Recipients, plaintext)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}
	// #nosec G306 -- the payload is ciphertext meant to be committed.
	if err := os.WriteFile(payloadPath, envelope.Payload, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", payloadPath, err)
	}
	if err := secrets.SaveManifest(envelope.Manifest, manifestPath); err != nil {
		_ = os.Remove(payloadPath)
		return nil, err
	}

	result := &EncryptResult{
		PayloadPath:  payloadPath,
		ManifestPath: manifestPath,
		ProjectID:    export.ProjectID,
		Recipients:   envelope.Manifest.Emails(),
		Variables:    len(vars),
		EmptyInput:   len(plaintext) == 0,
	}

	result.AuditErr = opts.AuditLog.Record(audit.Entry{
		Operation:       audit.OpEncrypt,
		ProjectID:       export.ProjectID,
		Email:           opts.Email,
		Files:           []string{payloadPath, manifestPath},
		RecipientsCount: len(result.Recipients),
	})

	result.TouchErr = opts.Directory.TouchProject(ctx, export.ProjectID)

	return result, nil
}
