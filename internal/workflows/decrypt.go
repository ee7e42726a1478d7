package workflows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/ripenv/internal/audit"
	"github.com/PolarWolf314/ripenv/internal/directory"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/secrets"
	"github.com/PolarWolf314/ripenv/internal/utils"
)

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// EncPath is the encrypted payload. Defaults to ./.env.enc.
	EncPath string

	// ManifestPath defaults to ripenv.manifest.json next to EncPath.
	ManifestPath string

	// KeyFilePath is the caller's keyfile.
	KeyFilePath string

	// Password unlocks the keyfile. The caller owns and wipes it.
	Password []byte

	// Email is used when the keyfile's public key does not pick a single
	// manifest entry, and for membership checks.
	Email string

	// OutPath defaults to .env next to EncPath.
	OutPath string

	// ProjectID, when set, must match the manifest's project.
	ProjectID string

	// Directory, when set, must list the caller as a project member.
	Directory directory.Directory

	// Force overwrites an existing output file.
	Force bool

	// AuditLog receives an entry on success. Nil disables auditing.
	AuditLog *audit.Log
}

// DecryptResult contains the outcome of a decrypt operation.
type DecryptResult struct {
	// OutPath is the written plaintext file.
	OutPath string

	// ProjectID is the manifest's project.
	ProjectID string

	// Email is the manifest entry that was opened.
	Email string

	// AuditErr is set when the audit entry could not be written.
	AuditErr error
}

// DecryptPlan holds the inputs of a decrypt that passed every check that
// does not need the password. Run finishes it.
type DecryptPlan struct {
	opts     DecryptOptions
	outPath  string
	keyFile  *secrets.KeyFile
	manifest *secrets.Manifest
	payload  []byte
	entry    *secrets.ManifestRecipient
}

// PrepareDecrypt loads the keyfile, manifest and payload, resolves the
// caller's manifest entry, checks membership and refuses to overwrite, all
// without the password. Callers that prompt for a password do so only after
// this succeeds. opts.Password is ignored.
//
// Returns ErrFileNotFound if an input file does not exist.
// Returns ErrProjectMismatch if ProjectID differs from the manifest's.
// Returns ErrNoManifestEntry if the manifest has no entry for the caller.
// Returns ErrNotProjectMember if the directory does not list the caller.
// Returns ErrFileExists if the output exists and Force is not set.
func PrepareDecrypt(ctx context.Context, opts DecryptOptions) (*DecryptPlan, error) {
	encPath := opts.EncPath
	if encPath == "" {
		encPath = EncryptedEnvFileName
	}
	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = secrets.ManifestPath(filepath.Dir(encPath))
	}
	outPath := opts.OutPath
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(encPath), DefaultEnvFileName)
	}

	kf, err := secrets.LoadKeyFile(opts.KeyFilePath)
	if err != nil {
		return nil, err
	}

	manifest, err := secrets.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if opts.ProjectID != "" && opts.ProjectID != manifest.ProjectID {
		return nil, fmt.Errorf("%w: manifest is for project %q, not %q",
			kerrors.ErrProjectMismatch, manifest.ProjectID, opts.ProjectID)
	}

	payload, err := os.ReadFile(encPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, encPath)
		}
		return nil, fmt.Errorf("reading %s: %w", encPath, err)
	}

	declared, err := kf.PublicKeyBytes()
	if err != nil {
		return nil, err
	}
	entry, err := manifest.FindRecipient(secrets.Identity{PublicKey: declared, Email: opts.Email})
	if err != nil {
		return nil, err
	}

	if opts.Directory != nil {
		member, err := opts.Directory.VerifyAccess(ctx, manifest.ProjectID, entry.Email)
		if err != nil {
			return nil, fmt.Errorf("verifying project access: %w", err)
		}
		if !member {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrNotProjectMember, entry.Email)
		}
	}

	if err := utils.CheckOverwrite(opts.Force, outPath); err != nil {
		return nil, err
	}

	return &DecryptPlan{
		opts:     opts,
		outPath:  outPath,
		keyFile:  kf,
		manifest: manifest,
		payload:  payload,
		entry:    entry,
	}, nil
}

// OutPath is where Run writes the plaintext.
func (p *DecryptPlan) OutPath() string { return p.outPath }

// ProjectID is the manifest's project.
func (p *DecryptPlan) ProjectID() string { return p.manifest.ProjectID }

// Email is the manifest entry that will be opened.
func (p *DecryptPlan) Email() string { return p.entry.Email }

// Run unlocks the keyfile with password, opens the payload and writes the
// plaintext. The overwrite check is repeated since the output may have
// appeared while the caller was prompting.
//
// Returns an ErrAuthentication error for a wrong password, a wrong key or
// tampered data; these are deliberately indistinguishable.
func (p *DecryptPlan) Run(ctx context.Context, password []byte) (*DecryptResult, error) {
	if err := utils.CheckOverwrite(p.opts.Force, p.outPath); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	privateKey, err := secrets.UnlockPrivateKey(password, p.keyFile)
	if err != nil {
		return nil, err
	}
	defer privateKey.Wipe()

	plaintext, err := secrets.OpenPayload(p.manifest, privateKey, p.opts.Email, p.payload)
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe(plaintext)

	if err := utils.WriteFileSecure(p.outPath, plaintext); err != nil {
		return nil, err
	}

	result := &DecryptResult{
		OutPath:   p.outPath,
		ProjectID: p.manifest.ProjectID,
		Email:     p.entry.Email,
	}

	result.AuditErr = p.opts.AuditLog.Record(audit.Entry{
		Operation: audit.OpDecrypt,
		ProjectID: p.manifest.ProjectID,
		Email:     p.entry.Email,
		Files:     []string{p.outPath},
	})

	return result, nil
}

// Decrypt unlocks the caller's keyfile, unseals its file key from the
// manifest and writes the plaintext. It is PrepareDecrypt followed by Run
// with opts.Password.
//
// Everything that can be checked without the password (files, manifest
// entry, membership, overwrite) is checked before the slow key derivation.
func Decrypt(ctx context.Context, opts DecryptOptions) (*DecryptResult, error) {
	plan, err := PrepareDecrypt(ctx, opts)
	if err != nil {
		return nil, err
	}
	return plan.Run(ctx, opts.Password)
}
