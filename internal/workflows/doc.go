// Package workflows provides high-level orchestration for ripenv commands.
//
// Each workflow takes a context and an Options struct and returns a Result
// struct. Workflows coordinate the secrets, directory and audit packages and
// know nothing about flags, prompts, spinners or colors; the cmd package is
// a thin layer that gathers input, calls a workflow and renders its result.
//
// # Available Workflows
//
//   - Init: creates a password-protected keyfile and writes it to every
//     destination
//   - Encrypt: seals a .env file for every recipient the directory lists,
//     writing .env.enc and ripenv.manifest.json
//   - Decrypt: unlocks the caller's keyfile and recovers the plaintext
//   - Status: reports the keyfile and every bundle below a directory
//
// # Error Handling
//
// Workflows return errors from internal/errors, wrapped with context. Match
// them with errors.Is:
//
//	result, err := workflows.Decrypt(ctx, opts)
//	if errors.Is(err, kerrors.ErrAuthentication) {
//	    // wrong password, wrong key or tampered data
//	}
//
// Side effects that must not fail an operation, such as the audit entry and
// the directory's last-edited timestamp, are reported in Result fields
// (AuditErr, TouchErr) for the caller to print as warnings.
//
// # Overwrite Protection
//
// Every workflow that writes files checks all of its outputs before writing
// any of them and returns ErrFileExists unless Force is set.
package workflows
