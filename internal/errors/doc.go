// Package errors provides typed error values for ripenv.
//
// Errors are sentinels so callers can match them with errors.Is() instead of
// string matching.
//
// # Error Categories
//
// Every crypto-facing error wraps one of four categories:
//
//   - ErrValidation: malformed, duplicate or empty structures
//   - ErrConfiguration: unsupported kdf tag, unknown manifest version
//   - ErrAuthentication: tag verification failed on decrypt, unseal or unlock
//   - ErrAccess: the manifest or directory has no entry for the caller
//
// Matching a category catches every specific cause:
//
//	if errors.Is(err, kerrors.ErrAuthentication) {
//	    // one message for wrong password, wrong key and tampered data
//	}
//
// The specific sentinels (ErrUnlockFailed, ErrUnsealFailed, ...) stay
// distinct for logs and tests. The CLI prints a single message for the whole
// authentication category.
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("loading keyfile %s: %w", path, errors.ErrInvalidKeyFile)
package errors
