package errors

import (
	"errors"
	"fmt"
)

// Categories. Every specific error below wraps exactly one of these, so
// callers can match either the category or the precise cause with errors.Is.
var (
	// ErrValidation indicates a malformed, duplicate or empty structure.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration indicates an unsupported or missing setting.
	ErrConfiguration = errors.New("unsupported configuration")

	// ErrAuthentication indicates a MAC or tag did not verify.
	ErrAuthentication = errors.New("authentication failed")

	// ErrAccess indicates the caller's identity has no access.
	ErrAccess = errors.New("access denied")
)

// Validation errors indicate input structures that must be rejected up front.
var (
	// ErrEmptyRecipients indicates a manifest would have no recipients.
	ErrEmptyRecipients = fmt.Errorf("%w: at least one recipient is required", ErrValidation)

	// ErrDuplicateRecipient indicates two recipients share an email.
	ErrDuplicateRecipient = fmt.Errorf("%w: duplicate recipient email", ErrValidation)

	// ErrInvalidKeyFile indicates a keyfile with missing or malformed fields.
	ErrInvalidKeyFile = fmt.Errorf("%w: invalid keyfile", ErrValidation)

	// ErrInvalidManifest indicates a manifest with missing or malformed fields.
	ErrInvalidManifest = fmt.Errorf("%w: invalid manifest", ErrValidation)

	// ErrInvalidRecipients indicates a malformed recipients export.
	ErrInvalidRecipients = fmt.Errorf("%w: invalid recipients export", ErrValidation)

	// ErrInvalidEncoding indicates a field that is not valid base64url.
	ErrInvalidEncoding = fmt.Errorf("%w: invalid base64url encoding", ErrValidation)

	// ErrInvalidKeyLength indicates a key of the wrong size.
	ErrInvalidKeyLength = fmt.Errorf("%w: invalid key length", ErrValidation)

	// ErrInvalidEmail indicates the email format is invalid.
	ErrInvalidEmail = fmt.Errorf("%w: invalid email format", ErrValidation)

	// ErrInvalidEnvFile indicates the plaintext is not a parseable .env file.
	ErrInvalidEnvFile = fmt.Errorf("%w: invalid .env file", ErrValidation)

	// ErrInvalidDateFormat indicates a date filter that is not YYYY-MM-DD.
	ErrInvalidDateFormat = fmt.Errorf("%w: invalid date format", ErrValidation)

	// ErrProjectMismatch indicates a recipients export for another project.
	ErrProjectMismatch = fmt.Errorf("%w: project id does not match", ErrValidation)
)

// Configuration errors.
var (
	// ErrUnsupportedKDF indicates a keyfile uses a KDF other than argon2id.
	ErrUnsupportedKDF = fmt.Errorf("%w: unsupported kdf in keyfile", ErrConfiguration)

	// ErrUnsupportedManifest indicates an unknown manifest version or algorithm.
	ErrUnsupportedManifest = fmt.Errorf("%w: unsupported manifest version or algorithm", ErrConfiguration)

	// ErrDirectoryNotConfigured indicates neither a recipients export nor a
	// directory service was configured.
	ErrDirectoryNotConfigured = fmt.Errorf("%w: no recipients source configured", ErrConfiguration)
)

// Authentication errors. Wrong keys, wrong passwords and tampered data are
// reported identically within each operation.
var (
	// ErrDecryptFailed indicates a payload could not be opened.
	ErrDecryptFailed = fmt.Errorf("%w: failed to decrypt payload", ErrAuthentication)

	// ErrUnsealFailed indicates a wrapped file key could not be unsealed.
	ErrUnsealFailed = fmt.Errorf("%w: failed to unseal file key", ErrAuthentication)

	// ErrUnlockFailed indicates the keyfile could not be unlocked.
	ErrUnlockFailed = fmt.Errorf("%w: unable to decrypt private key; check password and file integrity", ErrAuthentication)
)

// Access errors.
var (
	// ErrNoManifestEntry indicates the manifest has no entry for the caller.
	ErrNoManifestEntry = fmt.Errorf("%w: no manifest entry for this identity", ErrAccess)

	// ErrNotProjectMember indicates the directory does not list the caller.
	ErrNotProjectMember = fmt.Errorf("%w: user is not a member of this project", ErrAccess)
)

// Directory errors indicate the external directory could not serve a request.
var (
	// ErrProjectNotFound indicates the project does not exist.
	ErrProjectNotFound = errors.New("project does not exist")

	// ErrNoRecipients indicates the project has no members with public keys.
	ErrNoRecipients = errors.New("project has no members with public keys")

	// ErrDirectoryUnauthorized indicates the directory rejected our credentials.
	ErrDirectoryUnauthorized = errors.New("directory service rejected credentials")
)

// File errors indicate issues with file discovery or access.
var (
	// ErrFileExists indicates an output file exists and --force was not given.
	ErrFileExists = errors.New("refusing to overwrite existing file")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")
)
