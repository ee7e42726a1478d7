package workflows

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/PolarWolf314/ripenv/internal/secrets"
	"github.com/PolarWolf314/ripenv/internal/utils"
)

// manifestPattern finds every bundle below the status root.
const manifestPattern = "**/" + secrets.ManifestFileName

// skippedDirs are never searched for bundles.
var skippedDirs = []string{".git/", "node_modules/"}

// StatusOptions configures the status workflow.
type StatusOptions struct {
	// Root is searched recursively for manifests. Defaults to ".".
	Root string

	// KeyFilePath is the keyfile to report on.
	KeyFilePath string

	// Email identifies the caller when the keyfile matches no entry.
	Email string
}

// KeyFileStatus describes the caller's keyfile.
type KeyFileStatus struct {
	Path        string
	Present     bool
	PublicKey   string
	Fingerprint string

	// Err is set when the keyfile exists but cannot be parsed.
	Err error
}

// BundleStatus describes one manifest and its payload.
type BundleStatus struct {
	ManifestPath   string
	PayloadPath    string
	PayloadPresent bool
	ProjectID      string
	Recipients     []string

	// Listed is set when the caller has an entry in the manifest.
	Listed bool

	// Err is set when the manifest cannot be loaded.
	Err error
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	KeyFile KeyFileStatus
	Bundles []BundleStatus
}

// Status reports on the keyfile and every encrypted bundle below Root.
// Broken keyfiles and manifests are reported, not returned as errors.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}

	result := &StatusResult{KeyFile: keyFileStatus(opts.KeyFilePath)}

	var identity secrets.Identity
	identity.Email = opts.Email
	if result.KeyFile.Err == nil && result.KeyFile.Present {
		identity.PublicKey, _ = secrets.ParsePublicKey(result.KeyFile.PublicKey)
	}

	matches, err := doublestar.Glob(os.DirFS(root), manifestPattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isSkipped(match) {
			continue
		}
		result.Bundles = append(result.Bundles, bundleStatus(filepath.Join(root, filepath.FromSlash(match)), identity))
	}

	return result, nil
}

func keyFileStatus(path string) KeyFileStatus {
	status := KeyFileStatus{Path: path}
	if path == "" || !utils.FileExists(path) {
		return status
	}
	status.Present = true

	kf, err := secrets.LoadKeyFile(path)
	if err != nil {
		status.Err = err
		return status
	}
	publicKey, err := kf.PublicKeyBytes()
	if err != nil {
		status.Err = err
		return status
	}

	status.PublicKey = kf.PublicKey
	status.Fingerprint = publicKey.Fingerprint()
	return status
}

func bundleStatus(manifestPath string, identity secrets.Identity) BundleStatus {
	payloadPath := filepath.Join(filepath.Dir(manifestPath), EncryptedEnvFileName)
	status := BundleStatus{
		ManifestPath:   manifestPath,
		PayloadPath:    payloadPath,
		PayloadPresent: utils.FileExists(payloadPath),
	}

	manifest, err := secrets.LoadManifest(manifestPath)
	if err != nil {
		status.Err = err
		return status
	}

	status.ProjectID = manifest.ProjectID
	status.Recipients = manifest.Emails()
	if identity.PublicKey != nil || identity.Email != "" {
		_, err := manifest.FindRecipient(identity)
		status.Listed = err == nil
	}
	return status
}

func isSkipped(match string) bool {
	for _, dir := range skippedDirs {
		if strings.HasPrefix(match, dir) || strings.Contains(match, "/"+dir) {
			return true
		}
	}
	return false
}
