package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
)

// FileExists reports whether path exists. Permission errors count as existing
// so that callers never overwrite something they could not inspect.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

// CheckOverwrite returns ErrFileExists for the first path that already
// exists, unless force is set. All paths are checked before anything is
// written so a refused command leaves no partial output.
func CheckOverwrite(force bool, paths ...string) error {
	if force {
		return nil
	}
	for _, path := range paths {
		if FileExists(path) {
			return fmt.Errorf("%w: %s (use --force to override)", kerrors.ErrFileExists, path)
		}
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// WriteFileSecure writes data with owner-only permissions, creating the
// parent directory when it does not exist. The data goes to a 0600 temp file
// that is renamed over path, so an existing file never keeps its old mode.
func WriteFileSecure(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}
	return nil
}
