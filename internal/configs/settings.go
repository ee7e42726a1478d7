package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const (
	homeDirName     = ".ripenv"
	configFileName  = "config.toml"
	auditFileName   = "audit.jsonl"
	keyFileBaseName = "mykey.enc.json"
)

// Settings holds the locations of ripenv's per-user files.
type Settings struct {
	// HomeDir is ~/.ripenv unless RIPENV_HOME is set.
	HomeDir string `env:"RIPENV_HOME"`
}

// LoadSettings resolves the ripenv home directory.
func LoadSettings() (*Settings, error) {
	settings := &Settings{}
	if err := env.Parse(settings); err != nil {
		return nil, fmt.Errorf("error reading RIPENV_HOME: %w", err)
	}

	if settings.HomeDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error getting home directory: %w", err)
		}
		settings.HomeDir = filepath.Join(homeDir, homeDirName)
	}

	return settings, nil
}

// ConfigPath returns the path of the user config file.
func (s *Settings) ConfigPath() string {
	return filepath.Join(s.HomeDir, configFileName)
}

// KeyFilePath returns the home copy of the user's keyfile.
func (s *Settings) KeyFilePath() string {
	return filepath.Join(s.HomeDir, keyFileBaseName)
}

// AuditLogPath returns the path of the audit log.
func (s *Settings) AuditLogPath() string {
	return filepath.Join(s.HomeDir, auditFileName)
}
