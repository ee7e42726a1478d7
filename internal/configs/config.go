package configs

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"

	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/utils"
)

// envPrefix is prepended to every env tag below.
const envPrefix = "RIPENV_"

// Config is the user configuration. The same struct is filled from
// ~/.ripenv/config.toml and from RIPENV_* environment variables.
type Config struct {
	User      User      `toml:"user"`
	Defaults  Defaults  `toml:"defaults"`
	Directory Directory `toml:"directory"`
}

type User struct {
	Email string `toml:"email,omitempty" env:"EMAIL"`
}

// Defaults are used when the matching command flag is not given.
type Defaults struct {
	KeyFile   string `toml:"keyfile,omitempty" env:"KEYFILE"`
	ProjectID string `toml:"project_id,omitempty" env:"PROJECT_ID"`
	OutDir    string `toml:"out_dir,omitempty" env:"OUT_DIR"`
}

// Directory configures the hosted membership directory.
type Directory struct {
	SupabaseURL     string `toml:"supabase_url,omitempty" env:"SUPABASE_URL"`
	SupabaseAnonKey string `toml:"supabase_anon_key,omitempty" env:"SUPABASE_ANON_KEY"`
}

// LoadFileConfig reads the TOML config. A missing file yields an empty config.
func LoadFileConfig(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err := LoadTOML(path, config); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	return config, nil
}

// SaveFileConfig writes the TOML config, creating ~/.ripenv if needed.
func SaveFileConfig(path string, config *Config) error {
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}
	return nil
}

// LoadEnvConfig reads RIPENV_* environment variables.
func LoadEnvConfig() (*Config, error) {
	config := &Config{}
	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("error getting env configs: %w", err)
	}
	return config, nil
}

// Load returns the effective configuration: environment values win and the
// config file fills whatever the environment leaves empty.
func Load(settings *Settings) (*Config, error) {
	envConfig, err := LoadEnvConfig()
	if err != nil {
		return nil, err
	}

	fileConfig, err := LoadFileConfig(settings.ConfigPath())
	if err != nil {
		return nil, err
	}

	config := new(Config)
	for _, layer := range []*Config{envConfig, fileConfig} {
		if err := mergo.Merge(config, layer); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	if config.Defaults.KeyFile != "" {
		expanded, err := utils.ExpandHome(config.Defaults.KeyFile)
		if err != nil {
			return nil, err
		}
		config.Defaults.KeyFile = expanded
	}

	return config, nil
}

// HasDirectory reports whether the hosted directory is configured.
func (c *Config) HasDirectory() bool {
	return c.Directory.SupabaseURL != "" && c.Directory.SupabaseAnonKey != ""
}

// field maps a dotted key such as "user.email" to its storage.
func (c *Config) field(key string) (*string, error) {
	fields := map[string]*string{
		"user.email":                  &c.User.Email,
		"defaults.keyfile":            &c.Defaults.KeyFile,
		"defaults.project_id":         &c.Defaults.ProjectID,
		"defaults.out_dir":            &c.Defaults.OutDir,
		"directory.supabase_url":      &c.Directory.SupabaseURL,
		"directory.supabase_anon_key": &c.Directory.SupabaseAnonKey,
	}

	ptr, ok := fields[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	return ptr, nil
}

// Get returns the value stored under a dotted key.
func (c *Config) Get(key string) (string, error) {
	ptr, err := c.field(key)
	if err != nil {
		return "", err
	}
	return *ptr, nil
}

// Set stores value under a dotted key. An empty value clears the key.
func (c *Config) Set(key, value string) error {
	ptr, err := c.field(key)
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	if strings.EqualFold(key, "user.email") && value != "" && !utils.IsValidEmail(value) {
		return fmt.Errorf("%w: %s", kerrors.ErrInvalidEmail, value)
	}

	*ptr = value
	return nil
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := []string{
		"user.email",
		"defaults.keyfile",
		"defaults.project_id",
		"defaults.out_dir",
		"directory.supabase_url",
		"directory.supabase_anon_key",
	}
	sort.Strings(keys)
	return keys
}
