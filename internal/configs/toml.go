package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SaveTOML saves a struct to a TOML file readable only by the owner.
func SaveTOML(filePath string, data any) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		return err
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(data)
}

// LoadTOML loads a TOML file into a struct. Unknown keys are an error.
func LoadTOML(filePath string, data any) error {
	meta, err := toml.DecodeFile(filePath, data)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in %s: %v", filePath, undecoded)
	}
	return nil
}
