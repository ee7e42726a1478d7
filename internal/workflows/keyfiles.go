package workflows

import (
	"github.com/PolarWolf314/ripenv/internal/secrets"
	"github.com/PolarWolf314/ripenv/internal/utils"
)

// ResolveKeyFilePath picks the keyfile to use: an explicit path wins, then
// the configured default, then ./mykey.enc.json if present, then the home
// copy.
func ResolveKeyFilePath(explicit, configured, homePath string) string {
	switch {
	case explicit != "":
		return explicit
	case configured != "":
		return configured
	case utils.FileExists(secrets.DefaultKeyFileName):
		return secrets.DefaultKeyFileName
	default:
		return homePath
	}
}
