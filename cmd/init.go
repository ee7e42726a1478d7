package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/ripenv/internal/secrets"
	"github.com/PolarWolf314/ripenv/internal/ui"
	"github.com/PolarWolf314/ripenv/internal/utils"
	"github.com/PolarWolf314/ripenv/internal/workflows"
)

var (
	initFilename string
	initForce    bool
)

func init() {
	initCmd.Flags().StringVar(&initFilename, "filename", secrets.DefaultKeyFileName, "output filename for the encrypted keyfile")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing keyfiles")
}

func resetInitCommandState() {
	initFilename = secrets.DefaultKeyFileName
	initForce = false
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a password-protected keyfile",
	Long: `Generates a new keypair and writes the private key, encrypted under your
password, to ./mykey.enc.json and ~/.ripenv/mykey.enc.json.

Register the printed public key in the web app so that teammates can
encrypt secrets for you.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")

		env, err := loadEnvironment()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %w", err)
		}

		password, err := readNewPassword("Password: ", "Confirm password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %w", err)
		}
		defer secrets.Wipe(password)

		spinner, cleanup := startSpinner(cmd, "Generating keyfile...")
		defer cleanup()

		destinations := []string{
			initFilename,
			filepath.Join(env.settings.HomeDir, filepath.Base(initFilename)),
		}
		Logger.Debugf("Keyfile destinations: %v", destinations)

		result, err := workflows.Init(cmd.Context(), workflows.InitOptions{
			Password:     password,
			Destinations: destinations,
			Force:        initForce,
			Email:        env.config.User.Email,
			AuditLog:     env.auditLog,
		})
		if err != nil {
			return reportFailure(spinner, err)
		}
		if result.AuditErr != nil {
			Logger.Warnf("Failed to write audit entry: %v", result.AuditErr)
		}

		Logger.Infof("Init command completed successfully")
		spinner.FinalMSG = ui.SuccessLine("Encrypted keyfile written to:"+utils.FormatPaths(result.KeyFilePaths)) +
			"Public key: " + ui.Highlight.Sprint(result.PublicKey) + " " + ui.Muted.Sprint(result.Fingerprint) + "\n" +
			ui.HintLine("Register this public key in the web app so teammates can encrypt for you")
		return nil
	},
}
