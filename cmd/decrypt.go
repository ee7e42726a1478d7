package cmd

import (
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/ripenv/internal/directory"
	"github.com/PolarWolf314/ripenv/internal/secrets"
	"github.com/PolarWolf314/ripenv/internal/ui"
	"github.com/PolarWolf314/ripenv/internal/workflows"
)

var (
	decryptEncPath      string
	decryptManifestPath string
	decryptEmail        string
	decryptKeyFile      string
	decryptOutPath      string
	decryptProjectID    string
	decryptForce        bool
)

func init() {
	decryptCmd.Flags().StringVar(&decryptEncPath, "enc", workflows.EncryptedEnvFileName, "path to the encrypted .env.enc file")
	decryptCmd.Flags().StringVar(&decryptManifestPath, "manifest", "", "path to ripenv.manifest.json (default: next to --enc)")
	decryptCmd.Flags().StringVar(&decryptEmail, "email", "", "your email in the manifest (default: user.email from config)")
	decryptCmd.Flags().StringVar(&decryptKeyFile, "keyfile", "", "path to your encrypted keyfile")
	decryptCmd.Flags().StringVar(&decryptOutPath, "out", "", "where to write the plaintext (default: .env next to --enc)")
	decryptCmd.Flags().StringVar(&decryptProjectID, "project-id", "", "expected project; also checks membership when a directory is configured")
	decryptCmd.Flags().BoolVar(&decryptForce, "force", false, "overwrite an existing plaintext file")
}

func resetDecryptCommandState() {
	decryptEncPath = workflows.EncryptedEnvFileName
	decryptManifestPath = ""
	decryptEmail = ""
	decryptKeyFile = ""
	decryptOutPath = ""
	decryptProjectID = ""
	decryptForce = false
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt a .env.enc file with your keyfile",
	Long: `Unlocks your keyfile with your password, recovers the file key sealed for
you in ripenv.manifest.json and writes the decrypted .env.

Your entry is found by your keyfile's public key; --email is the fallback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")

		env, err := loadEnvironment()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %w", err)
		}

		keyFilePath := workflows.ResolveKeyFilePath(decryptKeyFile, env.config.Defaults.KeyFile, env.settings.KeyFilePath())
		email := decryptEmail
		if email == "" {
			email = env.config.User.Email
		}
		Logger.Debugf("keyfile=%s email=%s", keyFilePath, email)

		var dir directory.Directory
		if decryptProjectID != "" && env.config.HasDirectory() {
			Logger.Infof("Checking membership of project %s", decryptProjectID)
			dir = directory.NewSupabase(directory.Config{
				SupabaseURL:     env.config.Directory.SupabaseURL,
				SupabaseAnonKey: env.config.Directory.SupabaseAnonKey,
			})
		}

		plan, err := workflows.PrepareDecrypt(cmd.Context(), workflows.DecryptOptions{
			EncPath:      decryptEncPath,
			ManifestPath: decryptManifestPath,
			KeyFilePath:  keyFilePath,
			Email:        email,
			OutPath:      decryptOutPath,
			ProjectID:    decryptProjectID,
			Directory:    dir,
			Force:        decryptForce,
			AuditLog:     env.auditLog,
		})
		if err != nil {
			return printFailure(cmd, err)
		}
		Logger.Debugf("manifest entry %s in project %s", plan.Email(), plan.ProjectID())

		password, err := readPassword("Password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read password: %w", err)
		}
		defer secrets.Wipe(password)

		spinner, cleanup := startSpinner(cmd, "Decrypting environment file...")
		defer cleanup()

		result, err := plan.Run(cmd.Context(), password)
		if err != nil {
			return reportFailure(spinner, err)
		}
		if result.AuditErr != nil {
			Logger.Warnf("Failed to write audit entry: %v", result.AuditErr)
		}

		Logger.Infof("Decrypt command completed successfully")
		spinner.FinalMSG = ui.SuccessLine("Decrypted secrets written to "+ui.Path.Sprint(result.OutPath)) +
			ui.HintLine("Never commit "+ui.Path.Sprint(result.OutPath)+" to version control")
		return nil
	},
}
