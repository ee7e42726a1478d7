package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/ripenv/internal/configs"
	"github.com/PolarWolf314/ripenv/internal/directory"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/ui"
	"github.com/PolarWolf314/ripenv/internal/utils"
	"github.com/PolarWolf314/ripenv/internal/workflows"
)

var (
	encryptEnvPath    string
	encryptRecipients string
	encryptProjectID  string
	encryptOutDir     string
	encryptForce      bool
)

func init() {
	encryptCmd.Flags().StringVar(&encryptEnvPath, "env", workflows.DefaultEnvFileName, "path to the plaintext .env file")
	encryptCmd.Flags().StringVar(&encryptRecipients, "recipients", "", "path to recipients.export.json from the web app")
	encryptCmd.Flags().StringVar(&encryptProjectID, "project-id", "", "project to fetch recipients for from the directory")
	encryptCmd.Flags().StringVar(&encryptOutDir, "out", "", "directory for .env.enc and ripenv.manifest.json (default: current directory)")
	encryptCmd.Flags().BoolVar(&encryptForce, "force", false, "overwrite existing encrypted outputs")
	encryptCmd.MarkFlagsMutuallyExclusive("recipients", "project-id")
}

func resetEncryptCommandState() {
	encryptEnvPath = workflows.DefaultEnvFileName
	encryptRecipients = ""
	encryptProjectID = ""
	encryptOutDir = ""
	encryptForce = false
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a .env file for every project member",
	Long: `Encrypts a .env file once and seals its key to every project member's
public key. Recipients come from a recipients.export.json (--recipients) or
from the hosted directory (--project-id).

Writes .env.enc and ripenv.manifest.json; both are safe to commit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")

		env, err := loadEnvironment()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %w", err)
		}

		spinner, cleanup := startSpinner(cmd, "Encrypting environment file...")
		defer cleanup()

		dir, projectID, err := encryptDirectory(env.config)
		if err != nil {
			return reportFailure(spinner, err)
		}

		outDir := encryptOutDir
		if outDir == "" {
			outDir = env.config.Defaults.OutDir
		}
		Logger.Debugf("env=%s out=%s project=%s", encryptEnvPath, outDir, projectID)

		result, err := workflows.Encrypt(cmd.Context(), workflows.EncryptOptions{
			EnvPath:   encryptEnvPath,
			OutDir:    outDir,
			ProjectID: projectID,
			Directory: dir,
			Force:     encryptForce,
			Email:     env.config.User.Email,
			AuditLog:  env.auditLog,
		})
		if err != nil {
			return reportFailure(spinner, err)
		}

		if result.EmptyInput {
			warnAlways(spinner, "%s is empty; encrypting it anyway", encryptEnvPath)
		}
		if result.TouchErr != nil {
			warnAlways(spinner, "Failed to update the project's last edited time: %v", result.TouchErr)
		}
		if result.AuditErr != nil {
			Logger.Warnf("Failed to write audit entry: %v", result.AuditErr)
		}

		Logger.Infof("Encrypt command completed successfully for %d recipients", len(result.Recipients))
		spinner.FinalMSG = ui.SuccessLine(fmt.Sprintf("Encrypted %s for %d recipients in project %s",
			ui.Path.Sprint(encryptEnvPath), len(result.Recipients), ui.Highlight.Sprint(result.ProjectID))) +
			"The following files were created:" + utils.FormatPaths([]string{result.PayloadPath, result.ManifestPath}) +
			ui.HintLine("You can now safely commit both files; never commit "+ui.Path.Sprint(".env"))
		return nil
	},
}

// encryptDirectory picks the recipients source. An export file needs no
// project id; the hosted directory does.
func encryptDirectory(config *configs.Config) (directory.Directory, string, error) {
	if encryptRecipients != "" {
		dir, err := directory.NewExportFile(encryptRecipients)
		return dir, encryptProjectID, err
	}

	projectID := encryptProjectID
	if projectID == "" {
		projectID = config.Defaults.ProjectID
	}

	dir, err := directory.New(directory.Config{
		SupabaseURL:     config.Directory.SupabaseURL,
		SupabaseAnonKey: config.Directory.SupabaseAnonKey,
	})
	if err != nil {
		return nil, "", err
	}
	if projectID == "" {
		return nil, "", fmt.Errorf("%w: --project-id is required when using the directory", kerrors.ErrValidation)
	}
	return dir, projectID, nil
}
