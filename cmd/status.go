package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/ripenv/internal/ui"
	"github.com/PolarWolf314/ripenv/internal/workflows"
)

var (
	statusRoot    string
	statusKeyFile string
)

func init() {
	statusCmd.Flags().StringVar(&statusRoot, "root", ".", "directory to search for encrypted bundles")
	statusCmd.Flags().StringVar(&statusKeyFile, "keyfile", "", "path to your encrypted keyfile")
}

func resetStatusCommandState() {
	statusRoot = "."
	statusKeyFile = ""
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your keyfile, configuration and encrypted bundles",
	Long: `Shows which keyfile ripenv will use, the effective configuration, and
every ripenv.manifest.json below --root together with whether you can
decrypt it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		env, err := loadEnvironment()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %w", err)
		}

		keyFilePath := workflows.ResolveKeyFilePath(statusKeyFile, env.config.Defaults.KeyFile, env.settings.KeyFilePath())

		result, err := workflows.Status(cmd.Context(), workflows.StatusOptions{
			Root:        statusRoot,
			KeyFilePath: keyFilePath,
			Email:       env.config.User.Email,
		})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to collect status: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Configuration:")
		fmt.Fprintf(out, "  home:      %s\n", ui.Path.Sprint(env.settings.HomeDir))
		fmt.Fprintf(out, "  email:     %s\n", valueOrMuted(env.config.User.Email, "not set"))
		fmt.Fprintf(out, "  project:   %s\n", valueOrMuted(env.config.Defaults.ProjectID, "not set"))
		fmt.Fprintf(out, "  directory: %s\n", valueOrMuted(env.config.Directory.SupabaseURL, "not configured"))

		fmt.Fprintln(out, "\nKeyfile:")
		printKeyFileStatus(out, result.KeyFile)

		fmt.Fprintln(out, "\nEncrypted bundles:")
		if len(result.Bundles) == 0 {
			fmt.Fprintf(out, "  %s\n", ui.Muted.Sprintf("none found under %s", statusRoot))
		}
		for _, bundle := range result.Bundles {
			printBundleStatus(out, bundle)
		}

		return nil
	},
}

func valueOrMuted(value, fallback string) string {
	if value == "" {
		return ui.Muted.Sprint(fallback)
	}
	return ui.Highlight.Sprint(value)
}

func printKeyFileStatus(out io.Writer, status workflows.KeyFileStatus) {
	switch {
	case !status.Present:
		fmt.Fprint(out, "  "+ui.FailureLine(ui.Path.Sprint(status.Path)+" not found"))
		fmt.Fprint(out, "  "+ui.HintLine("Run "+ui.Code.Sprint("ripenv init")+" to create one"))
	case status.Err != nil:
		fmt.Fprint(out, "  "+ui.FailureLine(ui.Path.Sprint(status.Path)+": "+status.Err.Error()))
	default:
		fmt.Fprint(out, "  "+ui.SuccessLine(ui.Path.Sprint(status.Path)+" "+ui.Muted.Sprint(status.Fingerprint)))
	}
}

func printBundleStatus(out io.Writer, bundle workflows.BundleStatus) {
	name := ui.Path.Sprint(filepath.Dir(bundle.ManifestPath))
	if bundle.Err != nil {
		fmt.Fprint(out, "  "+ui.FailureLine(name+": "+bundle.Err.Error()))
		return
	}

	detail := fmt.Sprintf("project %s, %d recipients", ui.Highlight.Sprint(bundle.ProjectID), len(bundle.Recipients))
	if !bundle.PayloadPresent {
		fmt.Fprint(out, "  "+ui.FailureLine(name+": "+detail+", "+ui.Path.Sprint(bundle.PayloadPath)+" missing"))
		return
	}
	if !bundle.Listed {
		fmt.Fprint(out, "  "+ui.FailureLine(name+": "+detail+", you are not a recipient"))
		return
	}
	fmt.Fprint(out, "  "+ui.SuccessLine(name+": "+detail))
}
