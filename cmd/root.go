package cmd

import (
	"errors"

	logger "github.com/PolarWolf314/ripenv/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ErrReported is returned by commands whose failure message has already
// been printed. Callers should exit non-zero without printing it again.
var ErrReported = errors.New("command failed")

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	RootCmd = &cobra.Command{
		Use:     "ripenv",
		Version: "0.1.0",
		Short:   "Encrypt .env files for every member of a project",
		Long: `ripenv encrypts environment files so that every member of a project can
decrypt them with their own password-protected keyfile.

A .env file is encrypted once under a fresh file key. That key is sealed to
each member's public key and stored in ripenv.manifest.json next to the
encrypted .env.enc. Both files are safe to commit.

Getting started:
  ripenv init                                   # create your keyfile
  ripenv encrypt --recipients recipients.export.json
  ripenv decrypt --email you@example.com`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.OutOrStdout(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Initializing %s command with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(encryptCmd)
	RootCmd.AddCommand(decryptCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(ConfigCmd)
}

// ResetGlobalState resets flag variables between in-process runs in tests.
func ResetGlobalState() {
	verbose = false
	debug = false
	resetInitCommandState()
	resetEncryptCommandState()
	resetDecryptCommandState()
	resetStatusCommandState()
	resetLogCommandState()

	resetFlagState(RootCmd)
}

func resetFlagState(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
	for _, child := range cmd.Commands() {
		resetFlagState(child)
	}
}
