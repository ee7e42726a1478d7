package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/ripenv/internal/audit"
	"github.com/PolarWolf314/ripenv/internal/configs"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
	"github.com/PolarWolf314/ripenv/internal/ui"
	"github.com/PolarWolf314/ripenv/internal/utils"
)

// Password prompts. Tests replace these.
var (
	readPassword    = utils.ReadPassphrase
	readNewPassword = utils.ReadNewPassphrase
)

// environment is the per-user state every command starts from.
type environment struct {
	settings *configs.Settings
	config   *configs.Config
	auditLog *audit.Log
}

func loadEnvironment() (*environment, error) {
	settings, err := configs.LoadSettings()
	if err != nil {
		return nil, err
	}
	Logger.Debugf("ripenv home: %s", settings.HomeDir)

	config, err := configs.Load(settings)
	if err != nil {
		return nil, err
	}

	return &environment{
		settings: settings,
		config:   config,
		auditLog: audit.New(settings.AuditLogPath()),
	}, nil
}

// startSpinner starts a spinner unless verbose output is on. The returned
// cleanup stops it and prints FinalMSG to the command's output.
func startSpinner(cmd *cobra.Command, message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet {
		s.Start()
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Cleared so s.Stop() doesn't print it to the terminal directly.
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Fprint(cmd.OutOrStdout(), finalMsg)
		}
	}

	return s, cleanup
}

// warnAlways prints a warning without tearing the spinner line.
func warnAlways(s *spinner.Spinner, msg string, args ...any) {
	active := s.Active()
	if active {
		s.Stop()
	}
	Logger.WarnfAlways(msg, args...)
	if active {
		s.Start()
	}
}

// reportFailure renders err as the spinner's final message and returns
// ErrReported so the process exits non-zero.
func reportFailure(s *spinner.Spinner, err error) error {
	Logger.Errorf("%v", err)
	s.FinalMSG = failureMessage(err)
	return ErrReported
}

// printFailure is reportFailure for commands with no spinner running.
func printFailure(cmd *cobra.Command, err error) error {
	Logger.Errorf("%v", err)
	fmt.Fprint(cmd.OutOrStdout(), failureMessage(err))
	return ErrReported
}

func failureMessage(err error) string {
	msg, hint := describeFailure(err)
	out := ui.FailureLine(msg)
	if hint != "" {
		out += ui.HintLine(hint)
	}
	return out
}

// describeFailure turns an error into a user-facing message and an optional
// hint. Every authentication failure gets the same message.
func describeFailure(err error) (string, string) {
	switch {
	case errors.Is(err, kerrors.ErrAuthentication):
		return "Decryption failed: wrong password, wrong keyfile, or the encrypted files were modified", ""
	case errors.Is(err, kerrors.ErrFileExists):
		return err.Error(), "Re-run with " + ui.Flag.Sprint("--force") + " to overwrite"
	case errors.Is(err, kerrors.ErrDirectoryNotConfigured):
		return err.Error(), "Pass " + ui.Flag.Sprint("--recipients") + " or run " +
			ui.Code.Sprint("ripenv config set directory.supabase_url <url>")
	case errors.Is(err, kerrors.ErrNoManifestEntry):
		return err.Error(), "Ask a project member to run " + ui.Code.Sprint("ripenv encrypt") +
			" again once your public key is registered"
	case errors.Is(err, kerrors.ErrNotProjectMember):
		return err.Error(), "Ask the project owner to add you in the web app"
	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return err.Error(), "Dates use the form " + ui.Code.Sprint("YYYY-MM-DD")
	case errors.Is(err, kerrors.ErrUnsupportedKDF), errors.Is(err, kerrors.ErrUnsupportedManifest):
		return err.Error(), "This file was written by a newer or different tool"
	default:
		return err.Error(), ""
	}
}
