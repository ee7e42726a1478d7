package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/ripenv/internal/audit"
	"github.com/PolarWolf314/ripenv/internal/workflows"
)

var (
	logLimit     int
	logReverse   bool
	logEmail     string
	logProjectID string
	logOperation string
	logSince     string
	logUntil     string
	logOneline   bool
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logEmail, "email", "", "filter by user email")
	logCmd.Flags().StringVar(&logProjectID, "project-id", "", "filter by project")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation (comma-separated: init,encrypt,decrypt)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries on or after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries on or before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
	logCmd.MarkFlagsMutuallyExclusive("oneline", "json")
}

func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logEmail = ""
	logProjectID = ""
	logOperation = ""
	logSince = ""
	logUntil = ""
	logOneline = false
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the local audit log",
	Long: `Shows the init, encrypt and decrypt operations recorded on this machine.

Examples:
  ripenv log                              # View full log
  ripenv log -n 10                        # Last 10 entries
  ripenv log --reverse                    # Most recent first
  ripenv log --email alice@example.com    # Filter by user
  ripenv log --operation encrypt,decrypt  # Filter by operation
  ripenv log --since 2024-01-01           # Filter by date
  ripenv log --json                       # JSON output`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting log command")

		env, err := loadEnvironment()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %w", err)
		}
		Logger.Debugf("audit log: %s", env.auditLog.Path)

		result, err := workflows.Log(cmd.Context(), workflows.LogOptions{
			AuditLog:   env.auditLog,
			Limit:      logLimit,
			Reverse:    logReverse,
			Email:      logEmail,
			ProjectID:  logProjectID,
			Operations: logOperation,
			Since:      logSince,
			Until:      logUntil,
		})
		if err != nil {
			return printFailure(cmd, err)
		}

		Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
		Logger.Debugf("After filtering: %d entries", len(result.Entries))

		out := cmd.OutOrStdout()
		if len(result.Entries) == 0 {
			if result.TotalEntriesBeforeFilter == 0 {
				fmt.Fprintln(out, "No audit log entries found.")
			} else {
				fmt.Fprintln(out, "No audit log entries found matching the filters.")
			}
			return nil
		}

		switch {
		case logJSON:
			return outputLogJSON(out, result.Entries)
		case logOneline:
			outputLogOneline(out, result.Entries)
		default:
			outputLogDefault(out, result.Entries)
		}
		return nil
	},
}

func outputLogJSON(out io.Writer, entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func outputLogOneline(out io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%s %s %s %s %s\n", workflows.FormatDate(e.Timestamp), orDash(e.Email),
			e.Operation, orDash(e.ProjectID), workflows.FormatDetailsOneline(e))
	}
}

func outputLogDefault(out io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%-19s  %-25s  %-8s  %-12s  %s\n", workflows.FormatDateTime(e.Timestamp), orDash(e.Email),
			e.Operation, orDash(e.ProjectID), workflows.FormatDetails(e))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
