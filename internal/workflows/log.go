package workflows

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PolarWolf314/ripenv/internal/audit"
	kerrors "github.com/PolarWolf314/ripenv/internal/errors"
)

const dateLayout = "2006-01-02"

// LogOptions configures the log workflow.
type LogOptions struct {
	// AuditLog is the log to read. Nil reads nothing.
	AuditLog *audit.Log

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// Email filters entries by user email, ignoring case.
	Email string

	// ProjectID filters entries by project.
	ProjectID string

	// Operations filters entries by operation (comma-separated).
	Operations string

	// Since keeps entries on or after this date (YYYY-MM-DD).
	Since string

	// Until keeps entries on or before this date (YYYY-MM-DD).
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log. A missing log yields no entries.
//
// Returns ErrInvalidDateFormat if Since or Until is not YYYY-MM-DD.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	// Parse the dates first so a typo is reported even on an empty log.
	var since, until time.Time
	if opts.Since != "" {
		t, err := time.Parse(dateLayout, opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since %q, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat, opts.Since)
		}
		since = t
	}
	if opts.Until != "" {
		t, err := time.Parse(dateLayout, opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until %q, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat, opts.Until)
		}
		// Include the whole day.
		until = t.Add(24*time.Hour - time.Nanosecond)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &LogResult{}
	if opts.AuditLog == nil {
		return result, nil
	}

	entries, err := opts.AuditLog.Entries()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	result.TotalEntriesBeforeFilter = len(entries)

	filtered := entries
	if opts.Email != "" {
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			return strings.EqualFold(strings.TrimSpace(e.Email), strings.TrimSpace(opts.Email))
		})
	}
	if opts.ProjectID != "" {
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			return e.ProjectID == opts.ProjectID
		})
	}
	if opts.Operations != "" {
		ops := make(map[string]bool)
		for _, op := range strings.Split(opts.Operations, ",") {
			ops[strings.ToLower(strings.TrimSpace(op))] = true
		}
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			return ops[strings.ToLower(e.Operation)]
		})
	}
	if !since.IsZero() {
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			t, ok := parseTimestamp(e.Timestamp)
			return ok && !t.Before(since)
		})
	}
	if !until.IsZero() {
		filtered = filterEntries(filtered, func(e audit.Entry) bool {
			t, ok := parseTimestamp(e.Timestamp)
			return ok && !t.After(until)
		})
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// The limit always keeps the most recent entries.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func filterEntries(entries []audit.Entry, keep func(audit.Entry) bool) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(audit.TimestampLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDate formats a timestamp as YYYY-MM-DD.
func FormatDate(ts string) string {
	if t, ok := parseTimestamp(ts); ok {
		return t.Format(dateLayout)
	}
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// FormatDateTime formats a timestamp as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(ts string) string {
	if t, ok := parseTimestamp(ts); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	if len(ts) >= 19 {
		return ts[:19]
	}
	return ts
}

// FormatDetails describes what an entry touched.
func FormatDetails(e audit.Entry) string {
	switch e.Operation {
	case audit.OpEncrypt:
		return fmt.Sprintf("%d recipients", e.RecipientsCount)
	case audit.OpDecrypt:
		return strings.Join(e.Files, ", ")
	case audit.OpInit:
		return fmt.Sprintf("%d keyfiles", len(e.Files))
	default:
		return ""
	}
}

// FormatDetailsOneline is FormatDetails with file paths shortened to names.
func FormatDetailsOneline(e audit.Entry) string {
	if e.Operation != audit.OpDecrypt {
		return FormatDetails(e)
	}
	names := make([]string, len(e.Files))
	for i, f := range e.Files {
		names[i] = filepath.Base(f)
	}
	return strings.Join(names, ",")
}
