package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Formatter renders one kind of CLI content. With color it only colorizes;
// without color it falls back to the prefix and suffix decorations.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments like fmt.Sprint.
func (f Formatter) Sprint(a ...any) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf formats like fmt.Sprintf.
func (f Formatter) Sprintf(format string, a ...any) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Semantic formatters for CLI output.
var (
	// Code formats runnable commands. `backticks` without color.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path formats file or directory paths.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	// Flag formats CLI flags like --force.
	Flag = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}

	// Info formats hints and directional arrows.
	Info = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats user values such as emails and project ids.
	// 'single quotes' without color.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Muted formats secondary text such as fingerprints. (parentheses)
	// without color.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)

// Status line markers.
const (
	markSuccess = "✓"
	markFailure = "✗"
	markHint    = "→"
)

// SuccessLine returns "✓ msg" terminated by a newline.
func SuccessLine(msg string) string {
	return EnsureNewline(Success.Sprint(markSuccess) + " " + msg)
}

// FailureLine returns "✗ msg" terminated by a newline.
func FailureLine(msg string) string {
	return EnsureNewline(Error.Sprint(markFailure) + " " + msg)
}

// HintLine returns "→ msg" terminated by a newline.
func HintLine(msg string) string {
	return EnsureNewline(Info.Sprint(markHint) + " " + msg)
}

// EnsureNewline ensures the string ends with a newline character.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// noColor reports whether output should be plain. NO_COLOR
// (https://no-color.org/) wins over fatih/color's terminal detection.
func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}
