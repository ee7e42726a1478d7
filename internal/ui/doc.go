// Package ui provides semantic text formatting for CLI output.
//
// Formatters are picked by what the text is, not how it should look:
//
//	ui.Code.Sprint("ripenv init")          // commands
//	ui.Path.Sprint(".env.enc")             // file paths
//	ui.Highlight.Sprint("alice@x.io")      // user values
//	ui.Muted.Sprint(fingerprint)           // secondary text
//
// SuccessLine, FailureLine and HintLine build the "✓", "✗" and "→" lines
// used for spinner final messages.
//
// Colors are disabled when NO_COLOR is set or the terminal cannot show them.
// Code, Highlight and Muted then fall back to `backticks`, 'quotes' and
// (parentheses).
package ui
