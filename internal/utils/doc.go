// Package utils provides shared helpers for ripenv.
//
// # Filesystem Utilities
//
//   - CheckOverwrite: refuses to clobber existing outputs unless forced
//   - WriteFileSecure: writes files readable only by the owner
//   - ExpandHome: expands a leading ~ in configured paths
//
// # String Utilities
//
//   - FormatPaths: formats file paths for human-readable output
//   - IsValidEmail, NormalizeEmail
//
// # Terminal Utilities
//
//   - ReadPassphrase, ReadNewPassphrase: hidden password prompts that fall
//     back to reading one line when stdin is piped
//   - IsTerminal: checks if stdin is a terminal
package utils
