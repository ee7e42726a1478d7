// Package logger provides leveled logging for ripenv commands.
//
// Output carries colored prefixes: [info], [debug], [warn] and [error].
// Verbosity is controlled by two flags:
//
//   - --verbose: shows info and warning messages
//   - --debug: shows everything, including debug details and errors
//
// Without flags only WarnfAlways output is printed; command errors are
// reported by the command itself.
//
// # Usage
//
//	log := logger.Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Sealing file key for %d recipients", n)
//
// The root command builds the logger in PersistentPreRun and passes it to
// workflows through their options.
package logger
