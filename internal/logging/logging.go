package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type Logger struct {
	Verbose bool
	Debug   bool

	// Out and Err default to os.Stdout and os.Stderr when nil.
	Out io.Writer
	Err io.Writer
}

func (l Logger) stdout() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) stderr() io.Writer {
	if l.Err != nil {
		return l.Err
	}
	return os.Stderr
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.stdout(), color.GreenString("[info] ")+msg+"\n", args...)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.stdout(), color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(l.stderr(), color.YellowString("[warn] ")+msg+"\n", args...)
	}
}

// WarnfAlways prints regardless of verbosity. Use it for warnings the user
// must act on, such as an empty .env file being encrypted.
func (l Logger) WarnfAlways(msg string, args ...any) {
	fmt.Fprintf(l.stderr(), color.YellowString("[warn] ")+msg+"\n", args...)
}

func (l Logger) Errorf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(l.stderr(), color.RedString("[error] ")+msg+"\n", args...)
	}
}

// ErrorfAndReturn logs like Errorf and returns the formatted message as an
// error. %w verbs are honoured so callers can still match sentinels.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	err := fmt.Errorf(msg, args...)
	if l.Debug {
		fmt.Fprintln(l.stderr(), color.RedString("[error] ")+err.Error())
	}
	return err
}
