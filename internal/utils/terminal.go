package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ReadPassphrase prompts the user for a passphrase without echoing input.
// When stdin is not a terminal, the first line of stdin is used instead so
// that scripts can pipe the password in.
func ReadPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return ReadPassphraseLine(os.Stdin)
	}

	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	return passphrase, nil
}

// ReadNewPassphrase prompts twice and fails when the entries differ.
// Piped input is read once, without confirmation.
func ReadNewPassphrase(prompt, confirmPrompt string) ([]byte, error) {
	if !IsTerminal() {
		return ReadPassphraseLine(os.Stdin)
	}

	first, err := ReadPassphrase(prompt)
	if err != nil {
		return nil, err
	}
	second, err := ReadPassphrase(confirmPrompt)
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if !bytes.Equal(first, second) {
		clear(first)
		return nil, fmt.Errorf("passphrases do not match")
	}
	return first, nil
}

// ReadPassphraseLine reads a single line from r, without the line ending.
func ReadPassphraseLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	return line, nil
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
