package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PassphraseEnv supplies the snapshot passphrase without a prompt
const PassphraseEnv = "MTC_SYNC_PASSPHRASE"

// promptSecret reads a secret from the terminal without echo, or a line from
// stdin when it is not a terminal
func promptSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to read secret: %w", err)
		}
		return secret, nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// passphrase returns the snapshot passphrase from the environment or a prompt
func passphrase() (string, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}
	secret, err := promptSecret("Sync passphrase: ")
	if err != nil {
		return "", err
	}
	return string(secret), nil
}
