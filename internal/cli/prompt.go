package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirm asks a yes/no question on the terminal. --yes answers for the user.
func (c *CLI) Confirm(_ context.Context, prompt string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	answer, err := c.readLine()
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// prompt prints label and reads one line.
func (c *CLI) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	return c.readLine()
}

func (c *CLI) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo on a terminal and a plain line otherwise.
func (c *CLI) readPassword(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
