// Package prompt reads interactive input for the login flow.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

func ReadLine(r io.Reader, w io.Writer, prompt string) (string, error) {
	if prompt != "" {
		_, _ = fmt.Fprint(w, prompt)
	}
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil {
		// Allow EOF with partial line
		if err == io.EOF {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword reads a password with echo disabled when stdin is a
// terminal. Without a terminal it falls back to reading from r, which may
// echo.
func ReadPassword(w io.Writer, prompt string, r io.Reader) (string, error) {
	if prompt != "" {
		_, _ = fmt.Fprint(w, prompt)
	}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return ReadLine(r, w, "")
}
