package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads secrets without echo from a terminal, or one per line when
// input is piped.
type prompter struct {
	fd     int
	isTerm bool
	lines  *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{out: out, lines: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.isTerm = true
	}
	return p
}

func (p *prompter) password(prompt string) (string, error) {
	if p.isTerm {
		fmt.Fprint(p.out, prompt)
		password, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out) // New line after password
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	line, err := p.lines.ReadString('\n')
	switch {
	case errors.Is(err, io.EOF) && line == "":
		return "", fmt.Errorf("no input for %q", strings.TrimSpace(prompt))
	case err != nil && !errors.Is(err, io.EOF):
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
