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

// terminalInput answers server prompts from stdin. Passwords are read
// without echo when stdin is a terminal.
type terminalInput struct {
	r   *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newTerminalInput(stdin io.Reader, out io.Writer) *terminalInput {
	in := &terminalInput{r: bufio.NewReader(stdin), out: out, fd: -1}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		in.fd = int(f.Fd())
		in.tty = true
	}
	return in
}

func (in *terminalInput) ResolveInput(prompt string, noEcho bool) (string, error) {
	fmt.Fprint(in.out, prompt)
	if noEcho && in.tty {
		pw, err := term.ReadPassword(in.fd)
		fmt.Fprintln(in.out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	return in.readLine()
}

func (in *terminalInput) readLine() (string, error) {
	line, err := in.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
