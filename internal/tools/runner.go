package tools

import (
	"errors"
	"io"
	"os/exec"
	"strings"
)

// ExitNotFound is reported when the command could not be started.
const ExitNotFound = 127

// Process describes a command attached to the caller's stdio.
type Process struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts name with args and waits. The exit code is 0 on success,
// the process exit status on failure, and ExitNotFound when it could not
// be started.
func (p Process) Run(name string, args ...string) (int, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), err
	}

	exitCode := 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = ExitNotFound
	}
	return exitCode, err
}

// RunLine splits a command line such as "code --wait" on whitespace and
// appends args.
func (p Process) RunLine(line string, args ...string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ExitNotFound, &exec.Error{Name: line, Err: exec.ErrNotFound}
	}
	return p.Run(fields[0], append(fields[1:], args...)...)
}
