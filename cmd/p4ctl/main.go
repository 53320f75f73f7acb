package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/danmuck/p4ctl/internal/config"
	"github.com/danmuck/p4ctl/internal/logging"
	"github.com/danmuck/p4ctl/internal/protocol/session"
	"github.com/danmuck/p4ctl/internal/transport"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	opts, err := parseOptions(args, stderr, getenv)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "p4ctl: %v\n", err)
		return 2
	}
	logging.ConfigureRuntime()

	sessCfg, err := opts.client.Session()
	if err != nil {
		fmt.Fprintf(stderr, "p4ctl: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stream, err := transport.Dial(ctx, opts.client.Transport())
	if err != nil {
		fmt.Fprintf(stderr, "p4ctl: %v\n", err)
		return 1
	}

	input := newTerminalInput(stdin, stderr)
	h := &cliHandler{
		stdout:  stdout,
		stderr:  stderr,
		input:   input,
		charset: config.CharsetOf(opts.client),
		tagged:  opts.client.Tag,
		editor:  editorCommand(getenv),
	}
	sess := session.Open(stream, sessCfg, input, h)
	defer sess.Close()

	ok, err := sess.Call(ctx, h, opts.command, opts.args...)
	if err != nil {
		fmt.Fprintf(stderr, "p4ctl: %v\n", err)
		return 1
	}
	if !ok {
		return 1
	}
	return 0
}
