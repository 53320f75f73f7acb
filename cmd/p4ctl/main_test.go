package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/p4ctl/internal/charset"
	"github.com/danmuck/p4ctl/internal/protocol"
	"github.com/danmuck/p4ctl/internal/protocol/frame"
	"github.com/danmuck/p4ctl/internal/testutil/testlog"
)

func envOf(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestParseOptionsPrecedence(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "p4ctl.toml")
	body := "port = \"file:1666\"\nuser = \"file-user\"\nclient = \"file-ws\"\ncharset = \"cp1251\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := envOf(map[string]string{"P4USER": "env-user", "P4PORT": "env:1666"})

	var stderr bytes.Buffer
	opts, err := parseOptions([]string{"-config", path, "-p", "flag:1777", "-Ztag", "-vrpc", "1", "files", "//depot/..."}, &stderr, env)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.client.Port != "flag:1777" {
		t.Fatalf("flag should win, got port %q", opts.client.Port)
	}
	if opts.client.User != "env-user" {
		t.Fatalf("env should beat file, got user %q", opts.client.User)
	}
	if opts.client.Client != "file-ws" || opts.client.Charset != "cp1251" {
		t.Fatalf("file values lost: %+v", opts.client)
	}
	if !opts.client.Tag || !opts.client.Verbose {
		t.Fatalf("flags not applied: %+v", opts.client)
	}
	if opts.command != "files" || len(opts.args) != 1 || opts.args[0] != "//depot/..." {
		t.Fatalf("unexpected command=%q args=%v", opts.command, opts.args)
	}
}

func TestParseOptionsErrors(t *testing.T) {
	testlog.Start(t)
	var stderr bytes.Buffer
	env := envOf(map[string]string{"USER": "jack"})
	if _, err := parseOptions(nil, &stderr, env); err == nil {
		t.Fatalf("expected missing command error")
	}
	if _, err := parseOptions([]string{"-C", "ebcdic", "info"}, &stderr, env); err == nil {
		t.Fatalf("expected charset error")
	}
	opts, err := parseOptions([]string{"info"}, &stderr, env)
	if err != nil || opts.client.User != "jack" {
		t.Fatalf("expected $USER fallback, got %+v err=%v", opts.client, err)
	}
}

func testHandler(stdin string) (*cliHandler, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &cliHandler{
		stdout:  &stdout,
		stderr:  &stderr,
		input:   newTerminalInput(strings.NewReader(stdin), &stderr),
		charset: charset.UTF8,
		editor:  "true",
	}, &stdout, &stderr
}

func TestHandlerOutput(t *testing.T) {
	testlog.Start(t)
	h, stdout, stderr := testHandler("")
	h.Message(protocol.SeverityInfo, "fine")
	h.Message(protocol.SeverityFailed, "broken")
	if _, err := h.HandleMessage(protocol.NewBuilder().Func(protocol.FuncFstatInfo).Param("depotFile", "//a").Param("headRev", "2").Build()); err != nil {
		t.Fatalf("fstat: %v", err)
	}
	if _, err := h.HandleMessage(protocol.NewBuilder().Func(protocol.FuncOutputError).Param("data", "oops\n").Build()); err != nil {
		t.Fatalf("output error: %v", err)
	}
	want := "fine\nFailed: broken\n... depotFile //a\n... headRev 2\n\n"
	if stdout.String() != want {
		t.Fatalf("stdout got=%q want=%q", stdout.String(), want)
	}
	if stderr.String() != "oops\n" {
		t.Fatalf("stderr got=%q", stderr.String())
	}
	if _, err := h.HandleMessage(protocol.NewBuilder().Func("client-Mystery").Build()); err == nil {
		t.Fatalf("expected unsupported callback error")
	}
}

func TestHandlerTranscodesOutput(t *testing.T) {
	testlog.Start(t)
	h, stdout, _ := testHandler("")
	h.charset, _ = charset.Lookup("cp1251")
	h.Message(protocol.SeverityInfo, "файл")
	if !bytes.Equal(stdout.Bytes(), []byte{0xF4, 0xE0, 0xE9, 0xEB, '\n'}) {
		t.Fatalf("unexpected bytes % X", stdout.Bytes())
	}
}

func TestEditDataConfirmAndDecline(t *testing.T) {
	testlog.Start(t)
	h, _, _ := testHandler("")
	form := protocol.NewBuilder().
		Func(protocol.FuncEditData).
		Param("data", "Change: new\n").
		Param("confirm", "dm-Confirm").
		Param("decline", "dm-Decline").
		Build()

	resp, err := h.HandleMessage(form)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	m := resp.Build()
	if m.Func() != "dm-Confirm" || m.Lookup("data") != "Change: new\n" {
		t.Fatalf("unexpected confirm response %v", m.Params())
	}

	h.editor = "false"
	resp, err = h.HandleMessage(form)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := resp.Build().Func(); got != "dm-Decline" {
		t.Fatalf("expected decline, got %q", got)
	}
}

func TestErrorPauseWaitsForReturn(t *testing.T) {
	testlog.Start(t)
	h, stdout, _ := testHandler("\n")
	if _, err := h.HandleMessage(protocol.NewBuilder().Func(protocol.FuncErrorPause).Param("data", "bad things").Build()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !strings.Contains(stdout.String(), "bad things\nHit return to continue...") {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
	if _, err := h.HandleMessage(protocol.NewBuilder().Func(protocol.FuncErrorPause).Param("data", "again").Build()); err == nil {
		t.Fatalf("expected eof error once stdin is exhausted")
	}
}

func TestTerminalInputReadsLines(t *testing.T) {
	testlog.Start(t)
	var prompts bytes.Buffer
	in := newTerminalInput(strings.NewReader("secret\r\nlast"), &prompts)
	if v, err := in.ResolveInput("Password: ", true); err != nil || v != "secret" {
		t.Fatalf("got=%q err=%v", v, err)
	}
	if v, err := in.ResolveInput("Again: ", false); err != nil || v != "last" {
		t.Fatalf("got=%q err=%v", v, err)
	}
	if prompts.String() != "Password: Again: " {
		t.Fatalf("unexpected prompts %q", prompts.String())
	}
}

func TestRunAgainstServer(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		limits := frame.DefaultLimits()
		send := func(b *protocol.Builder) {
			if _, err := protocol.Write(conn, b.Build(), limits); err != nil {
				t.Errorf("server write: %v", err)
			}
		}
		for _, want := range []string{protocol.FuncProtocol, "user-info"} {
			if m, _, err := protocol.Read(conn, limits); err != nil || m.Func() != want {
				t.Errorf("expected %s got=%q err=%v", want, m.Func(), err)
				return
			}
		}
		send(protocol.NewBuilder().Func(protocol.FuncRelease))
		cmd, _, err := protocol.Read(conn, limits)
		if err != nil || cmd.Func() != "user-where" {
			t.Errorf("unexpected command %q err=%v", cmd.Func(), err)
			return
		}
		send(protocol.NewBuilder().Func(protocol.FuncMessage).
			Param("code0", protocol.NewErrorCode(protocol.SeverityFailed, 0, 0, 6, 3).String()).
			Param("fmt0", "file(s) not in client view."))
		send(protocol.NewBuilder().Func(protocol.FuncRelease))
	}()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-p", ln.Addr().String(), "-u", "jack", "where"}, strings.NewReader(""), &stdout, &stderr, envOf(nil))
	<-done
	if code != 1 {
		t.Fatalf("expected exit 1 for failed command, got %d stderr=%s", code, stderr.String())
	}
	if stdout.String() != "Failed: file(s) not in client view.\n" {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
}
