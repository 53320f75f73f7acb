package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/p4ctl/internal/charset"
	"github.com/danmuck/p4ctl/internal/protocol"
	"github.com/danmuck/p4ctl/internal/tools"
	"github.com/rs/zerolog/log"
)

var errUnsupportedCallback = errors.New("p4ctl: unsupported callback")

const defaultEditor = "vi"

// cliHandler prints server output the way the stock client does.
type cliHandler struct {
	stdout  io.Writer
	stderr  io.Writer
	input   *terminalInput
	charset charset.Charset
	tagged  bool
	editor  string
}

func editorCommand(getenv func(string) string) string {
	for _, key := range []string{"P4EDITOR", "EDITOR"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
	}
	return defaultEditor
}

func (h *cliHandler) Tagged() bool {
	return h.tagged
}

// Message prints a diagnostic, prefixed with its severity unless it is ok.
func (h *cliHandler) Message(sev protocol.Severity, text string) {
	if !sev.IsOK() {
		h.write(h.stdout, sev.String()+": ")
	}
	h.write(h.stdout, text+"\n")
}

func (h *cliHandler) HandleMessage(m protocol.Message) (*protocol.Builder, error) {
	switch m.Func() {
	case protocol.FuncFstatInfo:
		h.printTagged(m)
		return nil, nil
	case protocol.FuncOutputInfo:
		if h.tagged {
			h.printTagged(m)
			return nil, nil
		}
		data, _ := m.GetString("data")
		h.write(h.stdout, data+"\n")
		return nil, nil
	case protocol.FuncOutputText, protocol.FuncOutputData:
		data, _ := m.Get("data")
		_, err := h.stdout.Write(data)
		return nil, err
	case protocol.FuncOutputError:
		data, _ := m.GetString("data")
		h.write(h.stderr, data)
		return nil, nil
	case protocol.FuncEditData:
		return h.edit(m)
	case protocol.FuncErrorPause:
		data, _ := m.GetString("data")
		h.write(h.stdout, data+"\n")
		fmt.Fprintln(h.stdout, "Hit return to continue...")
		_, err := h.input.readLine()
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedCallback, m.Func())
	}
}

func (h *cliHandler) printTagged(m protocol.Message) {
	for _, name := range m.Names() {
		if name == protocol.ParamFunc {
			continue
		}
		h.write(h.stdout, "... "+name+" "+m.Lookup(name)+"\n")
	}
	fmt.Fprintln(h.stdout)
}

// edit lets the user change a form. A failing editor declines it.
func (h *cliHandler) edit(m protocol.Message) (*protocol.Builder, error) {
	f, err := os.CreateTemp("", "p4-EditData")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer os.Remove(path)

	data, _ := m.Get("data")
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	editor := tools.Process{Stdin: os.Stdin, Stdout: h.stdout, Stderr: h.stderr}
	if code, err := editor.RunLine(h.editor, path); err != nil {
		log.Debug().Err(err).Int("exit", code).Str("editor", h.editor).Msg("p4ctl: edit declined")
		decline, _ := m.Get("decline")
		return m.ToBuilder().ParamBytes(protocol.ParamFunc, decline), nil
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	confirm, _ := m.Get("confirm")
	return m.ToBuilder().
		ParamBytes("data", edited).
		ParamBytes(protocol.ParamFunc, confirm), nil
}

// write transcodes UTF-8 text to the client charset.
func (h *cliHandler) write(w io.Writer, text string) {
	out, err := h.charset.Encode(text)
	if err != nil {
		out = []byte(text)
	}
	_, _ = w.Write(out)
}
