package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/p4ctl/internal/expand"
	"github.com/danmuck/p4ctl/internal/mangle"
	"github.com/danmuck/p4ctl/internal/protocol"
)

// builtin is the closed set of callbacks the session answers itself.
type builtin int

const (
	builtinNone builtin = iota
	builtinFlush
	builtinProtocol
	builtinCrypto
	builtinSetPassword
	builtinPrompt
	builtinMessage
)

// daddrProtocol is the first server level that binds digests to the
// server address.
const daddrProtocol = 29

const truncateLen = 16

func lookupBuiltin(fn string) builtin {
	switch fn {
	case protocol.FuncFlush1:
		return builtinFlush
	case protocol.FuncProtocol:
		return builtinProtocol
	case protocol.FuncCrypto:
		return builtinCrypto
	case protocol.FuncSetPassword:
		return builtinSetPassword
	case protocol.FuncPrompt:
		return builtinPrompt
	case protocol.FuncMessage:
		return builtinMessage
	default:
		return builtinNone
	}
}

func (s *Session) dispatch(c *call, m protocol.Message) (*protocol.Builder, error) {
	switch lookupBuiltin(m.Func()) {
	case builtinFlush:
		return s.flush(m), nil
	case builtinProtocol:
		return nil, s.serverLevel(m)
	case builtinCrypto:
		return s.crypto(m), nil
	case builtinSetPassword:
		return nil, s.setPassword(m)
	case builtinPrompt:
		return s.prompt(m)
	case builtinMessage:
		return nil, c.message(m)
	}
	if c.handler == nil {
		return nil, nil
	}
	resp, err := c.handler.HandleMessage(m)
	if err != nil {
		return nil, fmt.Errorf("session: handler %s: %w", m.Func(), err)
	}
	return resp, nil
}

func (s *Session) flush(m protocol.Message) *protocol.Builder {
	seq, _ := m.Get("fseq")
	return protocol.NewBuilder().
		ParamBytes("fseq", seq).
		Func(protocol.FuncFlush2)
}

func (s *Session) serverLevel(m protocol.Message) error {
	raw, ok := m.GetString("server2")
	if !ok {
		raw, ok = m.GetString("server")
	}
	if ok {
		level, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: server level %q", protocol.ErrBadNumber, raw)
		}
		s.serverProtocol = level
	}
	if m.Has("unicode") {
		s.unicode = true
		s.base.Param("unicode", "1")
	}
	return nil
}

func (s *Session) crypto(m protocol.Message) *protocol.Builder {
	confirm, _ := m.Get("confirm")
	resp := protocol.NewBuilder().ParamBytes(protocol.ParamFunc, confirm)
	if s.secretToken == nil {
		return resp.Param("token", "")
	}
	token, _ := m.Get("token")
	result := s.bindAddr(mangle.MD5Hex(token, s.secretToken))
	return resp.
		ParamBytes("token", result).
		ParamBytes("daddr", s.daddr)
}

func (s *Session) setPassword(m protocol.Message) error {
	digest, ok := m.Get("digest")
	if !ok || s.secretHash == nil {
		return nil
	}
	data, _ := m.Get("data")
	pad, err := mangle.DigestEncrypt(digest, s.secretHash)
	if err != nil {
		return err
	}
	ticket, err := mangle.Xor(data, pad)
	if err != nil {
		return err
	}
	s.secretToken = ticket
	return nil
}

func (s *Session) prompt(m protocol.Message) (*protocol.Builder, error) {
	if s.password == "" && !m.Has("noprompt") {
		text, _ := m.GetString("data")
		pw, err := s.resolver.ResolveInput(text, m.Has("noecho"))
		if err != nil {
			return nil, fmt.Errorf("%w: resolve input: %w", protocol.ErrTransport, err)
		}
		s.password = pw
	}

	secret := []byte(s.password)
	if m.Has("truncate") && len(secret) > truncateLen {
		secret = secret[:truncateLen]
	}

	digest, hasDigest := m.Get("digest")
	result := secret
	if hasDigest {
		result = mangle.MD5Hex(secret)
		s.secretHash = result
		if len(digest) > 0 {
			result = mangle.MD5Hex(result, digest)
		}
		result = s.bindAddr(result)
	}

	confirm, _ := m.Get("confirm")
	return m.ToBuilder().
		ParamBytes(protocol.ParamFunc, confirm).
		ParamBytes("data", result).
		ParamBytes("digest", digest).
		ParamBytes("daddr", s.daddr), nil
}

// bindAddr rehashes a digest with the server address on servers that
// expect it.
func (s *Session) bindAddr(digest []byte) []byte {
	if s.daddr == nil || s.serverProtocol < daddrProtocol {
		return digest
	}
	return mangle.MD5Hex(digest, s.daddr)
}

func (c *call) message(m protocol.Message) error {
	for i := 0; ; i++ {
		raw, ok := m.GetString("code" + strconv.Itoa(i))
		if !ok {
			return nil
		}
		code, err := protocol.ParseErrorCode(raw)
		if err != nil {
			return err
		}
		sev := code.Severity()
		text := expand.Expand(m.Lookup("fmt"+strconv.Itoa(i)), m.Lookup)
		c.output.Message(sev, text)
		c.severity = c.severity.Max(sev)
	}
}
