package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/p4ctl/internal/mangle"
	"github.com/danmuck/p4ctl/internal/observability"
	"github.com/danmuck/p4ctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// State is the session lifecycle stage.
type State int

const (
	StateFresh State = iota
	// StateNegotiated means the handshake was sent but the probe has not
	// completed.
	StateNegotiated
	StateReady
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateNegotiated:
		return "negotiated"
	case StateReady:
		return "ready"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

const loginCommand = "login"

// Session is a single client conversation over one stream.
type Session struct {
	mu sync.Mutex

	stream   io.ReadWriter
	cfg      Config
	resolver InputResolver
	output   Output

	base  *protocol.Builder
	state State

	serverProtocol int
	unicode        bool

	password    string
	secretHash  []byte
	secretToken []byte
	daddr       []byte
}

// call carries per-command state through the dispatch loop.
type call struct {
	command  string
	handler  Handler
	output   Output
	severity protocol.Severity
}

// Open wraps a connected stream. Nothing is sent until the first Call.
// A nil resolver answers prompts with an empty string; a nil output
// discards diagnostics.
func Open(stream io.ReadWriter, cfg Config, resolver InputResolver, output Output) *Session {
	cfg = cfg.withDefaults()
	if resolver == nil {
		resolver = StaticInput("")
	}
	if output == nil {
		output = DiscardOutput
	}
	return &Session{
		stream:   stream,
		cfg:      cfg,
		resolver: resolver,
		output:   output,
		base:     baseTemplate(cfg),
		password: cfg.Password,
		daddr:    remoteAddr(stream),

		serverProtocol: -1,
	}
}

func baseTemplate(cfg Config) *protocol.Builder {
	clientCase := "1"
	if cfg.CaseInsensitive {
		clientCase = "0"
	}
	b := protocol.NewBuilder().
		Param("autoLogin", "").
		Param("enableStreams", "").
		Param("expandAndmaps", "").
		Param("client", cfg.Client).
		Param("cwd", cfg.Cwd).
		Param("os", cfg.OS).
		Param("user", cfg.Username).
		Param("charset", cfg.Charset).
		Param("clientCase", clientCase)
	if cfg.Host != "" {
		b.Param("host", cfg.Host)
	}
	if cfg.Program != "" {
		b.Param("prog", cfg.Program)
	}
	if cfg.Version != "" {
		b.Param("version", cfg.Version)
	}
	return b
}

// remoteAddr returns "ip:port" of the peer for TCP-backed streams.
func remoteAddr(stream io.ReadWriter) []byte {
	conn, ok := stream.(interface{ RemoteAddr() net.Addr })
	if !ok {
		return nil
	}
	tcp, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok || tcp == nil {
		return nil
	}
	return []byte(net.JoinHostPort(tcp.IP.String(), strconv.Itoa(tcp.Port)))
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ServerProtocol is the protocol level announced by the server, or -1
// before the first handshake completes.
func (s *Session) ServerProtocol() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverProtocol
}

// Unicode reports whether the server announced a unicode-mode depot.
func (s *Session) Unicode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unicode
}

// Close closes the underlying stream when it is closable.
func (s *Session) Close() error {
	if c, ok := s.stream.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Call runs command with args and reports whether no diagnostic above
// Info severity was received. Errors are reserved for transport,
// protocol, crypto and handler failures.
func (s *Session) Call(ctx context.Context, handler Handler, command string, args ...string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reset := s.applyDeadline(ctx)
	defer reset()

	if err := s.negotiate(); err != nil {
		return false, s.wrapCtx(ctx, err)
	}
	ok, err := s.run(&call{command: command, handler: handler, output: s.output}, args)
	return ok, s.wrapCtx(ctx, err)
}

// negotiate sends the handshake once and runs the probe until it
// completes. The caller holds s.mu.
func (s *Session) negotiate() error {
	if s.state == StateFresh {
		hs := protocol.NewBuilder().
			Param("client", s.cfg.ClientProtocol).
			Param("sndbuf", strconv.Itoa(s.cfg.SendBuffer)).
			Param("rcvbuf", strconv.Itoa(s.cfg.RecvBuffer)).
			Func(protocol.FuncProtocol)
		if err := s.send(hs.Build()); err != nil {
			return err
		}
		s.state = StateNegotiated
	}
	if s.state != StateNegotiated {
		return nil
	}

	ok, err := s.run(&call{command: s.cfg.ProbeCommand, output: debugOutput}, nil)
	if err != nil {
		return err
	}
	if !ok {
		log.Debug().Str("probe", s.cfg.ProbeCommand).Msg("session: probe failed, logging in")
		if _, err := s.run(&call{command: loginCommand, output: debugOutput}, nil); err != nil {
			return err
		}
	}
	s.state = StateReady
	return nil
}

func (s *Session) run(c *call, args []string) (bool, error) {
	start := time.Now()
	req := s.base.Clone().Func(protocol.UserPrefix + c.command).Args(args...)
	if c.handler != nil && isTagged(c.handler) {
		req.Param("tag", "")
	}
	if err := s.send(req.Build()); err != nil {
		return false, s.fail(c, err)
	}

	for {
		m, err := s.recv()
		if err != nil {
			return false, s.fail(c, err)
		}
		fn := m.Func()
		if fn == "" {
			return false, s.fail(c, protocol.ErrMissingFunc)
		}
		if fn == protocol.FuncRelease {
			break
		}
		resp, err := s.dispatch(c, m)
		if err != nil {
			return false, s.fail(c, err)
		}
		if resp == nil || resp.Empty() {
			continue
		}
		if err := s.send(resp.Build()); err != nil {
			return false, s.fail(c, err)
		}
	}

	ok := c.severity.IsOK()
	observability.RecordCall(c.command, ok, time.Since(start))
	return ok, nil
}

func (s *Session) send(m protocol.Message) error {
	s.trace(">>", m)
	n, err := protocol.Write(s.stream, m, s.cfg.Limits)
	if err != nil {
		return err
	}
	observability.RecordFrame(observability.DirectionSent, m.Func(), n)
	return nil
}

func (s *Session) recv() (protocol.Message, error) {
	m, n, err := protocol.Read(s.stream, s.cfg.Limits)
	if err != nil {
		return protocol.Message{}, err
	}
	s.trace("<<", m)
	observability.RecordFrame(observability.DirectionReceived, m.Func(), n)
	return m, nil
}

func (s *Session) trace(dir string, m protocol.Message) {
	if !s.cfg.Verbose {
		return
	}
	log.Info().Str("dir", dir).Object("msg", m).Msg("rpc")
}

func (s *Session) fail(c *call, err error) error {
	observability.RecordCallError(c.command, errorKind(err))
	log.Debug().Err(err).Str("command", c.command).Msg("session: call failed")
	return err
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, protocol.ErrTransport):
		return "transport"
	case errors.Is(err, protocol.ErrProtocol):
		return "protocol"
	case errors.Is(err, mangle.ErrCrypto):
		return "crypto"
	default:
		return "handler"
	}
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// applyDeadline pushes the context deadline onto the stream when the
// stream supports it. The returned func clears it again.
func (s *Session) applyDeadline(ctx context.Context) func() {
	d, ok := ctx.Deadline()
	dl, can := s.stream.(deadliner)
	if !ok || !can {
		return func() {}
	}
	_ = dl.SetDeadline(d)
	return func() { _ = dl.SetDeadline(time.Time{}) }
}

func (s *Session) wrapCtx(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
		return fmt.Errorf("%w: %w", cerr, err)
	}
	return err
}
