package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/danmuck/p4ctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	DefaultConnectTimeout   = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
)

type Config struct {
	Port             string        `toml:"port" yaml:"port"`
	ConnectTimeout   time.Duration `toml:"connect_timeout" yaml:"connect_timeout"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout" yaml:"handshake_timeout"`
	TLS              TLSConfig     `toml:"tls" yaml:"tls"`
	SSH              SSHConfig     `toml:"ssh" yaml:"ssh"`
}

func DefaultConfig() Config {
	return Config{
		Port:             DefaultPort,
		ConnectTimeout:   DefaultConnectTimeout,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
}

// Dial connects to cfg.Port. tcp and ssl ports return a net.Conn; ssh
// ports return a stream without deadlines or a remote address. Failures
// wrap protocol.ErrTransport.
func Dial(ctx context.Context, cfg Config) (io.ReadWriteCloser, error) {
	addr, err := ParsePort(cfg.Port)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}

	var stream io.ReadWriteCloser
	switch addr.Scheme {
	case SchemeTCP:
		stream, err = dialTCP(ctx, addr, cfg)
	case SchemeSSL:
		stream, err = dialSSL(ctx, addr, cfg)
	case SchemeSSH:
		stream, err = dialSSH(ctx, addr, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, addr.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", protocol.ErrTransport, addr, err)
	}
	log.Debug().Str("port", addr.String()).Msg("transport: connected")
	return stream, nil
}

func dialTCP(ctx context.Context, addr Address, cfg Config) (net.Conn, error) {
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	return dialer.DialContext(ctx, "tcp", addr.HostPort())
}

func dialSSL(ctx context.Context, addr Address, cfg Config) (net.Conn, error) {
	tlsCfg, err := cfg.TLS.clientConfig(addr.Host)
	if err != nil {
		return nil, err
	}
	rawConn, err := dialTCP(ctx, addr, cfg)
	if err != nil {
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}
