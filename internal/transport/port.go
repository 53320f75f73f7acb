package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

type Scheme string

const (
	SchemeTCP Scheme = "tcp"
	SchemeSSL Scheme = "ssl"
	SchemeSSH Scheme = "ssh"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = "1666"
	DefaultSSHPort = "22"
)

var (
	ErrInvalidPort       = errors.New("transport: invalid port")
	ErrUnsupportedScheme = errors.New("transport: unsupported scheme")
)

// Address is a parsed P4PORT.
type Address struct {
	Scheme Scheme
	User   string
	Host   string
	Port   string
}

// HostPort is the dial target.
func (a Address) HostPort() string {
	return net.JoinHostPort(a.Host, a.Port)
}

func (a Address) String() string {
	target := a.HostPort()
	if a.User != "" {
		target = a.User + "@" + target
	}
	return string(a.Scheme) + ":" + target
}

func ParsePort(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidPort)
	}

	addr := Address{Scheme: SchemeTCP}
	rest := raw
	if i := strings.IndexByte(raw, ':'); i > 0 {
		if s, ok := lookupScheme(raw[:i]); ok {
			addr.Scheme = s
			rest = raw[i+1:]
		} else if isSchemeLike(raw[:i]) && strings.Contains(raw[i+1:], ":") {
			return Address{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, raw[:i])
		}
	}

	if addr.Scheme == SchemeSSH {
		at := strings.LastIndexByte(rest, '@')
		if at <= 0 {
			return Address{}, fmt.Errorf("%w: ssh port needs user@host: %q", ErrInvalidPort, raw)
		}
		addr.User = rest[:at]
		rest = rest[at+1:]
	}

	host, port, err := splitHostPort(rest, addr.Scheme)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidPort, raw, err)
	}
	addr.Host = host
	addr.Port = port
	return addr, nil
}

func lookupScheme(raw string) (Scheme, bool) {
	switch strings.ToLower(raw) {
	case "tcp", "tcp4", "tcp6":
		return SchemeTCP, true
	case "ssl", "ssl4", "ssl6":
		return SchemeSSL, true
	case "ssh":
		return SchemeSSH, true
	default:
		return "", false
	}
}

func splitHostPort(rest string, scheme Scheme) (string, string, error) {
	defPort := DefaultPort
	if scheme == SchemeSSH {
		defPort = DefaultSSHPort
	}
	if rest == "" {
		return "", "", errors.New("missing host")
	}
	if isNumber(rest) {
		return DefaultHost, rest, validPort(rest)
	}
	host, port, err := net.SplitHostPort(rest)
	if err != nil {
		if strings.Contains(rest, ":") && !strings.HasPrefix(rest, "[") {
			return "", "", err
		}
		host, port = strings.Trim(rest, "[]"), defPort
	}
	if host == "" {
		host = DefaultHost
	}
	if port == "" {
		port = defPort
	}
	return host, port, validPort(port)
}

func validPort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("bad port number %q", port)
	}
	return nil
}

// isSchemeLike reports a letter followed by letters or digits.
func isSchemeLike(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		letter := c >= 'a' && c <= 'z'
		if !letter && (i == 0 || s[i] < '0' || s[i] > '9') {
			return false
		}
	}
	return s != ""
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
