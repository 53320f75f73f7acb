package config

import (
	"github.com/danmuck/p4ctl/internal/charset"
	"github.com/danmuck/p4ctl/internal/protocol/session"
	"github.com/danmuck/p4ctl/internal/transport"
)

func (c ClientConfig) Transport() transport.Config {
	out := transport.DefaultConfig()
	out.Port = c.Port
	if c.ConnectTimeout.Duration > 0 {
		out.ConnectTimeout = c.ConnectTimeout.Duration
	}
	out.TLS = c.TLS
	out.SSH = c.SSH
	return out
}

// Session builds the session settings. The workspace defaults to the host
// name, matching the server's own default.
func (c ClientConfig) Session() (session.Config, error) {
	cs, err := charset.Lookup(c.Charset)
	if err != nil {
		return session.Config{}, err
	}
	out := session.DefaultConfig()
	out.Username = c.User
	out.Password = c.Password
	out.Charset = cs.Param()
	out.Verbose = c.Verbose
	if c.Host != "" {
		out.Host = c.Host
	}
	if c.Client != "" {
		out.Client = c.Client
	} else if out.Client == "" {
		out.Client = out.Host
	}
	if c.Probe != "" {
		out.ProbeCommand = c.Probe
	}
	return out, nil
}

// CharsetOf returns the charset named in cfg, falling back to utf8.
func CharsetOf(c ClientConfig) charset.Charset {
	cs, err := charset.Lookup(c.Charset)
	if err != nil {
		return charset.UTF8
	}
	return cs
}
