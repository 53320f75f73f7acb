package session

import (
	"os"
	"runtime"

	"github.com/danmuck/p4ctl/internal/protocol/frame"
)

const (
	DefaultClientProtocol = "80"
	DefaultBufferSize     = 524288
	DefaultProbeCommand   = "info"
	DefaultCharset        = "1"
)

// Config defines the identity and tuning a Session announces to the server.
type Config struct {
	Username string
	Password string
	// Client is the workspace name.
	Client string
	Cwd    string
	Host   string
	OS     string
	// Charset is the numeric charset code sent with every command.
	Charset string
	// CaseInsensitive announces a case-folding client. The zero value
	// sends clientCase=1.
	CaseInsensitive bool
	Program         string
	Version         string

	ClientProtocol string
	SendBuffer     int
	RecvBuffer     int
	ProbeCommand   string

	Limits  frame.Limits
	Verbose bool
}

func DefaultConfig() Config {
	cwd, _ := os.Getwd()
	host, _ := os.Hostname()
	return Config{
		Client:         host,
		Cwd:            cwd,
		Host:           host,
		OS:             clientOS(),
		Charset:        DefaultCharset,
		ClientProtocol: DefaultClientProtocol,
		SendBuffer:     DefaultBufferSize,
		RecvBuffer:     DefaultBufferSize,
		ProbeCommand:   DefaultProbeCommand,
		Limits:         frame.DefaultLimits(),
	}
}

// withDefaults fills zero-valued protocol settings.
func (c Config) withDefaults() Config {
	if c.OS == "" {
		c.OS = clientOS()
	}
	if c.Charset == "" {
		c.Charset = DefaultCharset
	}
	if c.ClientProtocol == "" {
		c.ClientProtocol = DefaultClientProtocol
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = DefaultBufferSize
	}
	if c.RecvBuffer <= 0 {
		c.RecvBuffer = DefaultBufferSize
	}
	if c.ProbeCommand == "" {
		c.ProbeCommand = DefaultProbeCommand
	}
	return c
}

func clientOS() string {
	if runtime.GOOS == "windows" {
		return "NT"
	}
	return "UNIX"
}
