package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const DefaultRemoteCommand = "p4d -i"

// SSHConfig controls ssh: ports.
type SSHConfig struct {
	KeyPath                     string `toml:"key_path" yaml:"key_path"`
	Passphrase                  string `toml:"passphrase" yaml:"passphrase"`
	KnownHostsPath              string `toml:"known_hosts" yaml:"known_hosts"`
	InsecureSkipHostKeyChecking bool   `toml:"insecure_skip_host_key_checking" yaml:"insecure_skip_host_key_checking"`
	// RemoteCommand is run on the remote host; its stdio carries the RPC.
	RemoteCommand string `toml:"remote_command" yaml:"remote_command"`
}

// sshStream carries frames over a remote command's stdin and stdout.
type sshStream struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
}

func (s *sshStream) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *sshStream) Write(p []byte) (int, error) { return s.stdin.Write(p) }

func (s *sshStream) Close() error {
	return errors.Join(s.stdin.Close(), s.session.Close(), s.client.Close())
}

func dialSSH(ctx context.Context, addr Address, cfg Config) (io.ReadWriteCloser, error) {
	clientCfg, err := cfg.SSH.clientConfig(addr.User)
	if err != nil {
		return nil, err
	}
	clientCfg.Timeout = cfg.ConnectTimeout

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr.HostPort())
	if err != nil {
		return nil, err
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr.HostPort(), clientCfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	client := ssh.NewClient(clientConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, err
	}

	command := strings.TrimSpace(cfg.SSH.RemoteCommand)
	if command == "" {
		command = DefaultRemoteCommand
	}
	if err := session.Start(command); err != nil {
		_ = session.Close()
		_ = client.Close()
		return nil, fmt.Errorf("transport: start %q: %w", command, err)
	}
	return &sshStream{client: client, session: session, stdin: stdin, stdout: stdout}, nil
}

func (c SSHConfig) clientConfig(user string) (*ssh.ClientConfig, error) {
	if user == "" {
		return nil, fmt.Errorf("ssh user is required")
	}

	signer, err := c.signer()
	if err != nil {
		return nil, err
	}

	var hostKeyCallback ssh.HostKeyCallback
	if c.InsecureSkipHostKeyChecking {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		callback, err := c.knownHostsCallback()
		if err != nil {
			return nil, err
		}
		hostKeyCallback = callback
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
	}, nil
}

func (c SSHConfig) signer() (ssh.Signer, error) {
	path := strings.TrimSpace(c.KeyPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("ssh key path not set and home dir unavailable")
		}
		path = filepath.Join(home, ".ssh", "id_ed25519")
	}

	privateKey, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if c.Passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(privateKey, []byte(c.Passphrase))
	}
	return ssh.ParsePrivateKey(privateKey)
}

func (c SSHConfig) knownHostsCallback() (ssh.HostKeyCallback, error) {
	path := strings.TrimSpace(c.KnownHostsPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("known hosts path not set and home dir unavailable")
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	return knownhosts.New(path)
}
