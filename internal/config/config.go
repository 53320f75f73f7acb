package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/p4ctl/internal/charset"
	"github.com/danmuck/p4ctl/internal/transport"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ClientConfig is everything needed to reach a server and run commands.
type ClientConfig struct {
	Port           string              `toml:"port" yaml:"port"`
	User           string              `toml:"user" yaml:"user"`
	Password       string              `toml:"password" yaml:"password"`
	Client         string              `toml:"client" yaml:"client"`
	Host           string              `toml:"host" yaml:"host"`
	Charset        string              `toml:"charset" yaml:"charset"`
	Tag            bool                `toml:"tag" yaml:"tag"`
	Verbose        bool                `toml:"verbose" yaml:"verbose"`
	Probe          string              `toml:"probe" yaml:"probe"`
	ConnectTimeout Duration            `toml:"connect_timeout" yaml:"connect_timeout"`
	TLS            transport.TLSConfig `toml:"tls" yaml:"tls"`
	SSH            transport.SSHConfig `toml:"ssh" yaml:"ssh"`
}

type GatewayConfig struct {
	Name        string   `toml:"name" yaml:"name"`
	Addr        string   `toml:"addr" yaml:"addr"`
	CorsOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
	// AuthToken, when set, is required as a bearer token on /v1 routes.
	AuthToken string       `toml:"auth_token" yaml:"auth_token"`
	Client    ClientConfig `toml:"client" yaml:"client"`
}

// Duration reads "10s" style values from either file format.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Port:           transport.DefaultPort,
		Charset:        charset.UTF8.Name,
		Probe:          "info",
		ConnectTimeout: Duration{transport.DefaultConnectTimeout},
	}
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Name:   "p4gateway",
		Addr:   ":9200",
		Client: DefaultClientConfig(),
	}
}

// LoadClientConfig reads path over the defaults. An empty path returns
// the defaults unchanged.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	if err := load(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func LoadGatewayConfig(path string) (GatewayConfig, error) {
	cfg := DefaultGatewayConfig()
	if err := load(path, &cfg); err != nil {
		return GatewayConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "p4gateway"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9200"
	}
	if err := ValidateGatewayConfig(cfg); err != nil {
		return GatewayConfig{}, err
	}
	return cfg, nil
}

func load(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		err = toml.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ApplyEnv layers P4* environment variables over cfg. getenv is usually
// os.Getenv.
func ApplyEnv(cfg *ClientConfig, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Port, "P4PORT")
	set(&cfg.User, "P4USER")
	set(&cfg.Client, "P4CLIENT")
	set(&cfg.Host, "P4HOST")
	set(&cfg.Charset, "P4CHARSET")
	if v := getenv("P4PASSWD"); v != "" {
		cfg.Password = v
	}
}

func ValidateClientConfig(cfg ClientConfig) error {
	if _, err := transport.ParsePort(cfg.Port); err != nil {
		return fmt.Errorf("client config invalid port: %w", err)
	}
	if strings.TrimSpace(cfg.User) == "" {
		return fmt.Errorf("client config missing user")
	}
	if _, err := charset.Lookup(cfg.Charset); err != nil {
		return fmt.Errorf("client config invalid charset: %w", err)
	}
	return nil
}

func ValidateGatewayConfig(cfg GatewayConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("gateway config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("gateway config missing addr")
	}
	if _, err := transport.ParsePort(cfg.Client.Port); err != nil {
		return fmt.Errorf("gateway client invalid port: %w", err)
	}
	if _, err := charset.Lookup(cfg.Client.Charset); err != nil {
		return fmt.Errorf("gateway client invalid charset: %w", err)
	}
	return nil
}
