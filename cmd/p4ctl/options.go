package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/p4ctl/internal/charset"
	"github.com/danmuck/p4ctl/internal/config"
)

type options struct {
	client  config.ClientConfig
	command string
	args    []string
}

// parseOptions resolves settings with precedence file < env < flags.
func parseOptions(args []string, stderr io.Writer, getenv func(string) string) (options, error) {
	fs := flag.NewFlagSet("p4ctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (.toml, .yaml)")
	port := fs.String("p", "", "set server port (default $P4PORT)")
	user := fs.String("u", "", "set user's username (default $P4USER)")
	password := fs.String("P", "", "set user's password (default $P4PASSWD)")
	client := fs.String("c", "", "set client workspace name (default $P4CLIENT)")
	host := fs.String("H", "", "set client host name (default $P4HOST)")
	cs := fs.String("C", "", "set client charset (default $P4CHARSET): "+strings.Join(charset.Names(), ", "))
	tag := fs.Bool("Ztag", false, "request tagged output")
	vrpc := fs.Int("vrpc", 0, "trace rpc messages when > 0")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: p4ctl [flags] command [args...]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return options{}, errors.New("command is required")
	}

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		return options{}, err
	}
	config.ApplyEnv(&cfg, getenv)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Port = *port
		case "u":
			cfg.User = *user
		case "P":
			cfg.Password = *password
		case "c":
			cfg.Client = *client
		case "H":
			cfg.Host = *host
		case "C":
			cfg.Charset = *cs
		case "Ztag":
			cfg.Tag = *tag
		case "vrpc":
			cfg.Verbose = *vrpc > 0
		}
	})
	if cfg.User == "" {
		cfg.User = getenv("USER")
	}
	if err := config.ValidateClientConfig(cfg); err != nil {
		return options{}, err
	}

	return options{
		client:  cfg,
		command: fs.Arg(0),
		args:    fs.Args()[1:],
	}, nil
}
