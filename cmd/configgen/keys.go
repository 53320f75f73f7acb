package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/p4ctl/internal/config"
)

// undecodedKeys lists TOML keys in path that no config field consumes.
// YAML files are not checked.
func undecodedKeys(path string, out any) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return nil, nil
	}
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	var keys []string
	for _, k := range meta.Undecoded() {
		keys = append(keys, k.String())
	}
	return keys, nil
}

func validate(kind, path string) error {
	var target any
	switch kind {
	case "client":
		cfg, err := config.LoadClientConfig(path)
		if err != nil {
			return err
		}
		if err := config.ValidateClientConfig(cfg); err != nil {
			return err
		}
		target = &config.ClientConfig{}
	case "gateway":
		if _, err := config.LoadGatewayConfig(path); err != nil {
			return err
		}
		target = &config.GatewayConfig{}
	default:
		return fmt.Errorf("unknown kind: %s", kind)
	}
	keys, err := undecodedKeys(path, target)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}
