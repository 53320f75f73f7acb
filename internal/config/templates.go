package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "client":
		return clientTemplate, nil
	case "gateway":
		return gatewayTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `port = "ssl:perforce:1666"
user = "jack"
client = "jack-ws"
charset = "utf8"
tag = false
verbose = false
probe = "info"
connect_timeout = "10s"

[tls]
ca_file = "/etc/p4ctl/ca.pem"
insecure_skip_verify = false

[ssh]
known_hosts = ""
remote_command = "p4d -i"
`

const gatewayTemplate = `name = "p4gateway"
addr = ":9200"
cors_origins = ["http://localhost:3000"]
auth_token = ""

[client]
port = "perforce:1666"
user = "build"
charset = "utf8"
probe = "info"
connect_timeout = "10s"
`
