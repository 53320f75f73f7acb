package main

import (
	"flag"
	"log"

	"github.com/danmuck/p4ctl/internal/config"
)

func main() {
	kind := flag.String("kind", "client", "config kind: client|gateway")
	output := flag.String("output", "", "output path for config template")
	check := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *check {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		if err := validate(*kind, path); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "client":
		return "cmd/p4ctl/config.toml"
	case "gateway":
		return "cmd/p4gateway/config.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}
