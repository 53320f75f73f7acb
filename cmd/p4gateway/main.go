package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/p4ctl/internal/config"
	"github.com/danmuck/p4ctl/internal/gateway"
	"github.com/danmuck/p4ctl/internal/observability"
	"github.com/gin-gonic/gin"
)

func main() {
	path := flag.String("config", "cmd/p4gateway/config.toml", "gateway config path (.toml, .yaml)")
	flag.Parse()

	logger := observability.InitLogger("p4gateway")
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.LoadGatewayConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "p4gateway: %v\n", err)
		os.Exit(1)
	}
	config.ApplyEnv(&cfg.Client, os.Getenv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gateway.New(cfg, logger).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("gateway stopped")
		os.Exit(1)
	}
}
