// Package gateway exposes one-shot RPC commands over HTTP.
package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/p4ctl/internal/auth"
	"github.com/danmuck/p4ctl/internal/config"
	"github.com/danmuck/p4ctl/internal/observability"
	"github.com/danmuck/p4ctl/internal/transport"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// DialFunc opens the stream for one command.
type DialFunc func(ctx context.Context, cfg transport.Config) (io.ReadWriteCloser, error)

type Server struct {
	cfg       config.GatewayConfig
	router    *gin.Engine
	dial      DialFunc
	validator auth.Validator
	logger    zerolog.Logger
	appeared  time.Time
}

type Option func(*Server)

// WithValidator guards /v1 routes with v.
func WithValidator(v auth.Validator) Option {
	return func(s *Server) { s.validator = v }
}

// WithDialer replaces transport.Dial.
func WithDialer(dial DialFunc) Option {
	return func(s *Server) { s.dial = dial }
}

func New(cfg config.GatewayConfig, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		dial:     transport.Dial,
		logger:   logger,
		appeared: time.Now(),
	}
	if cfg.AuthToken != "" {
		s.validator = auth.StaticToken{Token: cfg.AuthToken}
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetrics(cfg.Name))
	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	s.router = r
	s.registerRoutes()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Str("port", s.cfg.Client.Port).Msg("gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
