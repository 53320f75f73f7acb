package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/danmuck/p4ctl/internal/config"
	"github.com/danmuck/p4ctl/internal/mangle"
	"github.com/danmuck/p4ctl/internal/observability"
	"github.com/danmuck/p4ctl/internal/protocol"
	"github.com/danmuck/p4ctl/internal/protocol/session"
	"github.com/gin-gonic/gin"
)

type RunRequest struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	Tag      bool     `json:"tag"`
	User     string   `json:"user,omitempty"`
	Password string   `json:"password,omitempty"`
	Client   string   `json:"client,omitempty"`
}

type Diagnostic struct {
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

type RunResponse struct {
	OK          bool                `json:"ok"`
	Diagnostics []Diagnostic        `json:"diagnostics"`
	Records     []map[string]string `json:"records"`
	Text        string              `json:"text,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// collector gathers one command's callbacks into a RunResponse.
type collector struct {
	mu   sync.Mutex
	resp RunResponse
	text strings.Builder
}

func (c *collector) Message(sev protocol.Severity, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resp.Diagnostics = append(c.resp.Diagnostics, Diagnostic{Severity: sev.String(), Text: text})
}

func (c *collector) HandleMessage(m protocol.Message) (*protocol.Builder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch m.Func() {
	case protocol.FuncOutputText, protocol.FuncOutputData:
		data, _ := m.GetString("data")
		c.text.WriteString(data)
	case protocol.FuncOutputError:
		data, _ := m.GetString("data")
		c.resp.Diagnostics = append(c.resp.Diagnostics, Diagnostic{Severity: protocol.SeverityFailed.String(), Text: data})
	default:
		record := m.Params()
		delete(record, protocol.ParamFunc)
		c.resp.Records = append(c.resp.Records, record)
	}
	return nil, nil
}

func (s *Server) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, RunResponse{Error: err.Error()})
		return
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		c.JSON(http.StatusBadRequest, RunResponse{Error: "command is required"})
		return
	}
	c.Set(observability.ContextCommand, req.Command)

	resp, status := s.run(c.Request.Context(), req)
	c.JSON(status, resp)
}

func (s *Server) run(ctx context.Context, req RunRequest) (RunResponse, int) {
	clientCfg := s.cfg.Client
	if req.User != "" {
		clientCfg.User = req.User
	}
	if req.Password != "" {
		clientCfg.Password = req.Password
	}
	if req.Client != "" {
		clientCfg.Client = req.Client
	}
	if err := config.ValidateClientConfig(clientCfg); err != nil {
		return RunResponse{Error: err.Error()}, http.StatusBadRequest
	}
	sessCfg, err := clientCfg.Session()
	if err != nil {
		return RunResponse{Error: err.Error()}, http.StatusBadRequest
	}

	stream, err := s.dial(ctx, clientCfg.Transport())
	if err != nil {
		return RunResponse{Error: err.Error()}, statusOf(err)
	}
	out := &collector{}
	sess := session.Open(stream, sessCfg, session.StaticInput(clientCfg.Password), out)
	defer sess.Close()

	var handler session.Handler = out
	if req.Tag || clientCfg.Tag {
		handler = session.Tagged(out)
	}
	ok, err := sess.Call(ctx, handler, req.Command, req.Args...)

	out.mu.Lock()
	defer out.mu.Unlock()
	resp := out.resp
	resp.OK = ok
	resp.Text = out.text.String()
	if resp.Diagnostics == nil {
		resp.Diagnostics = []Diagnostic{}
	}
	if resp.Records == nil {
		resp.Records = []map[string]string{}
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("command", req.Command).Msg("gateway: command failed")
		resp.Error = err.Error()
		return resp, statusOf(err)
	}
	return resp, http.StatusOK
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, protocol.ErrTransport), errors.Is(err, protocol.ErrProtocol), errors.Is(err, mangle.ErrCrypto):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
