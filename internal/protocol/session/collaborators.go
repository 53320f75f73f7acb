package session

import (
	"github.com/danmuck/p4ctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Handler receives server callbacks that are not handled by the session
// itself. A non-nil, non-empty return value is sent back to the server.
type Handler interface {
	HandleMessage(m protocol.Message) (*protocol.Builder, error)
}

type HandlerFunc func(m protocol.Message) (*protocol.Builder, error)

func (f HandlerFunc) HandleMessage(m protocol.Message) (*protocol.Builder, error) {
	return f(m)
}

// Tagger is implemented by handlers that want tagged (key/value) output.
type Tagger interface {
	Tagged() bool
}

type taggedHandler struct {
	Handler
}

func (taggedHandler) Tagged() bool { return true }

// Tagged wraps h so that commands request tagged output.
func Tagged(h Handler) Handler {
	return taggedHandler{Handler: h}
}

func isTagged(h Handler) bool {
	t, ok := h.(Tagger)
	return ok && t.Tagged()
}

// InputResolver supplies interactive input, usually a password.
type InputResolver interface {
	ResolveInput(prompt string, noEcho bool) (string, error)
}

type InputResolverFunc func(prompt string, noEcho bool) (string, error)

func (f InputResolverFunc) ResolveInput(prompt string, noEcho bool) (string, error) {
	return f(prompt, noEcho)
}

// StaticInput answers every prompt with the same value.
type StaticInput string

func (s StaticInput) ResolveInput(string, bool) (string, error) {
	return string(s), nil
}

// Output receives rendered server diagnostics.
type Output interface {
	Message(sev protocol.Severity, text string)
}

type OutputFunc func(sev protocol.Severity, text string)

func (f OutputFunc) Message(sev protocol.Severity, text string) {
	f(sev, text)
}

// DiscardOutput drops every diagnostic.
var DiscardOutput Output = OutputFunc(func(protocol.Severity, string) {})

// debugOutput routes internal call diagnostics to the debug log.
var debugOutput Output = OutputFunc(func(sev protocol.Severity, text string) {
	log.Debug().Str("severity", sev.String()).Str("text", text).Msg("session: internal call")
})
