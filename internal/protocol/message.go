package protocol

import (
	"bytes"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// traceValueLimit caps how much of a parameter value a trace line shows.
const traceValueLimit = 96

// Message is an immutable RPC message: named raw-byte parameters plus
// ordered positional text arguments.
type Message struct {
	params map[string][]byte
	args   []string
}

// Func returns the func parameter, or "" when absent.
func (m Message) Func() string {
	return string(m.params[ParamFunc])
}

// Get returns the raw value of a named parameter.
func (m Message) Get(name string) ([]byte, bool) {
	v, ok := m.params[name]
	return v, ok
}

// GetString returns a named parameter decoded as UTF-8 text.
func (m Message) GetString(name string) (string, bool) {
	v, ok := m.params[name]
	if !ok {
		return "", false
	}
	return string(v), true
}

// Lookup returns the text of a named parameter, or "" when absent.
func (m Message) Lookup(name string) string {
	return string(m.params[name])
}

// Has reports whether a named parameter is present, even if empty.
func (m Message) Has(name string) bool {
	_, ok := m.params[name]
	return ok
}

// Names returns parameter names in wire order.
func (m Message) Names() []string {
	names := make([]string, 0, len(m.params))
	for name := range m.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m Message) Args() []string {
	out := make([]string, len(m.args))
	copy(out, m.args)
	return out
}

// Params returns a copy of the named parameters as text, for display.
func (m Message) Params() map[string]string {
	out := make(map[string]string, len(m.params))
	for k, v := range m.params {
		out[k] = string(v)
	}
	return out
}

func (m Message) Equal(other Message) bool {
	if len(m.params) != len(other.params) || len(m.args) != len(other.args) {
		return false
	}
	for k, v := range m.params {
		ov, ok := other.params[k]
		if !ok || !bytes.Equal(v, ov) {
			return false
		}
	}
	for i := range m.args {
		if m.args[i] != other.args[i] {
			return false
		}
	}
	return true
}

// ToBuilder returns a builder seeded with an independent copy of m.
func (m Message) ToBuilder() *Builder {
	b := NewBuilder()
	for k, v := range m.params {
		b.params[k] = cloneBytes(v)
	}
	b.args = append(b.args, m.args...)
	return b
}

// MarshalZerologObject renders the message for verbose RPC traces.
func (m Message) MarshalZerologObject(e *zerolog.Event) {
	e.Str("func", m.Func())
	params := zerolog.Dict()
	for _, name := range m.Names() {
		if name == ParamFunc {
			continue
		}
		params.Str(name, traceValue(m.params[name]))
	}
	e.Dict("params", params)
	if len(m.args) > 0 {
		e.Strs("args", m.args)
	}
}

func traceValue(v []byte) string {
	if !utf8.Valid(v) || bytes.IndexByte(v, 0) >= 0 {
		return "<binary " + humanize.Bytes(uint64(len(v))) + ">"
	}
	if len(v) > traceValueLimit {
		return strings.ToValidUTF8(string(v[:traceValueLimit]), "") + "... (" + humanize.Bytes(uint64(len(v))) + ")"
	}
	return string(v)
}

// Builder accumulates parameters and arguments for a Message.
type Builder struct {
	params map[string][]byte
	args   []string
}

func NewBuilder() *Builder {
	return &Builder{params: make(map[string][]byte)}
}

// Func sets the func parameter.
func (b *Builder) Func(name string) *Builder {
	return b.Param(ParamFunc, name)
}

// Param sets a named text parameter. An empty name appends a positional
// argument instead.
func (b *Builder) Param(name, value string) *Builder {
	if name == "" {
		b.args = append(b.args, value)
		return b
	}
	b.params[name] = []byte(value)
	return b
}

// ParamBytes sets a named raw parameter. A nil value means "absent" and is
// skipped; use an empty non-nil slice for an empty value.
func (b *Builder) ParamBytes(name string, value []byte) *Builder {
	if value == nil {
		return b
	}
	if name == "" {
		b.args = append(b.args, string(value))
		return b
	}
	b.params[name] = cloneBytes(value)
	return b
}

// Arg appends a positional argument.
func (b *Builder) Arg(value string) *Builder {
	b.args = append(b.args, value)
	return b
}

// Args appends positional arguments in order.
func (b *Builder) Args(values ...string) *Builder {
	b.args = append(b.args, values...)
	return b
}

// Delete removes a named parameter.
func (b *Builder) Delete(name string) *Builder {
	delete(b.params, name)
	return b
}

// Empty reports whether the builder holds no parameters and no arguments.
func (b *Builder) Empty() bool {
	return len(b.params) == 0 && len(b.args) == 0
}

// Clone returns a deep, independent copy of b.
func (b *Builder) Clone() *Builder {
	out := &Builder{
		params: make(map[string][]byte, len(b.params)),
		args:   make([]string, len(b.args)),
	}
	for k, v := range b.params {
		out.params[k] = cloneBytes(v)
	}
	copy(out.args, b.args)
	return out
}

// Build snapshots the builder; later builder changes do not affect the
// returned Message.
func (b *Builder) Build() Message {
	c := b.Clone()
	return Message{params: c.params, args: c.args}
}

func cloneBytes(v []byte) []byte {
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
