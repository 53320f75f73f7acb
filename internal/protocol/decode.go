package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/p4ctl/internal/protocol/frame"
	"github.com/danmuck/p4ctl/internal/protocol/tlv"
)

// Decode parses a frame payload. Records with an empty name become
// positional arguments; a repeated name keeps the last value.
func Decode(payload []byte) (Message, error) {
	records, err := tlv.DecodeRecords(payload)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	b := NewBuilder()
	for _, r := range records {
		if r.Name == "" {
			b.args = append(b.args, string(r.Value))
			continue
		}
		b.params[r.Name] = r.Value
	}
	return Message{params: b.params, args: b.args}, nil
}

// Read reads and decodes one frame. It returns the message and the number of
// bytes consumed from r.
func Read(r io.Reader, limits frame.Limits) (Message, int, error) {
	payload, err := frame.ReadFrame(r, limits)
	if err != nil {
		if errors.Is(err, frame.ErrMalformed) {
			return Message{}, 0, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		return Message{}, 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	m, err := Decode(payload)
	if err != nil {
		return Message{}, 0, err
	}
	return m, frame.HeaderLen + len(payload), nil
}
