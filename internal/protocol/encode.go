package protocol

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/p4ctl/internal/protocol/frame"
	"github.com/danmuck/p4ctl/internal/protocol/tlv"
)

// Encode returns the frame payload for m: named parameters sorted by name,
// then positional arguments in order under an empty name.
func Encode(m Message) []byte {
	names := m.Names()
	records := make([]tlv.Record, 0, len(names)+len(m.args))
	for _, name := range names {
		records = append(records, tlv.Record{Name: name, Value: m.params[name]})
	}
	for _, arg := range m.args {
		records = append(records, tlv.Record{Value: []byte(arg)})
	}
	return tlv.EncodeRecords(records)
}

// Write encodes m as one frame. It returns the number of bytes written.
func Write(w io.Writer, m Message, limits frame.Limits) (int, error) {
	payload := Encode(m)
	if err := frame.WriteFrame(w, payload, limits); err != nil {
		if errors.Is(err, frame.ErrMalformed) {
			return 0, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return frame.HeaderLen + len(payload), nil
}
