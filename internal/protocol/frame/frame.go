package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderLen is the checksum byte plus the little-endian payload length.
const HeaderLen = 5

var (
	ErrMalformed        = errors.New("frame: malformed frame")
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrMalformed)
	ErrTruncated        = fmt.Errorf("%w: truncated payload", ErrMalformed)
	ErrPayloadTooLarge  = fmt.Errorf("%w: payload too large", ErrMalformed)
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 256 * 1024 * 1024,
	}
}

// Checksum is the XOR of the four length bytes. The payload is not covered.
func Checksum(length uint32) byte {
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], length)
	return lb[0] ^ lb[1] ^ lb[2] ^ lb[3]
}

// EncodeHeader returns the 5-byte frame header for a payload of length n.
func EncodeHeader(n uint32) []byte {
	buf := make([]byte, HeaderLen)
	binary.LittleEndian.PutUint32(buf[1:5], n)
	buf[0] = Checksum(n)
	return buf
}

// DecodeHeader validates the checksum and returns the payload length.
func DecodeHeader(b []byte) (uint32, error) {
	if len(b) != HeaderLen {
		return 0, fmt.Errorf("frame: invalid header length: %d", len(b))
	}
	n := binary.LittleEndian.Uint32(b[1:5])
	if b[0] != Checksum(n) {
		return 0, ErrChecksumMismatch
	}
	return n, nil
}

// ReadFrame reads one frame and returns its payload. Errors reading the
// header are returned unwrapped; the caller decides whether they are
// transport failures.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	var head [HeaderLen]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}

	n, err := DecodeHeader(head[:])
	if err != nil {
		return nil, err
	}
	if limits.MaxPayloadBytes > 0 && uint64(n) > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}

	payload := make([]byte, n)
	if n == 0 {
		return payload, nil
	}
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes header and payload with a single Write call so a frame
// is never split across concurrent writers of the same stream.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	n := uint64(len(payload))
	if limits.MaxPayloadBytes > 0 && n > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	if n > uint64(^uint32(0)) {
		return ErrPayloadTooLarge
	}
	buf := make([]byte, 0, HeaderLen+len(payload))
	buf = append(buf, EncodeHeader(uint32(n))...)
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}
